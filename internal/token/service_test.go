package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherspace/backend/internal/token"
)

func newService(t *testing.T, ttl time.Duration) *token.Service {
	t.Helper()
	svc, err := token.New(token.Config{
		SessionSecret:      "session-secret",
		EmailConfirmSecret: "confirm-secret",
		TTL:                ttl,
	})
	require.NoError(t, err)
	return svc
}

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Hour)
	userID := uuid.New()

	for _, kind := range []token.Kind{token.KindSession, token.KindEmailConfirm, token.KindPasswordReset} {
		signed, err := svc.Issue(kind, userID)
		require.NoError(t, err)
		require.NotEmpty(t, signed)

		got, err := svc.Verify(kind, signed)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	}
}

func TestService_KindsUseDistinctSecrets(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Hour)
	userID := uuid.New()

	confirm, err := svc.Issue(token.KindEmailConfirm, userID)
	require.NoError(t, err)

	_, err = svc.Verify(token.KindSession, confirm)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	session, err := svc.Issue(token.KindSession, userID)
	require.NoError(t, err)

	_, err = svc.Verify(token.KindEmailConfirm, session)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_SessionTokenNeverExpires(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Nanosecond)
	userID := uuid.New()

	signed, err := svc.Issue(token.KindSession, userID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	got, err := svc.Verify(token.KindSession, signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestService_ShortLivedTokensExpire(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Nanosecond)
	userID := uuid.New()

	signed, err := svc.Issue(token.KindPasswordReset, userID)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = svc.Verify(token.KindPasswordReset, signed)
	assert.ErrorIs(t, err, token.ErrExpiredToken)
}

func TestService_UnknownKind(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Hour)

	_, err := svc.Issue(token.Kind("bogus"), uuid.New())
	assert.ErrorIs(t, err, token.ErrUnknownKind)

	_, err = svc.Verify(token.Kind("bogus"), "whatever")
	assert.ErrorIs(t, err, token.ErrUnknownKind)
}

func TestService_GarbageToken(t *testing.T) {
	t.Parallel()

	svc := newService(t, time.Hour)

	_, err := svc.Verify(token.KindSession, "not-a-token")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestService_RequiresSecrets(t *testing.T) {
	t.Parallel()

	_, err := token.New(token.Config{EmailConfirmSecret: "x"})
	assert.Error(t, err)

	_, err = token.New(token.Config{SessionSecret: "x"})
	assert.Error(t, err)
}
