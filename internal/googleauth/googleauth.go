// Package googleauth exchanges Google OAuth authorization codes for the
// profile of the Google account that granted them.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrCodeExchangeFailed = errors.New("failed to exchange authorization code")
	ErrMissingIDToken     = errors.New("token response carries no id_token")
	ErrTokenRejected      = errors.New("google rejected the id token")
	ErrAudienceMismatch   = errors.New("id token was issued for a different client")
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Config holds the OAuth client credentials issued by the Google console.
type Config struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
}

// Profile is the subset of id-token claims the service cares about.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Aud     string `json:"aud"`
}

// Client verifies Google sign-ins. The zero value is unusable; construct it
// with New.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to call the tokeninfo
// endpoint. Intended for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Google sign-in client. The redirect URL is the literal
// "postmessage" because the frontend obtains the code via the popup flow.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  "postmessage",
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyCode exchanges the authorization code and validates the resulting id
// token against Google, returning the account profile on success.
func (c *Client) VerifyCode(ctx context.Context, code string) (*Profile, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err)
	}

	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, ErrMissingIDToken
	}

	return c.VerifyIDToken(ctx, idToken)
}

// VerifyIDToken validates an id token against Google and returns the account
// profile it describes. Used directly when the frontend already holds an id
// token instead of an authorization code.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Profile, error) {
	endpoint := tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}
	if profile.Aud != c.oauth.ClientID {
		return nil, ErrAudienceMismatch
	}
	return &profile, nil
}
