// Package jwt implements signing and verification of JSON Web Tokens using
// the HS256 (HMAC-SHA256) algorithm.
//
// The Service type wraps a signing key and accepts any JSON-serialisable
// claims structure. Claims is provided as the structure used by the
// application's token channels: a subject identifier plus optional expiry.
//
// Usage:
//
//	svc, err := jwt.NewFromString(cfg.SigningKey)
//	if err != nil {
//		return err
//	}
//
//	token, err := svc.Sign(jwt.Claims{ID: userID.String()})
//
//	var claims jwt.Claims
//	if err := svc.Parse(token, &claims); err != nil {
//		// signature or expiry failure
//	}
package jwt
