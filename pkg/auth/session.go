package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie carrying the signed token. It is
// HTTP-only and never readable by page scripts.
const CookieName = "authToken"

var (
	// ErrSessionExpired marks a token whose signature verified but whose
	// lifetime has passed.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalid marks a malformed or forged token.
	ErrSessionInvalid = errors.New("session invalid")
)

// SessionIssuer mints and validates signed, time-bound session tokens
// bound to a wallet address.
type SessionIssuer struct {
	secret       []byte
	ttl          time.Duration
	cookieSecure bool
}

// NewSessionIssuer builds a SessionIssuer. An empty secret is a
// configuration fault, not a runtime-recoverable condition.
func NewSessionIssuer(secret string, ttl time.Duration, cookieSecure bool) (*SessionIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session signing secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &SessionIssuer{
		secret:       []byte(secret),
		ttl:          ttl,
		cookieSecure: cookieSecure,
	}, nil
}

// TTL returns the session lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue produces a signed HS256 token with the normalized wallet address
// as its subject claim.
func (s *SessionIssuer) Issue(address string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   NormalizeAddress(address),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate verifies the token signature and expiry and returns the subject
// wallet address. Expired tokens return ErrSessionExpired; anything
// malformed or signed with a different key returns ErrSessionInvalid.
func (s *SessionIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrSessionInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrSessionInvalid
	}

	return claims.Subject, nil
}

// SetCookie delivers the session token as an HTTP-only, same-site-strict
// cookie whose lifetime matches the embedded token expiry.
func (s *SessionIssuer) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie revokes the session cookie by overwriting it with an empty
// value and an already-past expiry.
func (s *SessionIssuer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
