package session // package session holds server-side session state and the cookie codec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the name of the session cookie set on login and
// registration and cleared on logout.
const CookieName = "session"

// ErrInvalidToken is returned when a session cookie fails signature
// verification, has expired, or does not carry a session id.
var ErrInvalidToken = errors.New("invalid session token")

// NewSessionID returns a cryptographically random session identifier.
// The raw value only ever travels inside the signed cookie; Redis keys
// are derived from its hash so a leaked key dump cannot be replayed.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashSessionID returns the SHA-256 hex digest of a raw session id.
func HashSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SignCookie builds an HS256 JWT carrying the session id. The client
// holds the cookie but cannot mint or alter one without the secret.
func SignCookie(secret, sid string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseCookie verifies a signed session cookie and extracts the session
// id. Any parse, signature or expiry failure yields ErrInvalidToken;
// callers never learn which check failed.
func ParseCookie(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}
