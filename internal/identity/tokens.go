package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultSessionTTL  = 7 * 24 * time.Hour
	RememberSessionTTL = 30 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

type sessionClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// SessionToken is a signed session handed to the client.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

type tokenIssuer struct {
	secretKey []byte
	now       func() time.Time
}

func newTokenIssuer(secretKey []byte) (*tokenIssuer, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("session secret key required")
	}
	return &tokenIssuer{secretKey: secretKey, now: time.Now}, nil
}

func (issuer *tokenIssuer) issue(uid string, ttl time.Duration) (SessionToken, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := issuer.now()
	expiresAt := now.Add(ttl)

	claims := sessionClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.secretKey)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session: %w", err)
	}
	return SessionToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (issuer *tokenIssuer) parse(raw string) (sessionClaims, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return issuer.secretKey, nil
	}, jwt.WithTimeFunc(issuer.now))
	if err != nil || !token.Valid {
		return sessionClaims{}, ErrInvalidSession
	}
	if claims.ExpiresAt == nil || strings.TrimSpace(claims.UID) == "" {
		return sessionClaims{}, ErrInvalidSession
	}
	return claims, nil
}
