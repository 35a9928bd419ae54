// Package auth verifies the bearer credential presented at connection
// establishment and resolves it to a user identity.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkozlov/converse/internal/domain"
)

var (
	// ErrInvalidToken is returned for missing, malformed or badly signed
	// credentials.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the credential has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by the connection credential. Subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates the credential and returns the identity it is bound to.
func (v *Verifier) Verify(token string) (domain.UserID, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return domain.UserID(claims.Subject), nil
}

// Sign mints a credential for the given identity. Token issuance belongs to
// the account service; this helper exists for tooling and tests.
func (v *Verifier) Sign(id domain.UserID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
