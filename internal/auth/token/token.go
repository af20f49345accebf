// Package token issues and verifies signed session tokens for logged-in
// players.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuerName = "skirmish.cards"
	defaultTTL = 24 * time.Hour
)

// ErrInvalidToken indicates a token that failed verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims captures the validated identity carried by a session token.
type Claims struct {
	UserID   string
	Username string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds a token issuer from a shared secret.
func NewIssuer(secret string, now func() time.Time) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    now,
	}, nil
}

// Issue signs a session token for the given player.
func (i *Issuer) Issue(userID, username string) (string, error) {
	if i == nil {
		return "", fmt.Errorf("token issuer is not configured")
	}
	issuedAt := i.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		Username: username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry, returning the token claims.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	if i == nil {
		return Claims{}, fmt.Errorf("token issuer is not configured")
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Username) == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		UserID:   claims.Subject,
		Username: claims.Username,
	}, nil
}
