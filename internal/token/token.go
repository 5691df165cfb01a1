package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/startera/internal/domain"
)

// Issuer signs and validates HS256 session tokens whose subject is the user's e-mail
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for subject
func (i *Issuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", domain.WrapValidationError("subject", errors.New("subject cannot be empty"))
	}
	issuedAt := i.now()
	claims := jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: issuedAt.Add(i.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the token subject
func (i *Issuer) Validate(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", domain.ErrUnauthorized
	}
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.NewDomainError(domain.ErrUnauthorized.Code, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
