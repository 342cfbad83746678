package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tally"

type claims struct {
	jwt.RegisteredClaims
}

func (s *Service) issue(userID string) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Session{UserID: userID, Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidToken
	}

	return &c, nil
}

func (c *claims) expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}

	return c.ExpiresAt.Time
}
