// Package auth signs users up and in, issues JWT session tokens and revokes
// them on sign-out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=auth
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Denylist remembers revoked token IDs until the token would have expired.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Service struct {
	repo     Repository
	denylist Denylist
	validate *validator.Validate

	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, denylist Denylist, cfg Config) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{
		repo:     repo,
		denylist: denylist,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		secret:   cfg.Secret,
		ttl:      ttl,
		cost:     cost,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// WithClock returns s with its clock replaced. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	creds, err := s.credentials(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{Email: creds.Email, PasswordHash: string(hash)}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user", u.ID)

	return s.issue(u.ID.String())
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u.ID.String())
}

// SignOut revokes token. Signing out with a token that is already invalid
// is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}

	if err := s.denylist.Revoke(ctx, c.ID, c.expiry()); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	return nil
}

// Authenticate returns the user ID of a valid, unrevoked token.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	c, err := s.parse(token)
	if err != nil {
		return "", err
	}

	revoked, err := s.denylist.IsRevoked(ctx, c.ID)
	if err != nil {
		return "", fmt.Errorf("checking token: %w", err)
	}

	if revoked {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}

func (s *Service) credentials(email, password string) (credentials, error) {
	creds := credentials{Email: normalizeEmail(email), Password: password}

	err := s.validate.Struct(creds)
	if err == nil {
		return creds, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return creds, fmt.Errorf("validating credentials: %w", err)
	}

	if verrs[0].Field() == "Email" {
		return creds, ErrInvalidEmail
	}

	return creds, ErrWeakPassword
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
