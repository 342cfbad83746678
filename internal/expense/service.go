package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/remote"
)

var ErrMissingOwner = errors.New("owner is required")

// Service writes an owner's records to the remote store. Writes are only
// observable through the next Stream snapshot.
type Service struct {
	store  remote.Store
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

// WithClock replaces the clock used to date new records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store remote.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	Amount      decimal.Decimal
	Category    Category
	Description string
}

// UpdateParams holds the fields to change. Nil fields are left as they are.
type UpdateParams struct {
	Amount      *decimal.Decimal
	Category    *Category
	Description *string
}

func (s *Service) Create(ctx context.Context, ownerID string, params CreateParams) (string, error) {
	if err := validateOwner(ownerID); err != nil {
		return "", err
	}

	if err := validateAmount(params.Amount); err != nil {
		return "", err
	}

	if err := validateCategory(params.Category); err != nil {
		return "", err
	}

	description, err := validateDescription(params.Description)
	if err != nil {
		return "", err
	}

	doc := document{
		Amount:      params.Amount,
		Category:    params.Category,
		Description: description,
		Date:        s.now(),
	}

	id, err := s.store.Push(ctx, Collection(ownerID), doc)
	if err != nil {
		return "", &RemoteError{Op: "creating", Err: err}
	}

	s.logger.Debug("expense created", "owner", ownerID, "id", id)

	return id, nil
}

// Update patches the provided fields. The record date is never changed.
func (s *Service) Update(ctx context.Context, ownerID, id string, params UpdateParams) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}

	patch := make(map[string]any, 3)

	if params.Amount != nil {
		if err := validateAmount(*params.Amount); err != nil {
			return err
		}

		patch["amount"] = *params.Amount
	}

	if params.Category != nil {
		if err := validateCategory(*params.Category); err != nil {
			return err
		}

		patch["category"] = *params.Category
	}

	if params.Description != nil {
		description, err := validateDescription(*params.Description)
		if err != nil {
			return err
		}

		patch["description"] = description
	}

	if len(patch) == 0 {
		return nil
	}

	if err := s.store.Update(ctx, remote.Join(Collection(ownerID), id), patch); err != nil {
		return &RemoteError{Op: "updating", Err: err}
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, remote.Join(Collection(ownerID), id)); err != nil {
		return &RemoteError{Op: "deleting", Err: err}
	}

	return nil
}

// List reads the owner's records once, in store order.
func (s *Service) List(ctx context.Context, ownerID string) ([]Record, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, Collection(ownerID), nil)
	if err != nil {
		return nil, &RemoteError{Op: "listing", Err: err}
	}

	records := make([]Record, 0, len(docs))

	for _, d := range docs {
		r, err := decodeRecord(d.ID, d.Data)
		if err != nil {
			s.logger.Warn("skipping undecodable record", "owner", ownerID, "key", d.ID, "error", err)
			continue
		}

		records = append(records, r)
	}

	return records, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*Record, error) {
	records, err := s.List(ctx, ownerID)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) {
			re.Op = "getting"
		}

		return nil, err
	}

	for _, r := range records {
		if r.ID == id {
			return &r, nil
		}
	}

	return nil, &RemoteError{Op: "getting", Err: fmt.Errorf("%w: %s", remote.ErrNotFound, id)}
}

func validateOwner(ownerID string) error {
	if ownerID == "" {
		return &ValidationError{Field: "owner", Err: ErrMissingOwner}
	}

	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}

	return nil
}

func validateCategory(c Category) error {
	if !c.Valid() {
		return &ValidationError{Field: "category", Err: fmt.Errorf("%w: %q", ErrUnknownCategory, c)}
	}

	return nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}

	return description, nil
}
