package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/tally/internal/remote"
)

var ErrProductNotFound = errors.New("product not found")

// Service performs one-shot catalog reads.
type Service struct {
	store  remote.Store
	logger *slog.Logger
}

func NewService(store remote.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, logger: logger}
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return query(ctx, s, CategoryCollection, nil, func(id string, c *Category) { c.ID = id })
}

func (s *Service) Featured(ctx context.Context) ([]Featured, error) {
	return query(ctx, s, FeaturedCollection, nil, func(id string, f *Featured) { f.ID = id })
}

// Products lists the products of one category. An empty category lists all
// products.
func (s *Service) Products(ctx context.Context, category string) ([]Product, error) {
	var filter *remote.Filter
	if category != "" {
		filter = &remote.Filter{Field: "Category", Value: category}
	}

	return query(ctx, s, ProductCollection, filter, func(id string, p *Product) { p.ID = id })
}

func (s *Service) Product(ctx context.Context, id string) (*Product, error) {
	products, err := s.Products(ctx, "")
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if p.ID == id {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

func query[T any](
	ctx context.Context,
	s *Service,
	collection string,
	filter *remote.Filter,
	setID func(id string, v *T),
) ([]T, error) {
	docs, err := s.store.Query(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}

	out := make([]T, 0, len(docs))

	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			s.logger.Warn("skipping undecodable catalog document", "collection", collection, "id", d.ID, "error", err)
			continue
		}

		setID(d.ID, &v)
		out = append(out, v)
	}

	return out, nil
}
