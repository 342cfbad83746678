// Package backend opens the stores selected by configuration so the API, the
// TUI and the catalog importer share one wiring.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	authStore "github.com/MrJamesThe3rd/tally/internal/auth/store"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/remote"
	"github.com/MrJamesThe3rd/tally/internal/remote/memory"
	"github.com/MrJamesThe3rd/tally/internal/remote/postgres"
)

type Backend struct {
	Store    remote.Store
	Users    auth.Repository
	Denylist auth.Denylist

	closers []func() error
}

// Open connects the configured document store, user repository and token
// denylist. Postgres schemas are migrated before use.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		b.Store = memory.New()
		b.Users = authStore.NewMemory()
	case config.BackendPostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}

		b.closers = append(b.closers, db.Close)
		b.Store = postgres.New(db, cfg.ConnectionString())
		b.Users = authStore.New(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Redis.Addr == "" {
		b.Denylist = auth.NewMemoryDenylist()
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = b.Close()

		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	b.closers = append(b.closers, client.Close)
	b.Denylist = auth.NewRedisDenylist(client)

	return b, nil
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("database ready", "host", cfg.DB.Host, "name", cfg.DB.Name)

	return db, nil
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}

	b.closers = nil

	return errors.Join(errs...)
}
