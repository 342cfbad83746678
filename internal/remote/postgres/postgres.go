// Package postgres is a remote.Store backed by a JSONB documents table.
// Subscriptions LISTEN on the documents_changed channel, which a trigger
// notifies with the collection name on every write.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/tally/internal/remote"
)

const notifyChannel = "documents_changed"

// insufficient_privilege
const pgCodePermissionDenied = "42501"

type Store struct {
	db         *sql.DB
	connString string
}

// New returns a Store that writes through db and opens a dedicated
// connection from connString for every subscription.
func New(db *sql.DB, connString string) *Store {
	return &Store{db: db, connString: connString}
}

func (s *Store) Push(ctx context.Context, coll string, value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	key := uuid.Must(uuid.NewV7()).String()

	query := `INSERT INTO documents (collection, key, value) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, coll, key, raw); err != nil {
		return "", fmt.Errorf("creating document: %w", translate(err))
	}

	return key, nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, coll, key, raw); err != nil {
		return fmt.Errorf("writing document: %w", translate(err))
	}

	return nil
}

func (s *Store) Update(ctx context.Context, path string, patch map[string]any) error {
	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}

	query := `
		UPDATE documents
		SET value = value || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND key = $2
	`

	res, err := s.db.ExecContext(ctx, query, coll, key, raw)
	if err != nil {
		return fmt.Errorf("updating document: %w", translate(err))
	}

	return requireAffected(res)
}

func (s *Store) Remove(ctx context.Context, path string) error {
	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND key = $2`, coll, key)
	if err != nil {
		return fmt.Errorf("deleting document: %w", translate(err))
	}

	return requireAffected(res)
}

func (s *Store) Query(ctx context.Context, coll string, filter *remote.Filter) ([]remote.Document, error) {
	query := `SELECT key, value FROM documents WHERE collection = $1`
	args := []any{coll}

	if filter != nil {
		want, err := json.Marshal(filter.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding filter: %w", err)
		}

		query += ` AND value -> $2 = $3::jsonb`

		args = append(args, filter.Field, want)
	}

	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", translate(err))
	}
	defer rows.Close()

	docs := []remote.Document{}

	for rows.Next() {
		var d remote.Document

		var raw []byte
		if err := rows.Scan(&d.ID, &raw); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		d.Data = raw
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func (s *Store) Subscribe(
	ctx context.Context,
	coll string,
	onSnapshot func(remote.Snapshot),
	onError func(error),
) (remote.Unsubscribe, error) {
	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return nil, fmt.Errorf("connecting listener: %w", translate(err))
	}

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listening for changes: %w", translate(err))
	}

	subCtx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer conn.Close(context.Background())

		fail := func(err error) {
			if subCtx.Err() == nil && onError != nil {
				onError(err)
			}
		}

		snap, err := s.snapshot(subCtx, coll)
		if err != nil {
			fail(err)
			return
		}

		onSnapshot(snap)

		for {
			n, err := conn.WaitForNotification(subCtx)
			if err != nil {
				fail(fmt.Errorf("waiting for notification: %w", translate(err)))
				return
			}

			if n.Payload != coll {
				continue
			}

			snap, err := s.snapshot(subCtx, coll)
			if err != nil {
				fail(err)
				return
			}

			onSnapshot(snap)
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			cancel()
			<-exited
		})
	}, nil
}

func (s *Store) snapshot(ctx context.Context, coll string) (remote.Snapshot, error) {
	docs, err := s.Query(ctx, coll, nil)
	if err != nil {
		return remote.Snapshot{}, err
	}

	snap := remote.Snapshot{Collection: coll, Entries: make([]remote.Entry, len(docs))}
	for i, d := range docs {
		snap.Entries[i] = remote.Entry{Key: d.ID, Value: d.Data}
	}

	return snap, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return remote.ErrNotFound
	}

	return nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodePermissionDenied {
		return fmt.Errorf("%w: %s", remote.ErrPermissionDenied, pgErr.Message)
	}

	return err
}
