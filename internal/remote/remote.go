// Package remote defines the boundary of the document store that backs both
// front ends: per-owner keyed collections with live subscriptions, and
// read-only catalog collections queried once per screen visit.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPath      = errors.New("invalid path")
)

// Entry is one child of a collection as delivered by the store.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Snapshot is the full state of a collection at one point in time. Entries
// keep the order in which the store holds them (insertion order).
type Snapshot struct {
	Collection string
	Entries    []Entry
}

// Document is a single result of a one-shot Query.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Filter narrows a Query to documents whose top-level Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Unsubscribe releases a subscription. Once it returns no further callbacks
// are made. Calling it more than once is safe.
type Unsubscribe func()

//go:generate mockgen -source=remote.go -destination=remote_mock.go -package=remote
type Store interface {
	// Push stores value under a new store-generated key inside collection
	// and returns that key.
	Push(ctx context.Context, collection string, value any) (string, error)
	// Set writes value at path, replacing any existing document.
	Set(ctx context.Context, path string, value any) error
	// Update merges patch into the top-level fields of the document at path.
	Update(ctx context.Context, path string, patch map[string]any) error
	Remove(ctx context.Context, path string) error

	// Subscribe delivers the current state of collection immediately and
	// again after every change. onError is called at most once and ends the
	// subscription.
	Subscribe(ctx context.Context, collection string, onSnapshot func(Snapshot), onError func(error)) (Unsubscribe, error)

	Query(ctx context.Context, collection string, filter *Filter) ([]Document, error)
}

// Join builds a store path from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split separates a document path into its collection and key.
func Split(path string) (collection, key string, err error) {
	path = strings.Trim(path, "/")

	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	return path[:i], path[i+1:], nil
}

// MergePatch applies patch onto the JSON object doc and returns the result.
func MergePatch(doc json.RawMessage, patch map[string]any) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
	}

	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", k, err)
		}

		fields[k] = raw
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return out, nil
}

// Matches reports whether the JSON object doc satisfies filter. A nil filter
// matches everything.
func Matches(doc json.RawMessage, filter *Filter) bool {
	if filter == nil {
		return true
	}

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false
	}

	got, ok := fields[filter.Field]
	if !ok {
		return false
	}

	want, err := normalize(filter.Value)
	if err != nil {
		return false
	}

	return fmt.Sprint(got) == fmt.Sprint(want)
}

// normalize round-trips v through JSON so it compares like a decoded field.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}
