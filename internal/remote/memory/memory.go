// Package memory is an in-process remote.Store. It keeps every collection in
// insertion order and fans snapshots out to subscribers on their own
// goroutines, collapsing bursts into the newest state.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/remote"
)

type collection struct {
	keys []string
	docs map[string]json.RawMessage
}

type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	subs        map[string]map[*subscriber]struct{}
	newKey      func() string
}

func New() *Store {
	return &Store{
		collections: make(map[string]*collection),
		subs:        make(map[string]map[*subscriber]struct{}),
		newKey:      pushKey,
	}
}

// pushKey returns a time-ordered key so that key order follows insertion order.
func pushKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Store) Push(ctx context.Context, coll string, value any) (string, error) {
	key := s.newKey()
	if err := s.Set(ctx, remote.Join(coll, key), value); err != nil {
		return "", err
	}

	return key, nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(coll)
	if _, ok := c.docs[key]; !ok {
		c.keys = append(c.keys, key)
	}

	c.docs[key] = raw
	s.notifyLocked(coll)

	return nil
}

func (s *Store) Update(ctx context.Context, path string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return remote.ErrNotFound
	}

	doc, ok := c.docs[key]
	if !ok {
		return remote.ErrNotFound
	}

	merged, err := remote.MergePatch(doc, patch)
	if err != nil {
		return err
	}

	c.docs[key] = merged
	s.notifyLocked(coll)

	return nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	coll, key, err := remote.Split(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return remote.ErrNotFound
	}

	if _, ok := c.docs[key]; !ok {
		return remote.ErrNotFound
	}

	delete(c.docs, key)
	c.keys = slices.DeleteFunc(c.keys, func(k string) bool { return k == key })
	s.notifyLocked(coll)

	return nil
}

func (s *Store) Query(ctx context.Context, coll string, filter *remote.Filter) ([]remote.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return []remote.Document{}, nil
	}

	docs := make([]remote.Document, 0, len(c.keys))

	for _, k := range c.keys {
		if !remote.Matches(c.docs[k], filter) {
			continue
		}

		docs = append(docs, remote.Document{ID: k, Data: c.docs[k]})
	}

	return docs, nil
}

func (s *Store) Subscribe(
	ctx context.Context,
	coll string,
	onSnapshot func(remote.Snapshot),
	_ func(error),
) (remote.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscriber{
		onSnapshot: onSnapshot,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}

	s.mu.Lock()

	if s.subs[coll] == nil {
		s.subs[coll] = make(map[*subscriber]struct{})
	}

	s.subs[coll][sub] = struct{}{}
	sub.offer(s.snapshotLocked(coll))

	s.mu.Unlock()

	go sub.run(ctx)

	unsubscribe := func() {
		sub.once.Do(func() {
			s.mu.Lock()
			delete(s.subs[coll], sub)
			s.mu.Unlock()

			close(sub.done)
			<-sub.exited
		})
	}

	return unsubscribe, nil
}

func (s *Store) collectionLocked(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]json.RawMessage)}
		s.collections[name] = c
	}

	return c
}

func (s *Store) snapshotLocked(coll string) remote.Snapshot {
	snap := remote.Snapshot{Collection: coll, Entries: []remote.Entry{}}

	c, ok := s.collections[coll]
	if !ok {
		return snap
	}

	for _, k := range c.keys {
		snap.Entries = append(snap.Entries, remote.Entry{Key: k, Value: c.docs[k]})
	}

	return snap
}

func (s *Store) notifyLocked(coll string) {
	if len(s.subs[coll]) == 0 {
		return
	}

	snap := s.snapshotLocked(coll)
	for sub := range s.subs[coll] {
		sub.offer(snap)
	}
}

// subscriber holds at most one undelivered snapshot. A newer snapshot
// replaces an undelivered one. The in-process store never fails, so
// subscribers have no error path.
type subscriber struct {
	onSnapshot func(remote.Snapshot)

	mu      sync.Mutex
	pending *remote.Snapshot

	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

func (sub *subscriber) offer(snap remote.Snapshot) {
	sub.mu.Lock()
	sub.pending = &snap
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) take() *remote.Snapshot {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	p := sub.pending
	sub.pending = nil

	return p
}

func (sub *subscriber) run(ctx context.Context) {
	defer close(sub.exited)

	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		case <-sub.wake:
		}

		select {
		case <-sub.done:
			return
		default:
		}

		if p := sub.take(); p != nil {
			sub.onSnapshot(*p)
		}
	}
}
