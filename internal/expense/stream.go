package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrJamesThe3rd/tally/internal/remote"
)

const collectionPrefix = "expenses"

// Collection is the store collection holding ownerID's records.
func Collection(ownerID string) string {
	return remote.Join(collectionPrefix, ownerID)
}

// Snapshot is the full, ordered record list of one owner.
type Snapshot struct {
	Records []Record
}

// Stream turns the owner's remote collection into record snapshots.
type Stream struct {
	store  remote.Store
	logger *slog.Logger
}

func NewStream(store remote.Store, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}

	return &Stream{store: store, logger: logger}
}

// Subscribe starts listening to ownerID's records. Cancelling ctx has the
// same effect as calling Unsubscribe.
func (s *Stream) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	sub := &Subscription{
		updates: make(chan Snapshot, 1),
		logger:  s.logger.With("owner", ownerID),
	}

	release, err := s.store.Subscribe(ctx, Collection(ownerID), sub.deliver, sub.fail)
	if err != nil {
		return nil, &SubscriptionError{Err: fmt.Errorf("subscribing: %w", err)}
	}

	sub.release = release

	// AfterFunc runs Unsubscribe at once on its own goroutine when ctx is
	// already done, so stop is published under mu.
	stop := context.AfterFunc(ctx, sub.Unsubscribe)

	sub.mu.Lock()
	sub.stop = stop
	sub.mu.Unlock()

	return sub, nil
}

// Subscription delivers snapshots until it is unsubscribed or fails. A
// consumer that falls behind only sees the newest snapshot.
type Subscription struct {
	updates chan Snapshot
	logger  *slog.Logger

	release remote.Unsubscribe
	stop    func() bool
	once    sync.Once

	mu     sync.Mutex
	closed bool
	err    *SubscriptionError
}

// Updates is closed when the subscription ends.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Err returns the error that ended the subscription, or nil if it was
// unsubscribed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil {
		return nil
	}

	return s.err
}

// Unsubscribe releases the remote listener. Only the first call has an effect.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()

		if stop != nil {
			stop()
		}

		if s.release != nil {
			s.release()
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.closed {
			s.closed = true
			close(s.updates)
		}
	})
}

func (s *Subscription) deliver(snap remote.Snapshot) {
	records := make([]Record, 0, len(snap.Entries))

	for _, e := range snap.Entries {
		r, err := decodeRecord(e.Key, e.Value)
		if err != nil {
			s.logger.Warn("skipping undecodable record", "key", e.Key, "error", err)
			continue
		}

		records = append(records, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case <-s.updates:
	default:
	}

	s.updates <- Snapshot{Records: records}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.logger.Error("expense subscription failed", "error", err)

	s.err = &SubscriptionError{Err: err}
	s.closed = true
	close(s.updates)
}
