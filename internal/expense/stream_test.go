package expense_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/expense"
	"github.com/MrJamesThe3rd/tally/internal/remote"
	"github.com/MrJamesThe3rd/tally/internal/remote/memory"
)

func TestStream_SnapshotsFollowInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := expense.NewService(store)

	sub, err := expense.NewStream(store, nil).Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	first := nextSnapshot(t, sub)
	assert.NotNil(t, first.Records)
	assert.Empty(t, first.Records)

	var ids []string

	for _, d := range []string{"Coffee", "Rent", "Train"} {
		id, err := svc.Create(ctx, "u1", expense.CreateParams{
			Amount:      decimal.NewFromInt(5),
			Category:    expense.CategoryFood,
			Description: d,
		})
		require.NoError(t, err)

		ids = append(ids, id)
	}

	snap := waitForRecords(t, sub, 3)
	for i, r := range snap.Records {
		assert.Equal(t, ids[i], r.ID)
	}

	assert.Equal(t, "Train", snap.Records[2].Description)
}

func TestStream_SkipsUndecodableEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Set(ctx, "expenses/u1/good", map[string]any{
		"amount": "4", "category": "Food", "description": "Bagel", "date": "2024-01-02T08:00:00Z",
	}))
	require.NoError(t, store.Set(ctx, "expenses/u1/bad", "not an object"))

	sub, err := expense.NewStream(store, nil).Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := nextSnapshot(t, sub)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "good", snap.Records[0].ID)
}

func TestService_UpdateKeepsStoredDate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	created := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
	svc := expense.NewService(store, expense.WithClock(func() time.Time { return created }))

	id, err := svc.Create(ctx, "u1", expense.CreateParams{
		Amount:      decimal.NewFromInt(10),
		Category:    expense.CategoryFood,
		Description: "Lunch",
	})
	require.NoError(t, err)

	description := "Team lunch"
	require.NoError(t, svc.Update(ctx, "u1", id, expense.UpdateParams{Description: &description}))

	got, err := svc.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", got.Description)
	assert.True(t, created.Equal(got.Date))
}

func TestStream_UnsubscribeReleasesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	released := 0

	store.EXPECT().
		Subscribe(gomock.Any(), "expenses/u1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, onSnapshot func(remote.Snapshot), _ func(error)) (remote.Unsubscribe, error) {
			onSnapshot(remote.Snapshot{Collection: "expenses/u1"})
			return func() { released++ }, nil
		})

	sub, err := expense.NewStream(store, nil).Subscribe(context.Background(), "u1")
	require.NoError(t, err)

	nextSnapshot(t, sub)

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, 1, released)
	assert.NoError(t, sub.Err())

	_, open := <-sub.Updates()
	assert.False(t, open)
}

func TestStream_ErrorEndsSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	boom := errors.New("permission revoked")

	store.EXPECT().
		Subscribe(gomock.Any(), "expenses/u1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ func(remote.Snapshot), onError func(error)) (remote.Unsubscribe, error) {
			onError(boom)
			return func() {}, nil
		})

	sub, err := expense.NewStream(store, nil).Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, open := <-sub.Updates()
	assert.False(t, open)

	var se *expense.SubscriptionError
	require.ErrorAs(t, sub.Err(), &se)
	assert.ErrorIs(t, sub.Err(), boom)
}

func TestStream_SubscribeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	store.EXPECT().
		Subscribe(gomock.Any(), "expenses/u1", gomock.Any(), gomock.Any()).
		Return(nil, remote.ErrPermissionDenied)

	_, err := expense.NewStream(store, nil).Subscribe(context.Background(), "u1")

	var se *expense.SubscriptionError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, remote.ErrPermissionDenied)
}

func TestStream_CancelledContextCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.New()

	sub, err := expense.NewStream(store, nil).Subscribe(ctx, "u1")
	require.NoError(t, err)

	nextSnapshot(t, sub)
	cancel()

	select {
	case _, open := <-sub.Updates():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after cancel")
	}

	assert.NoError(t, sub.Err())
}

func TestStream_ContextCancelledDuringSubscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	var released atomic.Int32

	store.EXPECT().
		Subscribe(gomock.Any(), "expenses/u1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ func(remote.Snapshot), _ func(error)) (remote.Unsubscribe, error) {
			cancel()
			return func() { released.Add(1) }, nil
		})

	sub, err := expense.NewStream(store, nil).Subscribe(ctx, "u1")
	require.NoError(t, err)

	select {
	case _, open := <-sub.Updates():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after cancel")
	}

	sub.Unsubscribe()

	assert.Equal(t, int32(1), released.Load())
	assert.NoError(t, sub.Err())
}

func TestStream_DecodesStoredDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	raw := json.RawMessage(`{"amount":"19.99","category":"Utilities","description":"Power","date":"2024-02-10T18:45:00.123456789Z"}`)
	require.NoError(t, store.Set(ctx, "expenses/u1/p1", raw))

	sub, err := expense.NewStream(store, nil).Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := nextSnapshot(t, sub)
	require.Len(t, snap.Records, 1)

	r := snap.Records[0]
	assert.Equal(t, "19.99", r.Amount.String())
	assert.Equal(t, expense.CategoryUtilities, r.Category)
	assert.Equal(t, 123456789, r.Date.Nanosecond())
}

func nextSnapshot(t *testing.T, sub *expense.Subscription) expense.Snapshot {
	t.Helper()

	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "updates closed: %v", sub.Err())
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	return expense.Snapshot{}
}

// waitForRecords reads snapshots until one holds n records. Intermediate
// snapshots may be collapsed.
func waitForRecords(t *testing.T, sub *expense.Subscription, n int) expense.Snapshot {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for {
		select {
		case snap, ok := <-sub.Updates():
			require.True(t, ok, "updates closed: %v", sub.Err())

			if len(snap.Records) == n {
				return snap
			}
		case <-deadline:
			t.Fatalf("never saw %d records", n)
		}
	}
}
