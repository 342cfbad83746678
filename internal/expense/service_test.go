package expense_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/expense"
	"github.com/MrJamesThe3rd/tally/internal/remote"
)

var fixedNow = time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)

func newService(m *remote.MockStore) *expense.Service {
	return expense.NewService(m, expense.WithClock(func() time.Time { return fixedNow }))
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    expense.CreateParams
		setupMock func(m *remote.MockStore)
		wantID    string
		wantErr   error
	}

	valid := expense.CreateParams{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    expense.CategoryFood,
		Description: "  Groceries ",
	}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Push(gomock.Any(), "expenses/u1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, value any) (string, error) {
						raw, err := json.Marshal(value)
						require.NoError(t, err)
						assert.JSONEq(t, `{
							"amount": "12.5",
							"category": "Food",
							"description": "Groceries",
							"date": "2024-01-05T10:00:00Z"
						}`, string(raw))

						return "rec-1", nil
					})
			},
			wantID: "rec-1",
		},
		{
			name:    "ZeroAmount",
			params:  expense.CreateParams{Amount: decimal.Zero, Category: expense.CategoryFood, Description: "x"},
			wantErr: expense.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			params:  expense.CreateParams{Amount: decimal.NewFromInt(-3), Category: expense.CategoryFood, Description: "x"},
			wantErr: expense.ErrInvalidAmount,
		},
		{
			name:    "BlankDescription",
			params:  expense.CreateParams{Amount: decimal.NewFromInt(3), Category: expense.CategoryFood, Description: "   "},
			wantErr: expense.ErrEmptyDescription,
		},
		{
			name:    "UnknownCategory",
			params:  expense.CreateParams{Amount: decimal.NewFromInt(3), Category: "Gifts", Description: "x"},
			wantErr: expense.ErrUnknownCategory,
		},
		{
			name:   "RemoteError",
			params: valid,
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Push(gomock.Any(), "expenses/u1", gomock.Any()).
					Return("", remote.ErrPermissionDenied)
			},
			wantErr: remote.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := remote.NewMockStore(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}

			id, err := newService(store).Create(context.Background(), "u1", tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, id)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestService_CreateValidationErrorType(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	_, err := newService(store).Create(context.Background(), "u1", expense.CreateParams{
		Amount:   decimal.NewFromInt(1),
		Category: expense.CategoryRent,
	})

	var ve *expense.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "description", ve.Field)

	_, err = newService(store).Create(context.Background(), "", expense.CreateParams{})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "owner", ve.Field)
}

func TestService_Update(t *testing.T) {
	amount := decimal.RequireFromString("20")
	category := expense.CategoryTransport
	description := "Bus pass"
	blank := ""
	zero := decimal.Zero

	type testCase struct {
		name      string
		params    expense.UpdateParams
		setupMock func(m *remote.MockStore)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "AllFieldsWithoutDate",
			params: expense.UpdateParams{Amount: &amount, Category: &category, Description: &description},
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Update(gomock.Any(), "expenses/u1/rec-1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, patch map[string]any) error {
						assert.NotContains(t, patch, "date")
						assert.Equal(t, amount, patch["amount"])
						assert.Equal(t, category, patch["category"])
						assert.Equal(t, description, patch["description"])

						return nil
					})
			},
		},
		{
			name:   "SingleField",
			params: expense.UpdateParams{Category: &category},
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Update(gomock.Any(), "expenses/u1/rec-1", map[string]any{"category": category}).
					Return(nil)
			},
		},
		{
			name:   "NothingToChange",
			params: expense.UpdateParams{},
		},
		{
			name:    "BlankDescription",
			params:  expense.UpdateParams{Description: &blank},
			wantErr: expense.ErrEmptyDescription,
		},
		{
			name:    "ZeroAmount",
			params:  expense.UpdateParams{Amount: &zero, Description: &description},
			wantErr: expense.ErrInvalidAmount,
		},
		{
			name:   "Missing",
			params: expense.UpdateParams{Description: &description},
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Update(gomock.Any(), "expenses/u1/rec-1", gomock.Any()).
					Return(remote.ErrNotFound)
			},
			wantErr: remote.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := remote.NewMockStore(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}

			err := newService(store).Update(context.Background(), "u1", "rec-1", tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	gomock.InOrder(
		store.EXPECT().Remove(gomock.Any(), "expenses/u1/rec-1").Return(nil),
		store.EXPECT().Remove(gomock.Any(), "expenses/u1/rec-1").Return(remote.ErrNotFound),
	)

	svc := newService(store)

	require.NoError(t, svc.Delete(context.Background(), "u1", "rec-1"))

	err := svc.Delete(context.Background(), "u1", "rec-1")

	var re *expense.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "deleting", re.Op)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestService_ListAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	docs := []remote.Document{
		{ID: "a", Data: json.RawMessage(`{"amount":"3.5","category":"Food","description":"Tea","date":"2024-01-02T08:00:00Z"}`)},
		{ID: "bad", Data: json.RawMessage(`{"amount":`)},
		{ID: "b", Data: json.RawMessage(`{"amount":42,"category":"Rent","description":"Flat","date":"2024-01-03T08:00:00Z"}`)},
	}

	store.EXPECT().Query(gomock.Any(), "expenses/u1", nil).Return(docs, nil).Times(3)

	svc := newService(store)

	records, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.True(t, decimal.NewFromInt(42).Equal(records[1].Amount))

	got, err := svc.Get(context.Background(), "u1", "b")
	require.NoError(t, err)
	assert.Equal(t, "Flat", got.Description)

	_, err = svc.Get(context.Background(), "u1", "zzz")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestService_ListRemoteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	store.EXPECT().Query(gomock.Any(), "expenses/u1", nil).Return(nil, errors.New("offline"))

	_, err := newService(store).Get(context.Background(), "u1", "a")

	var re *expense.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "getting", re.Op)
}
