package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/auth/store"
)

var testConfig = auth.Config{
	Secret:     []byte("test-secret"),
	TokenTTL:   time.Hour,
	BcryptCost: bcrypt.MinCost,
}

func TestService_SignUpValidation(t *testing.T) {
	type testCase struct {
		name      string
		email     string
		password  string
		setupMock func(m *auth.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			email:    "  Ana@Example.com ",
			password: "correct horse",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *auth.User) error {
						assert.Equal(t, "ana@example.com", u.Email)
						assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

						u.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name:     "InvalidEmail",
			email:    "not-an-email",
			password: "long enough",
			wantErr:  auth.ErrInvalidEmail,
		},
		{
			name:     "EmptyEmail",
			email:    "",
			password: "long enough",
			wantErr:  auth.ErrInvalidEmail,
		},
		{
			name:     "ShortPassword",
			email:    "ana@example.com",
			password: "short",
			wantErr:  auth.ErrWeakPassword,
		},
		{
			name:     "EmailTaken",
			email:    "ana@example.com",
			password: "long enough",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(auth.ErrEmailTaken)
			},
			wantErr: auth.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := auth.NewService(repo, auth.NewMockDenylist(ctrl), testConfig)
			session, err := svc.SignUp(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, session.Token)
			assert.NotEmpty(t, session.UserID)
		})
	}
}

func TestService_SignInAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(store.NewMemory(), auth.NewMemoryDenylist(), testConfig)

	up, err := svc.SignUp(ctx, "bo@example.com", "hunter2hunter2")
	require.NoError(t, err)

	in, err := svc.SignIn(ctx, "BO@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, up.UserID, in.UserID)
	assert.NotEqual(t, up.Token, in.Token)

	userID, err := svc.Authenticate(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, up.UserID, userID)

	_, err = svc.SignUp(ctx, "bo@example.com", "another password")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = svc.SignIn(ctx, "bo@example.com", "wrong password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_SignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(store.NewMemory(), auth.NewMemoryDenylist(), testConfig)

	first, err := svc.SignUp(ctx, "cy@example.com", "password123")
	require.NoError(t, err)

	second, err := svc.SignIn(ctx, "cy@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, first.Token))

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	assert.NoError(t, svc.SignOut(ctx, "garbage"))
}

func TestService_AuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	svc := auth.NewService(store.NewMemory(), auth.NewMemoryDenylist(), testConfig).
		WithClock(func() time.Time { return now })

	session, err := svc.SignUp(ctx, "di@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "tally",
		Subject:   session.UserID,
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	forged, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "tally",
		Subject:   session.UserID,
		ID:        "y",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty", token: ""},
		{name: "Malformed", token: "a.b.c"},
		{name: "WrongSecret", token: forged},
		{name: "NoneAlgorithm", token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}

	t.Run("Expired", func(t *testing.T) {
		now = now.Add(2 * time.Hour)

		_, err := svc.Authenticate(ctx, session.Token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestService_DenylistFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	denylist := auth.NewMockDenylist(ctrl)

	svc := auth.NewService(store.NewMemory(), denylist, testConfig)

	session, err := svc.SignUp(context.Background(), "ed@example.com", "password123")
	require.NoError(t, err)

	denylist.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.ErrorContains(t, err, "redis down")
	assert.NotErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	d := auth.NewMemoryDenylist()

	revoked, err := d.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "t1", time.Now().Add(time.Hour)))

	revoked, err = d.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
