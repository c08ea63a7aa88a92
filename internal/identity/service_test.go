package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var adminCaller = model.Caller{UserID: "admin-id", Role: model.RoleAdmin}

func newTestIdentity(t *testing.T) (*Service, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	return NewIdentityService(repo, NewTokenIssuer("test-secret", time.Hour)), repo
}

// Tests Register
func TestIdentityService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _ := newTestIdentity(t)
	_, err := service.Register(ctx, "taken@example.com", "Taken", "secret123")
	require.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		userName      string
		password      string
		expectedError error
	}{
		{name: "valid_user", email: "Alice@Example.com ", userName: "Alice", password: "secret123"},
		{name: "email_taken_any_case", email: "TAKEN@example.com", userName: "Other", password: "secret123", expectedError: auctionerrors.ErrEmailTaken},
		{name: "invalid_email", email: "alice", userName: "Alice", password: "secret123", expectedError: auctionerrors.ErrInvalidInput},
		{name: "empty_name", email: "bob@example.com", userName: " ", password: "secret123", expectedError: auctionerrors.ErrInvalidInput},
		{name: "short_password", email: "carol@example.com", userName: "Carol", password: "123", expectedError: auctionerrors.ErrInvalidInput},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user, err := service.Register(ctx, tc.email, tc.userName, tc.password)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "alice@example.com", user.Email)
			require.Equal(t, model.RoleUser, user.Role)
			require.NotEqual(t, tc.password, user.PasswordHash)
			require.NotEmpty(t, user.UserID)
		})
	}
}

// Tests Login and the issued token
func TestIdentityService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _ := newTestIdentity(t)
	registered, err := service.Register(ctx, "dave@example.com", "Dave", "secret123")
	require.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		expectedError error
	}{
		{name: "valid_credentials", email: "DAVE@example.com", password: "secret123"},
		{name: "wrong_password", email: "dave@example.com", password: "nope12345", expectedError: auctionerrors.ErrUnauthorized},
		{name: "unknown_email", email: "eve@example.com", password: "secret123", expectedError: auctionerrors.ErrUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			token, user, err := service.Login(ctx, tc.email, tc.password)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				require.Empty(t, token)
				return
			}
			require.NoError(t, err)
			require.Equal(t, registered.UserID, user.UserID)

			caller, err := service.tokens.Parse(token)
			require.NoError(t, err)
			require.Equal(t, model.Caller{UserID: registered.UserID, Role: model.RoleUser}, caller)
		})
	}
}

// Tests ChangeRole
func TestIdentityService_ChangeRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name          string
		caller        model.Caller
		target        func(user model.User) string
		role          model.Role
		expectedError error
	}{
		{name: "promote_to_officer", caller: adminCaller, role: model.RoleOfficer},
		{name: "demote_to_user", caller: adminCaller, role: model.RoleUser},
		{name: "non_admin", caller: model.Caller{UserID: "x", Role: model.RoleOfficer}, role: model.RoleOfficer, expectedError: auctionerrors.ErrForbidden},
		{name: "grant_admin", caller: adminCaller, role: model.RoleAdmin, expectedError: auctionerrors.ErrInvalidInput},
		{name: "unknown_role", caller: adminCaller, role: "owner", expectedError: auctionerrors.ErrInvalidInput},
		{
			name:          "unknown_user",
			caller:        adminCaller,
			target:        func(model.User) string { return "missing" },
			role:          model.RoleOfficer,
			expectedError: auctionerrors.ErrNotFound,
		},
		{
			name:          "own_role",
			caller:        adminCaller,
			target:        func(model.User) string { return adminCaller.UserID },
			role:          model.RoleUser,
			expectedError: auctionerrors.ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, repo := newTestIdentity(t)
			user, err := service.Register(ctx, "frank@example.com", "Frank", "secret123")
			require.NoError(t, err)

			targetID := user.UserID
			if tc.target != nil {
				targetID = tc.target(user)
			}

			updated, err := service.ChangeRole(ctx, tc.caller, targetID, tc.role)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.role, updated.Role)

			stored, err := repo.GetUser(ctx, user.UserID)
			require.NoError(t, err)
			require.Equal(t, tc.role, stored.Role)
		})
	}
}

// Tests SearchUsers
func TestIdentityService_SearchUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _ := newTestIdentity(t)
	for _, u := range []struct{ email, name string }{
		{"grace@example.com", "Grace Hopper"},
		{"alan@example.org", "Alan Turing"},
		{"ada@example.com", "Ada Lovelace"},
	} {
		_, err := service.Register(ctx, u.email, u.name, "secret123")
		require.NoError(t, err)
	}

	tests := []struct {
		name          string
		caller        model.Caller
		query         string
		expectedCount int
		expectedError error
	}{
		{name: "empty_query_lists_all", caller: adminCaller, query: "", expectedCount: 3},
		{name: "name_match_any_case", caller: adminCaller, query: "TURING", expectedCount: 1},
		{name: "email_match", caller: adminCaller, query: "example.com", expectedCount: 2},
		{name: "no_match", caller: adminCaller, query: "nobody", expectedCount: 0},
		{name: "non_admin", caller: model.Caller{UserID: "x", Role: model.RoleUser}, query: "", expectedError: auctionerrors.ErrForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			users, err := service.SearchUsers(ctx, tc.caller, tc.query)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Len(t, users, tc.expectedCount)
		})
	}
}

// Tests EnsureAdmin against a mocked user store
func TestIdentityService_EnsureAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name        string
		mockSetup   func(users *repository.MockUserDB)
		expectError bool
	}{
		{
			name: "creates_missing_admin",
			mockSetup: func(users *repository.MockUserDB) {
				users.EXPECT().GetUserByEmail(gomock.Any(), "root@example.com").Return(model.User{}, auctionerrors.ErrNotFound)
				users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, user model.User) error {
						require.Equal(t, model.RoleAdmin, user.Role)
						require.Equal(t, "root@example.com", user.Email)
						return nil
					})
			},
		},
		{
			name: "promotes_existing_user",
			mockSetup: func(users *repository.MockUserDB) {
				users.EXPECT().GetUserByEmail(gomock.Any(), "root@example.com").
					Return(model.User{UserID: "u1", Role: model.RoleUser}, nil)
				users.EXPECT().UpdateUserRole(gomock.Any(), "u1", model.RoleAdmin).Return(nil)
			},
		},
		{
			name: "existing_admin_untouched",
			mockSetup: func(users *repository.MockUserDB) {
				users.EXPECT().GetUserByEmail(gomock.Any(), "root@example.com").
					Return(model.User{UserID: "u1", Role: model.RoleAdmin}, nil)
			},
		},
		{
			name: "store_failure",
			mockSetup: func(users *repository.MockUserDB) {
				users.EXPECT().GetUserByEmail(gomock.Any(), "root@example.com").
					Return(model.User{}, errors.New("connection refused"))
			},
			expectError: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			users := repository.NewMockUserDB(ctrl)
			tc.mockSetup(users)
			service := NewIdentityService(users, NewTokenIssuer("test-secret", time.Hour))

			err := service.EnsureAdmin(ctx, "Root@Example.com", "secret123")
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
