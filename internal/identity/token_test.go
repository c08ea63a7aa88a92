package identity

import (
	"testing"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	t.Parallel()

	user := model.User{UserID: "user-1", Role: model.RoleOfficer}
	issuer := NewTokenIssuer("secret", time.Hour)

	valid, err := issuer.Issue(user)
	require.NoError(t, err)

	expiredIssuer := NewTokenIssuer("secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(user)
	require.NoError(t, err)

	otherSecret, err := NewTokenIssuer("other", time.Hour).Issue(user)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := issuer.Issue(model.User{UserID: "user-1", Role: "superuser"})
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{name: "valid_token", token: valid},
		{name: "expired_token", token: expired, expectError: true},
		{name: "wrong_secret", token: otherSecret, expectError: true},
		{name: "none_algorithm", token: unsigned, expectError: true},
		{name: "unknown_role", token: badRole, expectError: true},
		{name: "garbage", token: "not-a-token", expectError: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			caller, err := issuer.Parse(tc.token)
			if tc.expectError {
				require.ErrorIs(t, err, auctionerrors.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.Caller{UserID: "user-1", Role: model.RoleOfficer}, caller)
		})
	}
}
