package identity

import (
	"errors"
	"fmt"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload: the user ID as subject plus the role
// asserted for the lifetime of the token
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC bearer tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for the given secret and token lifetime
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for user
func (t *TokenIssuer) Issue(user model.User) (string, error) {
	now := t.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("identity: failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the caller it identifies
func (t *TokenIssuer) Parse(tokenString string) (model.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return model.Caller{}, fmt.Errorf("identity: %w - invalid token", auctionerrors.ErrUnauthorized)
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return model.Caller{}, fmt.Errorf("identity: %w - invalid token claims", auctionerrors.ErrUnauthorized)
	}
	return model.Caller{UserID: claims.Subject, Role: claims.Role}, nil
}
