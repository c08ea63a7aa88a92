package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Service is the user directory: registration, login and role management.
// Roles are carried in issued tokens, so a role change applies from the
// user's next login.
type Service struct {
	users  repository.UserDB
	tokens *TokenIssuer
	now    func() time.Time
}

// NewIdentityService creates a new Service instance
func NewIdentityService(users repository.UserDB, tokens *TokenIssuer) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with the default role
func (s *Service) Register(ctx context.Context, email, name, password string) (model.User, error) {
	return s.create(ctx, email, name, password, model.RoleUser)
}

func (s *Service) create(ctx context.Context, email, name, password string, role model.Role) (model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if !strings.Contains(email, "@") || name == "" {
		return model.User{}, fmt.Errorf("identity: %w - valid email and name are required", auctionerrors.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return model.User{}, fmt.Errorf("identity: %w - password must be at least %d characters", auctionerrors.ErrInvalidInput, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("identity: error hashing password: %w", err)
	}

	user := model.User{
		UserID:       utils.GenerateID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("identity: error creating user: %w", err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.UserID, "role": user.Role})
	return user, nil
}

// Login verifies credentials and returns a bearer token for the user
func (s *Service) Login(ctx context.Context, email, password string) (string, model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNotFound) {
			return "", model.User{}, fmt.Errorf("identity: %w - invalid email or password", auctionerrors.ErrUnauthorized)
		}
		return "", model.User{}, fmt.Errorf("identity: error getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, fmt.Errorf("identity: %w - invalid email or password", auctionerrors.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it or
// promoting the existing user
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if user.Role == model.RoleAdmin {
			return nil
		}
		return s.users.UpdateUserRole(ctx, user.UserID, model.RoleAdmin)
	case errors.Is(err, auctionerrors.ErrNotFound):
		_, err = s.create(ctx, email, "Administrator", password, model.RoleAdmin)
		return err
	default:
		return fmt.Errorf("identity: error getting admin: %w", err)
	}
}

// ChangeRole switches a user between the user and officer roles. Admin only.
func (s *Service) ChangeRole(ctx context.Context, caller model.Caller, userID string, role model.Role) (model.User, error) {
	if caller.Role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("identity: %w - only admins may change roles", auctionerrors.ErrForbidden)
	}
	if role != model.RoleUser && role != model.RoleOfficer {
		return model.User{}, fmt.Errorf("identity: %w - role must be user or officer", auctionerrors.ErrInvalidInput)
	}
	if userID == "" || userID == caller.UserID {
		return model.User{}, fmt.Errorf("identity: %w - cannot change this user's role", auctionerrors.ErrInvalidInput)
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("identity: error getting user: %w", err)
	}
	if target.Role == model.RoleAdmin {
		return model.User{}, fmt.Errorf("identity: %w - admin roles are not managed here", auctionerrors.ErrForbidden)
	}
	if err := s.users.UpdateUserRole(ctx, userID, role); err != nil {
		return model.User{}, fmt.Errorf("identity: error updating role: %w", err)
	}

	target.Role = role
	utils.Info("user role changed", map[string]any{
		"user_id":  userID,
		"role":     role,
		"admin_id": caller.UserID,
	})
	return target, nil
}

// SearchUsers returns users whose name or email contains query, ignoring case.
// An empty query returns everyone. Admin only.
func (s *Service) SearchUsers(ctx context.Context, caller model.Caller, query string) ([]model.User, error) {
	if caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("identity: %w - only admins may search users", auctionerrors.ErrForbidden)
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: error listing users: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users, nil
	}
	matched := make([]model.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), query) || strings.Contains(u.Email, query) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
