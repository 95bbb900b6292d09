package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"docchat-backend/internal/shared/apperr"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
)

const (
	maxNameLen          = 15
	maxIDLen            = 64
	maxIdentifierLen    = 254
	invalidCredentials  = "Invalid credentials."
	serviceUnconfigured = "users service not configured"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Sign(userID string) (string, time.Time, error)
}

// Service implements registration, login and the admin listing.
type Service struct {
	Repo    Repo
	Hasher  PasswordHasher
	Signer  TokenSigner
	IsAdmin func(userID string) bool
	Now     func() time.Time
}

func NewService(repo Repo, hasher PasswordHasher, signer TokenSigner, isAdmin func(string) bool) *Service {
	return &Service{Repo: repo, Hasher: hasher, Signer: signer, IsAdmin: isAdmin, Now: time.Now}
}

// RegisterInput is the data supplied when creating an account.
type RegisterInput struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// LoginResult carries an issued token.
type LoginResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Register validates input, hashes the password and stores the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if s == nil || s.Repo == nil || s.Hasher == nil {
		return User{}, errors.New(serviceUnconfigured)
	}
	id := strings.TrimSpace(in.ID)
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateID(id); err != nil {
		return User{}, err
	}
	if name == "" {
		telemetry.Warn("register.rejected", map[string]any{"user_id": id, "reason": "empty_name"})
		return User{}, apperr.Validation("User name cannot be empty!", nil)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		telemetry.Warn("register.rejected", map[string]any{"user_id": id, "reason": "name_too_long"})
		return User{}, apperr.Validation("User name is too long!", nil)
	}
	if in.Password == "" {
		return User{}, apperr.Validation("Password cannot be empty!", nil)
	}

	telemetry.Info("register.attempt", map[string]any{"user_id": id, "user_name": name})

	existing, err := s.Repo.FindConflict(ctx, id, email)
	switch {
	case err == nil:
		return User{}, conflictFor(existing, id, email)
	case !errors.Is(err, ErrNotFound):
		return User{}, apperr.Internal("Unexpected server error", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return User{}, apperr.Internal("Unexpected server error", fmt.Errorf("hash password: %w", err))
	}

	role := RoleUser
	if s.IsAdmin != nil && s.IsAdmin(id) {
		role = RoleAdmin
	}
	user := User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		RegisteredAt: s.now(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			telemetry.Warn("register.rejected", map[string]any{"user_id": id, "reason": "duplicate"})
			return User{}, apperr.Conflict("User ID or email is already registered!")
		}
		return User{}, apperr.Internal("Unexpected server error", err)
	}

	metrics.IncRegistrations()
	telemetry.Info("register.success", map[string]any{"user_id": id, "user_name": name, "role": string(role)})
	return user, nil
}

// Login verifies credentials and signs a token. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	if s == nil || s.Repo == nil || s.Hasher == nil || s.Signer == nil {
		return LoginResult{}, errors.New(serviceUnconfigured)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || utf8.RuneCountInString(identifier) > maxIdentifierLen {
		return LoginResult{}, apperr.Validation(
			fmt.Sprintf("identifier must be between 1 and %d characters", maxIdentifierLen), nil)
	}

	telemetry.Info("login.attempt", map[string]any{"identifier": identifier})

	user, err := s.Repo.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncLoginFailed()
			telemetry.Warn("login.failed", map[string]any{"identifier": identifier, "reason": "unknown_user"})
			return LoginResult{}, apperr.Unauthenticated(invalidCredentials)
		}
		return LoginResult{}, apperr.Internal("Unexpected server error", err)
	}

	ok, err := s.Hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, apperr.Internal("Unexpected server error", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		metrics.IncLoginFailed()
		telemetry.Warn("login.failed", map[string]any{"identifier": identifier, "reason": "wrong_password"})
		return LoginResult{}, apperr.Unauthenticated(invalidCredentials)
	}

	token, expiresAt, err := s.Signer.Sign(user.ID)
	if err != nil {
		return LoginResult{}, apperr.Internal("Unexpected server error", fmt.Errorf("sign token: %w", err))
	}
	telemetry.Info("login.success", map[string]any{"user_id": user.ID})
	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetByID loads a user, mapping a missing row to a 404.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New(serviceUnconfigured)
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.NotFound("User not found")
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("User not found")
		}
		return User{}, apperr.Internal("Unexpected server error", err)
	}
	return user, nil
}

// ListUsers returns every registered id when the caller holds the admin capability.
func (s *Service) ListUsers(ctx context.Context, callerID string) ([]string, error) {
	caller, err := s.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !CanListUsers(caller) {
		telemetry.Warn("users.list.forbidden", map[string]any{"user_id": callerID})
		return nil, apperr.Forbidden("Admins only")
	}
	ids, err := s.Repo.ListIDs(ctx)
	if err != nil {
		return nil, apperr.Internal("Unexpected server error", err)
	}
	telemetry.Info("users.list", map[string]any{"user_id": callerID, "total_users": len(ids)})
	return ids, nil
}

// SetRole changes a user's role. It backs the admin CLI.
func (s *Service) SetRole(ctx context.Context, userID string, role Role) error {
	if s == nil || s.Repo == nil {
		return errors.New(serviceUnconfigured)
	}
	if _, ok := ParseRole(string(role)); !ok {
		return apperr.Validation(fmt.Sprintf("unknown role %q", role), nil)
	}
	if err := s.Repo.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	telemetry.Info("users.role_changed", map[string]any{"user_id": userID, "role": string(role)})
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func validateID(id string) error {
	if id == "" {
		return apperr.Validation("User ID cannot be empty!", nil)
	}
	if len(id) > maxIDLen {
		return apperr.Validation("User ID is too long!", nil)
	}
	for _, r := range id {
		if r <= ' ' || r == 0x7f || r == '/' {
			return apperr.Validation("User ID contains invalid characters!", nil)
		}
	}
	return nil
}

func conflictFor(existing User, id, email string) error {
	if existing.ID == id {
		telemetry.Warn("register.rejected", map[string]any{"user_id": id, "reason": "duplicate_id"})
		return apperr.Conflict(fmt.Sprintf("UUID '%s' is already registered!", id))
	}
	telemetry.Warn("register.rejected", map[string]any{"user_id": id, "reason": "duplicate_email"})
	return apperr.Conflict(fmt.Sprintf("Email '%s' already exists!", email))
}
