package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
)

// DefaultBcryptCost matches the cost used for stored hashes.
const DefaultBcryptCost = 10

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPendingApproval is returned for staff accounts not yet approved.
	ErrPendingApproval = errors.New("account pending approval")
)

type Service struct {
	users  UserRepository
	cost   int
	logger zerolog.Logger
}

func NewService(users UserRepository, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		cost:   DefaultBcryptCost,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Signup registers an unapproved staff account.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	return s.create(ctx, username, password, auth.RoleStaff, false)
}

// CreateAdmin registers an approved admin account.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*User, error) {
	return s.create(ctx, username, password, auth.RoleAdmin, true)
}

func (s *Service) create(ctx context.Context, username, password, role string, approved bool) (*User, error) {
	if username == "" || password == "" {
		return nil, apperr.NewValidation("username and password are required")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperr.NewConflict("username already exists")
	} else if !apperr.IsNotFound(err) {
		return nil, apperr.NewPersistence("look up username", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.NewValidation("password cannot be hashed")
	}
	u := &User{Username: username, PasswordHash: string(hash), Role: role, Approved: approved}
	if err := s.users.Create(ctx, u); err != nil {
		if apperr.IsConflict(err) {
			return nil, err
		}
		return nil, apperr.NewPersistence("create user", err)
	}
	s.logger.Info().Str("username", username).Str("role", role).Msg("account created")
	return u, nil
}

// Authenticate checks the password and the approval state.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if apperr.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.NewPersistence("look up user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("username", username).Msg("failed login")
		return nil, ErrInvalidCredentials
	}
	if !u.CanLogin() {
		return nil, ErrPendingApproval
	}
	return u, nil
}

func (s *Service) ListPending(ctx context.Context, actor auth.Identity) ([]*User, error) {
	users, err := s.users.ListPending(ctx)
	if err != nil {
		return nil, apperr.NewPersistence("list pending users", err)
	}
	return users, nil
}

// Approve marks the account approved. An unknown id is not an error.
func (s *Service) Approve(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if err := s.users.SetApproved(ctx, id, true); err != nil {
		return apperr.NewPersistence("approve user", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("user_id", id.String()).Msg("account approved")
	return nil
}

// Delete removes the account. An unknown id is not an error.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return apperr.NewPersistence("delete user", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("user_id", id.String()).Msg("account deleted")
	return nil
}
