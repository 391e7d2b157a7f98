package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
	"github.com/ashroots/table-reservation/internal/utils"
)

// AccountService handles explicit signup, login and user lookups.
type AccountService struct {
	users       UserStore
	bcryptCost  int
	log         zerolog.Logger
	stepTimeout time.Duration
}

func NewAccountService(users UserStore, bcryptCost int, log zerolog.Logger, stepTimeout time.Duration) *AccountService {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &AccountService{users: users, bcryptCost: bcryptCost, log: log, stepTimeout: stepTimeout}
}

// SignupRequest is the POST /users body.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer account. Admin accounts are only seeded at
// startup.
func (s *AccountService) Register(ctx context.Context, req SignupRequest) (model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return model.User{}, invalid("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return model.User{}, invalid("email is not valid")
	}
	if len(req.Password) < 6 {
		return model.User{}, invalid("password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleCustomer}

	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Authenticate returns the user for email when password matches. Accounts
// without a password (created implicitly by a booking) cannot log in.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, invalid("email and password are required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetByEmail looks one user up.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, invalid("email is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.users.GetByEmail(ctx, email)
}

// List returns every user.
func (s *AccountService) List(ctx context.Context) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.users.List(ctx)
}

// EnsureAdmin creates the admin account if no user holds email yet. An
// existing user is left untouched whatever its role.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if name == "" {
		name = "Administrator"
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleAdmin}
	if err := s.users.Create(ctx, &u); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	s.log.Info().Str("email", email).Msg("admin account seeded")
	return nil
}
