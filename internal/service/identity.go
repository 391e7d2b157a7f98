package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
	"github.com/ashroots/table-reservation/internal/utils"
)

// IdentityResolver finds a user by email or creates one.
type IdentityResolver struct {
	users      UserStore
	bcryptCost int
	log        zerolog.Logger
}

func NewIdentityResolver(users UserStore, bcryptCost int, log zerolog.Logger) *IdentityResolver {
	return &IdentityResolver{users: users, bcryptCost: bcryptCost, log: log}
}

// ResolveOrCreate returns the user registered under email, creating it
// with the given name, password and role when absent. An existing user is
// returned unchanged; the other arguments are ignored for it.
//
// When a concurrent caller inserts the same email first, the unique index
// rejects this insert and the winner is read back and returned instead.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, tx database.DBTX, name, email, password string, role model.Role) (model.User, error) {
	email = strings.TrimSpace(email)
	u, err := r.users.GetByEmailTx(ctx, tx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if role == "" {
		role = model.RoleCustomer
	}
	hash, err := utils.HashPassword(password, r.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	nu := model.User{Name: strings.TrimSpace(name), Email: email, PasswordHash: hash, Role: role}
	if err := r.users.CreateTx(ctx, tx, &nu); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, fmt.Errorf("create user: %w", err)
		}
		r.log.Debug().Str("email", email).Msg("user created concurrently; using existing record")
		u, err := r.users.GetByEmailTx(ctx, tx, email)
		if err != nil {
			return model.User{}, fmt.Errorf("re-resolve user: %w", err)
		}
		return u, nil
	}
	r.log.Info().Uint64("user_id", nu.ID).Str("email", email).Msg("user created")
	return nu, nil
}
