package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `user_id, name, email, password_hash, role, created_at`

// GetByEmail fetches a user by email. Matching follows the column
// collation; the value is only trimmed.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

// GetByEmailTx is GetByEmail inside the caller's transaction.
func (r *UserRepo) GetByEmailTx(ctx context.Context, tx database.DBTX, email string) (model.User, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		strings.TrimSpace(email))
	u, err := scanUser(row)
	return u, translate(err)
}

// Create inserts u and sets its generated ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return r.CreateTx(ctx, r.db, u)
}

// CreateTx inserts u inside the caller's transaction. A concurrent insert
// of the same email surfaces as ErrDuplicate.
func (r *UserRepo) CreateTx(ctx context.Context, tx database.DBTX, u *model.User) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		u.Name, strings.TrimSpace(u.Email), u.PasswordHash, string(u.Role))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (model.User, error) {
	var u model.User
	var role string
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return u, err
	}
	r, ok := model.ParseRole(role)
	if !ok {
		return u, fmt.Errorf("user %d: unknown role %q", u.ID, role)
	}
	u.Role = r
	return u, nil
}
