package model

import (
	"strings"
	"time"
)

// Role is the account role stored in users.role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a free-form role to a known Role. An empty value yields
// RoleCustomer; anything unknown reports ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleCustomer:
		return RoleCustomer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents a row of the `users` table. Users are created on first
// booking or by explicit signup and are never deleted.
//
// Fields:
//
//	ID           – users.user_id
//	Name         – display name supplied at creation
//	Email        – unique business key
//	PasswordHash – bcrypt hash; empty for accounts created by a booking
//	               that did not carry a password
//	Role         – customer or admin
//	CreatedAt    – creation timestamp
type User struct {
	ID           uint64    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
