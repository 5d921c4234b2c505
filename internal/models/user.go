// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// Role is the coarse authorization tag of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a member account. Token columns hold SHA256 hashes only.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID                      int64      `db:"id" json:"id"`
	FirstName               string     `db:"first_name" json:"firstName"`
	LastName                string     `db:"last_name" json:"lastName"`
	Email                   string     `db:"email" json:"email"`
	PasswordHash            string     `db:"password_hash" json:"-"`
	Role                    Role       `db:"role" json:"role"`
	IsEmailVerified         bool       `db:"is_email_verified" json:"isEmailVerified"`
	EmailVerificationToken  *string    `db:"email_verification_token" json:"-"`
	EmailVerificationExpire *time.Time `db:"email_verification_expire" json:"-"`
	ResetPasswordToken      *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpire     *time.Time `db:"reset_password_expire" json:"-"`
	LastLogin               *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Public returns the fields safe to hand to clients after login.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
	}
}

// PublicUser is the login payload representation of a user.
type PublicUser struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Role            Role   `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// UserSummary is the reduced user shape embedded in event responses.
type UserSummary struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Email     string `db:"email" json:"email"`
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
