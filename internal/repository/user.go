// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/auisnexus/nexus/internal/models"
)

// CreateUser inserts a new user and reloads it with database defaults applied.
// Returns ErrDuplicate if the email is already taken (case-insensitive).
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Email = models.NormalizeEmail(user.Email)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, role, is_email_verified)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role, user.IsEmailVerified)
	if err != nil {
		return wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	created, err := r.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, models.NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByVerificationToken finds the user holding an unexpired verification token hash.
func (r *Repository) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE email_verification_token = ? AND email_verification_expire > ?`,
		tokenHash, now.UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByResetToken finds the user holding an unexpired password reset token hash.
func (r *Repository) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE reset_password_token = ? AND reset_password_expire > ?`,
		tokenHash, now.UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UpdateUser saves every mutable column of the user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET
			first_name = ?, last_name = ?, email = ?, password_hash = ?, role = ?,
			is_email_verified = ?,
			email_verification_token = ?, email_verification_expire = ?,
			reset_password_token = ?, reset_password_expire = ?,
			last_login = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role,
		user.IsEmailVerified,
		user.EmailVerificationToken, utcPtr(user.EmailVerificationExpire),
		user.ResetPasswordToken, utcPtr(user.ResetPasswordExpire),
		utcPtr(user.LastLogin), user.ID))
}

// SetEmailVerificationToken stores (or clears, when tokenHash is nil) the verification token.
func (r *Repository) SetEmailVerificationToken(ctx context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET email_verification_token = ?, email_verification_expire = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		tokenHash, utcPtr(expiresAt), userID))
}

// SetResetPasswordToken stores (or clears, when tokenHash is nil) the reset token.
func (r *Repository) SetResetPasswordToken(ctx context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET reset_password_token = ?, reset_password_expire = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		tokenHash, utcPtr(expiresAt), userID))
}

// ConsumeEmailVerificationToken marks the holder of an unexpired token as verified and
// clears the token in one statement, so a token can succeed only once.
func (r *Repository) ConsumeEmailVerificationToken(ctx context.Context, tokenHash string, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = 1,
			email_verification_token = NULL, email_verification_expire = NULL,
			updated_at = CURRENT_TIMESTAMP
		 WHERE email_verification_token = ? AND email_verification_expire > ?`,
		tokenHash, now.UTC()))
}

// ConsumeResetPasswordToken sets a new password hash for the holder of an unexpired
// reset token and clears the token in one statement.
func (r *Repository) ConsumeResetPasswordToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?,
			reset_password_token = NULL, reset_password_expire = NULL,
			updated_at = CURRENT_TIMESTAMP
		 WHERE reset_password_token = ? AND reset_password_expire > ?`,
		passwordHash, tokenHash, now.UTC()))
}

// UpdateUserPassword updates a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id))
}

// UpdateUserDetails updates the profile fields of a user.
func (r *Repository) UpdateUserDetails(ctx context.Context, id int64, firstName, lastName, email string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		firstName, lastName, models.NormalizeEmail(email), id))
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id))
}

// ListUsers returns all users ordered by creation date (newest first).
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, err
	}
	return users, nil
}

// CountAdmins returns the number of admin users.
func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = 'admin'`)
	return count, err
}

// SetUserRole changes a user's role. Demoting the only admin fails with ErrLastAdmin;
// the admin count is checked inside the UPDATE itself.
func (r *Repository) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		   AND (? = 'admin' OR role <> 'admin' OR (SELECT COUNT(*) FROM users WHERE role = 'admin') > 1)`,
		role, id, role)
	if err != nil {
		return wrapError(err)
	}
	return r.diagnoseAdminGuard(ctx, res, id)
}

// DeleteUser removes a user. Deleting the only admin fails with ErrLastAdmin.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users
		 WHERE id = ?
		   AND (role <> 'admin' OR (SELECT COUNT(*) FROM users WHERE role = 'admin') > 1)`,
		id)
	if err != nil {
		return wrapError(err)
	}
	return r.diagnoseAdminGuard(ctx, res, id)
}

func (r *Repository) diagnoseAdminGuard(ctx context.Context, res interface{ RowsAffected() (int64, error) }, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetUserByID(ctx, id); err != nil {
		return err
	}
	return ErrLastAdmin
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
