// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/auisnexus/nexus/internal/database"
	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = fmt.Errorf("record not found: %w", sql.ErrNoRows)
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
	// ErrEventClosed is returned when a roster change targets a non-upcoming event.
	ErrEventClosed = errors.New("event is not open for registration")
	// ErrAlreadyRegistered is returned when the user is already on the roster.
	ErrAlreadyRegistered = errors.New("user already registered for event")
	// ErrNotRegistered is returned when the user is not on the roster.
	ErrNotRegistered = errors.New("user not registered for event")
	// ErrEventFull is returned when the roster has reached capacity.
	ErrEventFull = errors.New("event capacity reached")
	// ErrCapacityBelowRoster is returned when a capacity update would undercut the roster.
	ErrCapacityBelowRoster = errors.New("capacity below registered count")
	// ErrLastAdmin is returned when a change would leave no admin.
	ErrLastAdmin = errors.New("last remaining admin")
)

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying sqlx DB for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if database.IsUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// expectOne maps a zero-row result to ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
