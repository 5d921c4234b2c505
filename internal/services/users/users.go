// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package users implements admin management of member accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
)

// ErrUserNotFound is returned for unknown or malformed user ids.
var ErrUserNotFound = apperr.New(apperr.KindNotFound, "User not found")

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// UpdateParams holds an admin edit of a user. Empty fields are left unchanged.
type UpdateParams struct {
	FirstName string
	LastName  string
	Role      models.Role
}

// List returns all users, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update changes names and role. Demoting the last admin fails with LastAdmin
// and leaves the names untouched as well.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Role != "" {
		if !params.Role.Valid() {
			return nil, apperr.New(apperr.KindValidation, "Role must be one of user, admin")
		}
		if params.Role != user.Role {
			if err := s.repo.SetUserRole(ctx, id, params.Role); err != nil {
				return nil, mapError(err)
			}
			slog.InfoContext(ctx, "user_role_changed", "user_id", id, "role", params.Role)
		}
	}

	firstName := user.FirstName
	if v := strings.TrimSpace(params.FirstName); v != "" {
		firstName = v
	}
	lastName := user.LastName
	if v := strings.TrimSpace(params.LastName); v != "" {
		lastName = v
	}
	if firstName != user.FirstName || lastName != user.LastName {
		if err := s.repo.UpdateUserDetails(ctx, id, firstName, lastName, user.Email); err != nil {
			return nil, mapError(err)
		}
	}

	return s.Get(ctx, id)
}

// Delete removes a user and their registrations. The last admin cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return mapError(err)
	}
	slog.InfoContext(ctx, "user_deleted", "user_id", id)
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrLastAdmin):
		return apperr.ErrLastAdmin
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.ErrDuplicateIdentity
	}
	return fmt.Errorf("failed to update user: %w", err)
}
