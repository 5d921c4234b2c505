// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/services/users"
	"github.com/labstack/echo/v4"
)

// UserHandlers contains the admin handlers for member accounts.
type UserHandlers struct {
	service *users.Service
}

func NewUsers(service *users.Service) *UserHandlers {
	return &UserHandlers{service: service}
}

// UpdateUserRequest is the request body for an admin edit of a user.
type UpdateUserRequest struct {
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (h *UserHandlers) List(c echo.Context) error {
	all, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return list(c, all)
}

func (h *UserHandlers) Get(c echo.Context) error {
	id, err := paramID(c, "id", users.ErrUserNotFound)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}

func (h *UserHandlers) Update(c echo.Context) error {
	id, err := paramID(c, "id", users.ErrUserNotFound)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), id, users.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}

func (h *UserHandlers) Delete(c echo.Context) error {
	id, err := paramID(c, "id", users.ErrUserNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return message(c, http.StatusOK, "User removed")
}
