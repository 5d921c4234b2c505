// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON HTTP API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the infrastructure handlers.
type Handlers struct {
	db Pinger
}

// New creates a new Handlers instance.
func New(db Pinger) *Handlers {
	return &Handlers{db: db}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		slog.ErrorContext(c.Request().Context(), "health_check_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// MessageResponse is a success envelope carrying a human-readable message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse is a success envelope carrying a resource.
type DataResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, MessageResponse{Success: true, Message: msg})
}

func data(c echo.Context, status int, v any) error {
	return c.JSON(status, DataResponse{Success: true, Data: v})
}

func list[T any](c echo.Context, items []T) error {
	count := len(items)
	return c.JSON(http.StatusOK, DataResponse{Success: true, Count: &count, Data: items})
}
