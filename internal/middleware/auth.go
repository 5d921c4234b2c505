// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides the echo middleware guarding the API.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/auth"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"codeberg.org/auisnexus/nexus/internal/token"
	"github.com/labstack/echo/v4"
)

// UserLoader is an interface for loading full user data
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate resolves the session token from the Authorization header or the
// session cookie, verifies it and loads the user it names. Requests without a
// valid token, or whose user no longer exists, fail with Unauthorized.
func Authenticate(issuer *token.Issuer, users UserLoader, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c, cookieName)
			if raw == "" {
				return apperr.ErrUnauthorized
			}

			claims, err := issuer.Verify(raw)
			if err != nil {
				slog.DebugContext(c.Request().Context(), "session_rejected", "error", err)
				return apperr.ErrUnauthorized
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, claims.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrUnauthorized
			}
			if err != nil {
				return err
			}

			c.SetRequest(c.Request().WithContext(auth.SetUser(ctx, user, claims)))
			return next(c)
		}
	}
}

// Authorize requires the authenticated user to hold exactly role.
// It must run after Authenticate.
func Authorize(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := auth.GetUser(c.Request().Context())
			if user == nil {
				return apperr.ErrUnauthorized
			}
			if user.Role != role {
				return apperr.New(apperr.KindForbidden,
					"User role "+string(user.Role)+" is not authorized to access this route")
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context, cookieName string) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(value)
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
