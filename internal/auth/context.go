// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/auisnexus/nexus/internal/ctxkeys"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/token"
)

// SetUser stores the authenticated user and the claims that identified them.
func SetUser(ctx context.Context, user *models.User, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxkeys.User{}, user)
	return context.WithValue(ctx, ctxkeys.SessionClaims{}, claims)
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// GetClaims returns the session claims, or nil if not authenticated.
func GetClaims(ctx context.Context) *token.Claims {
	if claims, ok := ctx.Value(ctxkeys.SessionClaims{}).(*token.Claims); ok {
		return claims
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

// HasRole reports whether the authenticated user holds exactly role.
func HasRole(ctx context.Context, role models.Role) bool {
	user := GetUser(ctx)
	return user != nil && user.Role == role
}
