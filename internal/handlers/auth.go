// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/auth"
	"codeberg.org/auisnexus/nexus/internal/config"
	"codeberg.org/auisnexus/nexus/internal/models"
	authsvc "codeberg.org/auisnexus/nexus/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	service *authsvc.Service
	config  *config.AuthConfig
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(service *authsvc.Service, cfg *config.AuthConfig) *AuthHandlers {
	return &AuthHandlers{service: service, config: cfg}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=50"`
	LastName  string `json:"lastName" validate:"required,notblank,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailRequest is the request body of the endpoints that only take an address.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the request body for completing a password reset.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// UpdateDetailsRequest is the request body for profile changes.
type UpdateDetailsRequest struct {
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// UpdatePasswordRequest is the request body for a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// SessionResponse carries a freshly issued session token.
type SessionResponse struct {
	Success   bool               `json:"success"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *models.PublicUser `json:"user,omitempty"`
}

// Register creates an account and mails the verification link.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.service.Register(c.Request().Context(), authsvc.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return message(c, http.StatusCreated, "Registration successful! Please check your email to verify your account.")
}

// VerifyEmail consumes the token from the emailed link.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	if err := h.service.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Email verified successfully")
}

// ResendVerification mails a new verification link. The response does not
// reveal whether the address belongs to an unverified account.
func (h *AuthHandlers) ResendVerification(c echo.Context) error {
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return message(c, http.StatusOK, "If an unverified account exists for this email, a new verification link has been sent.")
}

// Login issues a session token and sets it as a cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session)
	public := session.User.Public()
	return c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      &public,
	})
}

// ForgotPassword mails a password reset link.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Password reset email sent")
}

// ResetPassword sets a new password using the token from the emailed link.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ResetPassword(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Password reset successful")
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.service.Me(c.Request().Context(), current.ID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}

// UpdateDetails changes the profile of the authenticated user.
func (h *AuthHandlers) UpdateDetails(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	var req UpdateDetailsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateDetails(c.Request().Context(), current.ID, authsvc.DetailsParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}

// UpdatePassword changes the password and returns a fresh session token.
func (h *AuthHandlers) UpdatePassword(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	var req UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.service.UpdatePassword(c.Request().Context(), current.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout expires the session cookie. Bearer tokens held by the client stay
// valid until they expire.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, DataResponse{Success: true, Data: struct{}{}})
}

func (h *AuthHandlers) setSessionCookie(c echo.Context, session *authsvc.Session) {
	c.SetCookie(&http.Cookie{
		Name:     h.config.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser returns the user resolved by the Authenticate middleware.
func currentUser(c echo.Context) (*models.User, error) {
	if user := auth.GetUser(c.Request().Context()); user != nil {
		return user, nil
	}
	return nil, apperr.ErrUnauthorized
}
