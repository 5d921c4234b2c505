// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/config"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"codeberg.org/auisnexus/nexus/internal/services/mail"
	"codeberg.org/auisnexus/nexus/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo              *repository.Repository
	mailer            mail.Sender
	tokens            *token.Issuer
	config            *config.AuthConfig
	baseURL           string
	frontendURL       string
	passwordValidator *PasswordValidator
	now               func() time.Time
}

func NewService(repo *repository.Repository, mailer mail.Sender, tokens *token.Issuer, cfg *config.Config) *Service {
	return &Service{
		repo:              repo,
		mailer:            mailer,
		tokens:            tokens,
		config:            &cfg.Auth,
		baseURL:           strings.TrimSuffix(cfg.Server.BaseURL, "/"),
		frontendURL:       strings.TrimSuffix(cfg.Server.FrontendURL, "/"),
		passwordValidator: DefaultPasswordValidator(cfg.Auth.MinPasswordLength),
		now:               time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// DetailsParams holds profile changes. Empty fields are left unchanged.
type DetailsParams struct {
	FirstName string
	LastName  string
	Email     string
}

// Session is an issued session token with the user it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// ValidatePassword checks a candidate password against the policy.
func (s *Service) ValidatePassword(password string, userAttributes ...string) error {
	result := s.passwordValidator.Validate(password, userAttributes...)
	if !result.Valid {
		return apperr.New(apperr.KindValidation, result.FirstMessage())
	}
	return nil
}

// Register creates an unverified account and mails a verification link.
// If delivery fails the account stays, without a pending token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := models.NormalizeEmail(params.Email)
	firstName := strings.TrimSpace(params.FirstName)
	lastName := strings.TrimSpace(params.LastName)

	switch {
	case firstName == "":
		return nil, apperr.New(apperr.KindValidation, "Please add a first name")
	case lastName == "":
		return nil, apperr.New(apperr.KindValidation, "Please add a last name")
	}

	if err := s.ValidatePassword(params.Password, firstName, lastName, email); err != nil {
		return nil, err
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, apperr.ErrDuplicateIdentity
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.InfoContext(ctx, "register_success", "user_id", user.ID, "email", user.Email)

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// VerifyEmail consumes a verification token.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	err := s.repo.ConsumeEmailVerificationToken(ctx, token.Hash(rawToken), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindInvalidOrExpiredToken, "Invalid or expired verification token")
	}
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	slog.InfoContext(ctx, "email_verified")
	return nil
}

// ResendVerification issues a fresh verification link for an unverified account.
// Unknown or already verified addresses succeed silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		slog.InfoContext(ctx, "resend_verification_skipped", "reason", "user_not_found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsEmailVerified {
		slog.InfoContext(ctx, "resend_verification_skipped", "user_id", user.ID, "reason", "already_verified")
		return nil
	}

	return s.sendVerification(ctx, user)
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.WarnContext(ctx, "login_failed", "email", models.NormalizeEmail(email), "reason", "user_not_found")
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "login_failed", "user_id", user.ID, "reason", "invalid_password")
		return nil, apperr.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		slog.WarnContext(ctx, "login_failed", "user_id", user.ID, "reason", "email_not_verified")
		return nil, apperr.ErrEmailNotVerified
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	lastLogin := now.UTC()
	user.LastLogin = &lastLogin

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "login_success", "user_id", user.ID)
	return session, nil
}

// ForgotPassword mails a password reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	lookup, err := token.Generate(s.now(), s.config.ResetTTL)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.repo.SetResetPasswordToken(ctx, user.ID, &lookup.Hash, &lookup.ExpiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, lookup.Raw)
	msg, err := mail.PasswordReset(ctx, user.FirstName, resetURL, s.config.ResetTTL)
	if err == nil {
		err = s.mailer.Send(ctx, user.Email, msg.Subject, msg.HTML)
	}
	if err != nil {
		slog.ErrorContext(ctx, "password_reset_mail_failed", "user_id", user.ID, "error", err)
		if clearErr := s.repo.SetResetPasswordToken(ctx, user.ID, nil, nil); clearErr != nil {
			slog.ErrorContext(ctx, "password_reset_rollback_failed", "user_id", user.ID, "error", clearErr)
		}
		return apperr.Wrap(apperr.KindDeliveryFailed, "Email could not be sent", err)
	}

	slog.InfoContext(ctx, "password_reset_requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	invalid := apperr.New(apperr.KindInvalidOrExpiredToken, "Invalid or expired reset token")
	hash := token.Hash(rawToken)
	now := s.now()

	user, err := s.repo.GetUserByResetToken(ctx, hash, now)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.ValidatePassword(newPassword, user.FirstName, user.LastName, user.Email); err != nil {
		return err
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.repo.ConsumeResetPasswordToken(ctx, hash, passwordHash, now)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.InfoContext(ctx, "password_reset", "user_id", user.ID)
	return nil
}

// Me returns the current user.
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return user, err
}

// UpdatePassword changes the password of an authenticated user and issues a fresh session.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, currentPassword, newPassword string) (*Session, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return nil, apperr.New(apperr.KindInvalidCredentials, "Current password is incorrect")
	}

	if err := s.ValidatePassword(newPassword, user.FirstName, user.LastName, user.Email); err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = passwordHash

	slog.InfoContext(ctx, "password_changed", "user_id", user.ID)
	return s.issue(user)
}

// UpdateDetails changes names and email of an authenticated user.
func (s *Service) UpdateDetails(ctx context.Context, userID int64, params DetailsParams) (*models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(params.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(params.LastName); v != "" {
		user.LastName = v
	}
	if v := models.NormalizeEmail(params.Email); v != "" {
		user.Email = v
	}

	err = s.repo.UpdateUserDetails(ctx, userID, user.FirstName, user.LastName, user.Email)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.ErrDuplicateIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update details: %w", err)
	}

	return s.Me(ctx, userID)
}

// AdminParams describes the account bootstrapped by EnsureAdmin.
type AdminParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates a verified admin, or promotes and verifies an existing account.
func (s *Service) EnsureAdmin(ctx context.Context, params AdminParams) (*models.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err == nil {
		existing.Role = models.RoleAdmin
		existing.IsEmailVerified = true
		existing.EmailVerificationToken = nil
		existing.EmailVerificationExpire = nil
		if err := s.repo.UpdateUser(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to promote user: %w", err)
		}
		slog.InfoContext(ctx, "admin_promoted", "user_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.ValidatePassword(params.Password, params.FirstName, params.LastName, params.Email); err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Email:           params.Email,
		PasswordHash:    passwordHash,
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	slog.InfoContext(ctx, "admin_created", "user_id", user.ID)
	return user, nil
}

// sendVerification stores a fresh verification token and mails the link.
// On delivery failure the token fields are cleared again.
func (s *Service) sendVerification(ctx context.Context, user *models.User) error {
	lookup, err := token.Generate(s.now(), s.config.VerificationTTL)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	if err := s.repo.SetEmailVerificationToken(ctx, user.ID, &lookup.Hash, &lookup.ExpiresAt); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/api/auth/verify-email/%s", s.baseURL, lookup.Raw)
	msg, err := mail.Verification(ctx, user.FirstName, verifyURL, s.config.VerificationTTL)
	if err == nil {
		err = s.mailer.Send(ctx, user.Email, msg.Subject, msg.HTML)
	}
	if err != nil {
		slog.ErrorContext(ctx, "verification_mail_failed", "user_id", user.ID, "error", err)
		if clearErr := s.repo.SetEmailVerificationToken(ctx, user.ID, nil, nil); clearErr != nil {
			slog.ErrorContext(ctx, "verification_rollback_failed", "user_id", user.ID, "error", clearErr)
		}
		return apperr.Wrap(apperr.KindDeliveryFailed, "Email could not be sent. Please try again later.", err)
	}

	user.EmailVerificationToken = &lookup.Hash
	user.EmailVerificationExpire = &lookup.ExpiresAt
	slog.InfoContext(ctx, "verification_mail_sent", "user_id", user.ID)
	return nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Password cannot be longer than %d bytes", MaxPasswordBytes), err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
