// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/auisnexus/nexus/internal/database"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of users created by NewTestUser.
const TestPassword = "correct-horse-battery"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestUser creates a verified user with TestPassword.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	return newUser(t, repo, email, models.RoleUser)
}

// NewTestAdmin creates a verified admin with TestPassword.
func NewTestAdmin(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	return newUser(t, repo, email, models.RoleAdmin)
}

func newUser(t *testing.T, repo *repository.Repository, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FirstName:       "Test",
		LastName:        "User",
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		IsEmailVerified: true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestEvent creates an upcoming event with the given capacity.
func NewTestEvent(t *testing.T, repo *repository.Repository, createdBy int64, capacity int) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:       "Weekly Halaqa",
		Description: "Study circle",
		Date:        time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
		Time:        "18:00",
		Venue:       "Main Hall",
		Category:    models.CategorySeminar,
		Capacity:    capacity,
		CreatedBy:   createdBy,
	}
	require.NoError(t, repo.CreateEvent(context.Background(), event))
	return event
}

// SentMail is a message captured by FakeMailer.
type SentMail struct {
	To      string
	Subject string
	HTML    string
}

// FakeMailer records messages instead of delivering them.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

// ErrDelivery is a canned delivery failure for FakeMailer.Err.
var ErrDelivery = errors.New("smtp unavailable")

// Send implements the mail sender interface.
func (m *FakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

// Last returns the most recently sent message.
func (m *FakeMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// TokenFromLink extracts the trailing path segment of the first link in an email body
// that starts with prefix.
func TokenFromLink(body, prefix string) string {
	i := strings.Index(body, prefix)
	if i < 0 {
		return ""
	}
	rest := body[i+len(prefix):]
	end := strings.IndexAny(rest, "\"'< \n")
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates a JSON HTTP request, optionally carrying a bearer token.
func NewRequest(method, path, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}
