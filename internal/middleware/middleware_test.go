// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/auth"
	"codeberg.org/auisnexus/nexus/internal/i18n"
	"codeberg.org/auisnexus/nexus/internal/middleware"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/testutil"
	"codeberg.org/auisnexus/nexus/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-test-secret-test-secret"

func okHandler(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, user.Email)
}

func TestAuthenticate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "member@example.com")
	issuer := token.NewIssuer(secret, time.Hour)
	valid, _, err := issuer.Issue(user)
	require.NoError(t, err)

	expired, _, err := token.NewIssuer(secret, time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(user)
	require.NoError(t, err)

	ghost := &models.User{ID: 999, Role: models.RoleUser}
	orphan, _, err := issuer.Issue(ghost)
	require.NoError(t, err)

	forged, _, err := token.NewIssuer("another-secret-another-secret", time.Hour).Issue(user)
	require.NoError(t, err)

	mw := middleware.Authenticate(issuer, repo, "token")

	tests := []struct {
		name    string
		header  string
		cookie  string
		wantErr bool
	}{
		{"bearer", "Bearer " + valid, "", false},
		{"lowercase scheme", "bearer " + valid, "", false},
		{"cookie", "", valid, false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic " + valid, "", true},
		{"expired", "Bearer " + expired, "", true},
		{"forged", "Bearer " + forged, "", true},
		{"deleted user", "Bearer " + orphan, "", true},
		{"garbage", "Bearer not-a-token", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := mw(okHandler)(c)

			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "member@example.com", rec.Body.String())
		})
	}
}

func TestAuthorize(t *testing.T) {
	mw := middleware.Authorize(models.RoleAdmin)

	tests := []struct {
		name string
		user *models.User
		want error
	}{
		{"anonymous", nil, apperr.ErrUnauthorized},
		{"member", &models.User{ID: 1, Role: models.RoleUser}, apperr.ErrForbidden},
		{"admin", &models.User{ID: 2, Email: "admin@example.com", Role: models.RoleAdmin}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			if tt.user != nil {
				req = req.WithContext(auth.SetUser(req.Context(), tt.user, nil))
			}
			rec := httptest.NewRecorder()

			err := mw(okHandler)(e.NewContext(req, rec))

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RateLimit(2))
	e.GET("/", okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RateLimit(0))
	e.GET("/", okHandler)

	for range 5 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	var locale string
	handler := middleware.Locale()(func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return nil
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ar-IQ,ar;q=0.9,en;q=0.8")
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	assert.Equal(t, "ar", locale)
}
