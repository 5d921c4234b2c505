// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/health", nil)
	require.NoError(t, New(fakePinger{}).Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	c, rec = testutil.NewEchoContext(e, http.MethodGet, "/health", nil)
	require.NoError(t, New(fakePinger{err: errors.New("disk gone")}).Health(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    apperr.Kind
		message string
	}{
		{"app error", apperr.ErrFull, http.StatusBadRequest, apperr.KindFull, apperr.ErrFull.Message},
		{"wrapped app error", errors.Join(errors.New("ctx"), apperr.ErrForbidden), http.StatusForbidden, apperr.KindForbidden, apperr.ErrForbidden.Message},
		{"last admin", apperr.ErrLastAdmin, http.StatusConflict, apperr.KindLastAdmin, "At least one admin must remain"},
		{"internal app error", apperr.Wrap(apperr.KindInternal, "db exploded", errors.New("boom")), http.StatusInternalServerError, apperr.KindInternal, "Server Error"},
		{"plain error", errors.New("secret detail"), http.StatusInternalServerError, apperr.KindInternal, "Server Error"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, apperr.KindNotFound, "Not Found"},
		{"echo too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, apperr.KindValidation, "Request Entity Too Large"},
		{"echo unmapped", echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot, apperr.KindInternal, http.StatusText(http.StatusTeapot)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/events/1", nil)
	HTTPErrorHandler(apperr.New(apperr.KindNotFound, "Event not found"), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Event not found"}}`, rec.Body.String())

	c, rec = testutil.NewEchoContext(e, http.MethodGet, "/api/events", nil)
	HTTPErrorHandler(errors.New("database is locked"), c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")

	c, rec = testutil.NewEchoContext(e, http.MethodHead, "/api/events/1", nil)
	HTTPErrorHandler(apperr.ErrNotFound, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		value   any
		message string
	}{
		{"missing field", &RegisterRequest{LastName: "Yusuf", Email: "a@x.com", Password: "secret1"}, "Please add a firstName"},
		{"blank field", &RegisterRequest{FirstName: "Amina", LastName: "   ", Email: "a@x.com", Password: "secret1"}, "Please add a lastName"},
		{"bad email", &LoginRequest{Email: "not-an-email", Password: "x"}, "Please add a valid email"},
		{"too long", &UpdateDetailsRequest{FirstName: string(make([]byte, 51))}, "firstName cannot be more than 50 characters"},
		{"oneof", &CreateEventRequest{
			Title: "t", Description: "d", Date: "2030-01-01", Time: "18:00", Venue: "v",
			Category: "Party", Capacity: 5,
		}, "category must be one of Workshop, Seminar, Conference, Social, Other"},
		{"gt", &CreateEventRequest{
			Title: "t", Description: "d", Date: "2030-01-01", Time: "18:00", Venue: "v",
			Category: "Social", Capacity: -1,
		}, "capacity must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.value)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.message, err.(*apperr.Error).Message)
		})
	}

	assert.NoError(t, v.Validate(&LoginRequest{Email: "a@x.com", Password: "secret1"}))
}

func TestBindAndValidate(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	c, _ := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login", nil)
	c.SetRequest(testutil.NewRequest(http.MethodPost, "/api/auth/login", `{"email":`, ""))
	var req LoginRequest
	err := bindAndValidate(c, &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Invalid JSON body", err.(*apperr.Error).Message)

	c.SetRequest(testutil.NewRequest(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret1"}`, ""))
	require.NoError(t, bindAndValidate(c, &req))
	assert.Equal(t, "a@x.com", req.Email)
}

func TestParamID(t *testing.T) {
	e := echo.New()
	notFound := apperr.New(apperr.KindNotFound, "Event not found")

	for _, raw := range []string{"abc", "0", "-3", ""} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, err := paramID(c, "id", notFound)
		assert.ErrorIs(t, err, notFound, raw)
	}

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")
	id, err := paramID(c, "id", notFound)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
