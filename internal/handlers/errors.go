// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"github.com/labstack/echo/v4"
)

// ErrorBody is the error part of a failed response.
type ErrorBody struct {
	Code    apperr.Kind `json:"code"`
	Message string      `json:"message"`
}

// ErrorResponse is the envelope of every failed response.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

var kindByStatus = map[int]apperr.Kind{
	http.StatusBadRequest:            apperr.KindValidation,
	http.StatusUnauthorized:          apperr.KindUnauthorized,
	http.StatusForbidden:             apperr.KindForbidden,
	http.StatusNotFound:              apperr.KindNotFound,
	http.StatusMethodNotAllowed:      apperr.KindNotFound,
	http.StatusRequestEntityTooLarge: apperr.KindValidation,
	http.StatusTooManyRequests:       apperr.KindRateLimited,
}

// HTTPErrorHandler renders errors returned by handlers and middleware.
// Classified errors keep their kind and message. Anything else is logged
// and reported as an internal error without details.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request_failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Success: false, Error: body})
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "failed to write error response", "error", writeErr)
	}
}

func classify(err error) (int, ErrorBody) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindInternal {
			return http.StatusInternalServerError, ErrorBody{Code: apperr.KindInternal, Message: "Server Error"}
		}
		return appErr.Status(), ErrorBody{Code: appErr.Kind, Message: appErr.Message}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		kind, ok := kindByStatus[httpErr.Code]
		if !ok {
			return httpErr.Code, ErrorBody{Code: apperr.KindInternal, Message: http.StatusText(httpErr.Code)}
		}
		return httpErr.Code, ErrorBody{Code: kind, Message: fmt.Sprint(httpErr.Message)}
	}

	return http.StatusInternalServerError, ErrorBody{Code: apperr.KindInternal, Message: "Server Error"}
}
