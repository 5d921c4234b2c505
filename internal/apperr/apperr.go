// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperr defines the error kinds surfaced by the workflows.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a stable, client-visible error classification.
type Kind string

const (
	KindDuplicateIdentity     Kind = "DUPLICATE_IDENTITY"
	KindInvalidCredentials    Kind = "INVALID_CREDENTIALS"
	KindEmailNotVerified      Kind = "EMAIL_NOT_VERIFIED"
	KindInvalidOrExpiredToken Kind = "INVALID_OR_EXPIRED_TOKEN"
	KindNotFound              Kind = "NOT_FOUND"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindForbidden             Kind = "FORBIDDEN"
	KindInvalidState          Kind = "INVALID_STATE"
	KindAlreadyRegistered     Kind = "ALREADY_REGISTERED"
	KindNotRegistered         Kind = "NOT_REGISTERED"
	KindFull                  Kind = "FULL"
	KindInvalidCapacity       Kind = "INVALID_CAPACITY"
	KindDeliveryFailed        Kind = "DELIVERY_FAILED"
	KindValidation            Kind = "VALIDATION_ERROR"
	KindLastAdmin             Kind = "LAST_ADMIN"
	KindRateLimited           Kind = "RATE_LIMITED"
	KindInternal              Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindDuplicateIdentity:     http.StatusBadRequest,
	KindInvalidCredentials:    http.StatusUnauthorized,
	KindEmailNotVerified:      http.StatusUnauthorized,
	KindInvalidOrExpiredToken: http.StatusBadRequest,
	KindNotFound:              http.StatusNotFound,
	KindUnauthorized:          http.StatusUnauthorized,
	KindForbidden:             http.StatusForbidden,
	KindInvalidState:          http.StatusBadRequest,
	KindAlreadyRegistered:     http.StatusBadRequest,
	KindNotRegistered:         http.StatusBadRequest,
	KindFull:                  http.StatusBadRequest,
	KindInvalidCapacity:       http.StatusBadRequest,
	KindDeliveryFailed:        http.StatusInternalServerError,
	KindValidation:            http.StatusBadRequest,
	KindLastAdmin:             http.StatusConflict,
	KindRateLimited:           http.StatusTooManyRequests,
	KindInternal:              http.StatusInternalServerError,
}

// Error is a classified failure carrying a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that wraps a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps a kind to its HTTP status code.
func StatusOf(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is comparisons.
var (
	ErrDuplicateIdentity     = New(KindDuplicateIdentity, "User already exists")
	ErrInvalidCredentials    = New(KindInvalidCredentials, "Invalid credentials")
	ErrEmailNotVerified      = New(KindEmailNotVerified, "Please verify your email address before logging in")
	ErrInvalidOrExpiredToken = New(KindInvalidOrExpiredToken, "Invalid or expired token")
	ErrNotFound              = New(KindNotFound, "Resource not found")
	ErrUnauthorized          = New(KindUnauthorized, "Not authorized to access this route")
	ErrForbidden             = New(KindForbidden, "User role is not authorized to access this route")
	ErrInvalidState          = New(KindInvalidState, "Operation not allowed in the current state")
	ErrAlreadyRegistered     = New(KindAlreadyRegistered, "Already registered for this event")
	ErrNotRegistered         = New(KindNotRegistered, "Not registered for this event")
	ErrFull                  = New(KindFull, "Event is full")
	ErrInvalidCapacity       = New(KindInvalidCapacity, "Cannot reduce capacity below number of registered users")
	ErrDeliveryFailed        = New(KindDeliveryFailed, "Email could not be sent. Please try again later.")
	ErrLastAdmin             = New(KindLastAdmin, "At least one admin must remain")
)
