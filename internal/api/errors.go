// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors that APIError unwraps to.
var (
	// ErrUnauthorized indicates a missing, expired or rejected session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the token is valid but lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrBlocked indicates an administrator blocked the account.
	ErrBlocked = errors.New("account blocked by an administrator")

	// ErrNotFound indicates the requested user or card does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyToken indicates a 2xx login response without a usable token.
	ErrEmptyToken = errors.New("login response did not contain a token")
)

// InvalidCredentialsError is a rejected login that did not lock the account.
type InvalidCredentialsError struct {
	// Remaining is the number of attempts the server still allows.
	// Only meaningful when Known is true.
	Remaining int
	Known     bool
	Message   string
}

func (e *InvalidCredentialsError) Error() string {
	if e.Known {
		return fmt.Sprintf("invalid credentials (%d attempts remaining)", e.Remaining)
	}
	return "invalid credentials"
}

// AccountLockedError is a login refused because the account is locked.
// A zero Until means the lock has no known end, which is the case for
// administrator-imposed blocks.
type AccountLockedError struct {
	Until   time.Time
	Message string
}

func (e *AccountLockedError) Error() string {
	if e.Indefinite() {
		return "account locked"
	}
	return "account locked until " + e.Until.Format(time.RFC3339)
}

// Indefinite reports whether the lock has no unlock time.
func (e *AccountLockedError) Indefinite() bool {
	return e.Until.IsZero()
}

// NetworkError wraps transport failures: DNS, refused connections, timeouts
// and unreadable bodies. It never counts as a failed credential attempt.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is any non-2xx response that has no more specific type.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// Unwrap maps well-known statuses onto the package sentinels so callers can
// use errors.Is without caring about status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		if mentionsBlocked(e.Message) {
			return ErrBlocked
		}
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsSessionRejected reports whether err means the server no longer accepts
// the session: 401, or 403 because the account was blocked.
func IsSessionRejected(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrBlocked)
}

// IsAuthError reports whether err is one of the login outcomes the lockout
// controller consumes itself.
func IsAuthError(err error) bool {
	var invalid *InvalidCredentialsError
	var locked *AccountLockedError
	return errors.As(err, &invalid) || errors.As(err, &locked)
}

func mentionsBlocked(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "blocked")
}
