// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GetUser fetches the canonical user record for id.
func (c *Client) GetUser(ctx context.Context, token, id string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("get user: %w", ErrNotFound)
	}
	var u User
	if err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(id), token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates a new account. It does not log the user in.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	reg.AdminCode = strings.TrimSpace(reg.AdminCode)
	var u User
	if err := c.call(ctx, http.MethodPost, "/users", "", reg, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile replaces the editable profile fields of user id.
func (c *Client) UpdateProfile(ctx context.Context, token, id string, upd ProfileUpdate) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodPut, "/users/"+url.PathEscape(id), token, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// ListUsers returns every user. Admin only.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	if err := c.call(ctx, http.MethodGet, "/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes user id. Admin only.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.call(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), token, nil, nil)
}

// BlockUser blocks user id from logging in. Admin only.
func (c *Client) BlockUser(ctx context.Context, token, id string) (*User, error) {
	return c.patchUser(ctx, token, id, "block")
}

// UnblockUser lifts an administrator block on user id. Admin only.
func (c *Client) UnblockUser(ctx context.Context, token, id string) (*User, error) {
	return c.patchUser(ctx, token, id, "unblock")
}

func (c *Client) patchUser(ctx context.Context, token, id, action string) (*User, error) {
	var u User
	path := "/users/" + url.PathEscape(id) + "/" + action
	if err := c.call(ctx, http.MethodPatch, path, token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetLoginAttempts clears the failed-attempt counter and any attempt-based
// lock for the account with the given email. Admin only.
func (c *Client) ResetLoginAttempts(ctx context.Context, token, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	body := map[string]string{"email": email}
	err := c.call(ctx, http.MethodPatch, "/users/reset-login-attempts", token, body, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return fmt.Errorf("no user with email %s: %w", email, err)
		case http.StatusForbidden:
			return fmt.Errorf("admin privileges required: %w", err)
		}
	}
	return err
}
