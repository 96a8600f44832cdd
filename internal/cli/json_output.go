// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for scripting.

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/session"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	ErrorType string  `json:"error_type,omitempty"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		ErrorType: errorType(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// writeFailure prints a failed envelope that still carries data, and marks
// err as reported so Run does not print it again.
func writeFailure(w io.Writer, command string, data any, err error) error {
	resp := NewJSONResponse(command, data)
	msg := err.Error()
	resp.Success = false
	resp.Error = &msg
	resp.ErrorType = errorType(err)
	if werr := resp.Write(w); werr != nil {
		return werr
	}
	return &reportedError{err: err}
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	default:
		return "generic_error"
	}
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// IdentityData is printed by whoami and login.
type IdentityData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsAdmin    bool   `json:"is_admin"`
	IsBusiness bool   `json:"is_business"`
}

func identityData(id session.Identity) IdentityData {
	return IdentityData{
		ID:         id.ID,
		Name:       id.Name,
		Email:      id.Email,
		Role:       id.RoleLabel(),
		IsAdmin:    id.Roles.IsAdmin,
		IsBusiness: id.Roles.IsBusiness,
	}
}

// LoginData is printed by a failed or locked login.
type LoginData struct {
	Outcome      string        `json:"outcome"`
	Remaining    int           `json:"remaining_attempts"`
	Warning      string        `json:"warning,omitempty"`
	BlockedUntil *time.Time    `json:"blocked_until,omitempty"`
	Identity     *IdentityData `json:"identity,omitempty"`
}

// CardData is one card in list output.
type CardData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
	IsBlocked bool   `json:"is_blocked"`
}

// CardListData is printed by the card list commands.
type CardListData struct {
	Cards []CardData `json:"cards"`
	// Offline is set when the list came from the local cache.
	Offline  bool       `json:"offline"`
	SyncedAt *time.Time `json:"synced_at,omitempty"`
}

func cardData(c api.Card, userID string) CardData {
	return CardData{
		ID:        c.ID,
		Title:     c.Title,
		Subtitle:  c.Subtitle,
		Email:     c.Email,
		Phone:     c.Phone,
		Likes:     len(c.Likes),
		Liked:     userID != "" && c.LikedBy(userID),
		IsBlocked: c.IsBlocked,
	}
}

// UserData is one user in admin output.
type UserData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsBlocked bool   `json:"is_blocked"`
}

func userData(u api.User) UserData {
	id := session.IdentityFromRecord(&u)
	return UserData{
		ID:        u.ID,
		Name:      id.Name,
		Email:     u.Email,
		Role:      id.RoleLabel(),
		IsBlocked: u.IsBlocked,
	}
}

// RouteData is printed by the route command.
type RouteData struct {
	Path        string `json:"path"`
	Route       string `json:"route,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	Verdict     string `json:"verdict"`
	Target      string `json:"target,omitempty"`
	From        string `json:"from,omitempty"`
}

func routeData(path string, m guard.Match, d guard.Decision, ok bool) RouteData {
	if !ok {
		return RouteData{Path: path, Verdict: "not_found"}
	}
	return RouteData{
		Path:        m.Path,
		Route:       m.Route.Pattern,
		Requirement: m.Route.Requirement.String(),
		Verdict:     d.Verdict.String(),
		Target:      d.Target,
		From:        d.From,
	}
}
