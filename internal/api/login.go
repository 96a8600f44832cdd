// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusLocked is the status the server uses for attempt-based lockouts.
const StatusLocked = http.StatusLocked

// Credentials is the body of POST /users/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
//
// Failed logins come back as *InvalidCredentialsError or *AccountLockedError.
// Transport failures come back as *NetworkError and anything else as
// *APIError; neither of those says anything about the credentials.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/users/login", "", creds)
	if err != nil {
		if !isContextError(err) {
			c.logger.Warn("login request failed", zap.Error(err))
		}
		return "", err
	}

	switch {
	case resp.ok():
		token := parseToken(resp.body)
		if token == "" {
			return "", ErrEmptyToken
		}
		return token, nil

	case resp.status == http.StatusUnauthorized:
		return "", parseInvalidCredentials(resp.body)

	case resp.status == StatusLocked:
		return "", parseLocked(resp.body)

	case resp.status == http.StatusForbidden && mentionsBlocked(extractMessage(resp.body)):
		// Administrator block: locked with no end the client can wait for.
		return "", &AccountLockedError{Message: extractMessage(resp.body)}
	}

	return "", &APIError{Status: resp.status, Message: extractMessage(resp.body)}
}

// parseToken accepts the token as plain text, as a JSON string, or inside an
// object under "token", "accessToken" or "access_token".
func parseToken(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if json.Unmarshal(body, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	case '{':
		var obj struct {
			Token       string `json:"token"`
			AccessToken string `json:"accessToken"`
			Snake       string `json:"access_token"`
		}
		if json.Unmarshal(body, &obj) != nil {
			return ""
		}
		for _, t := range []string{obj.Token, obj.AccessToken, obj.Snake} {
			if t = strings.TrimSpace(t); t != "" {
				return t
			}
		}
		return ""
	}
	return string(body)
}

// =============================================================================
// FAILURE PARSING
// =============================================================================

// remainingPatterns recover the attempt count from the server's English
// message. A structured remainingAttempts field always wins over these.
var remainingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s+(?:login\s+)?attempts?\s+(?:remaining|left)`),
	regexp.MustCompile(`(?i)remaining\s+attempts?\s*[:=]?\s*(\d+)`),
	regexp.MustCompile(`(?i)attempts?\s+(?:remaining|left)\s*[:=]\s*(\d+)`),
}

// failureBody is the superset of fields seen on 401/423 login responses,
// either at the top level or nested under "error".
type failureBody struct {
	Message           string          `json:"message"`
	RemainingAttempts *int            `json:"remainingAttempts"`
	BlockedUntil      json.RawMessage `json:"blockedUntil"`
	Error             json.RawMessage `json:"error"`
}

func decodeFailure(body []byte) failureBody {
	var top failureBody
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return top
	}
	if json.Unmarshal(body, &top) != nil {
		return failureBody{}
	}
	if nestedRaw := bytes.TrimSpace(top.Error); len(nestedRaw) > 0 && nestedRaw[0] == '{' {
		var nested failureBody
		if json.Unmarshal(nestedRaw, &nested) == nil {
			if top.Message == "" {
				top.Message = nested.Message
			}
			if top.RemainingAttempts == nil {
				top.RemainingAttempts = nested.RemainingAttempts
			}
			if len(top.BlockedUntil) == 0 {
				top.BlockedUntil = nested.BlockedUntil
			}
		}
	}
	return top
}

func parseInvalidCredentials(body []byte) *InvalidCredentialsError {
	fb := decodeFailure(body)
	msg := extractMessage(body)

	if fb.RemainingAttempts != nil && *fb.RemainingAttempts >= 0 {
		return &InvalidCredentialsError{Remaining: *fb.RemainingAttempts, Known: true, Message: msg}
	}
	if n, ok := ParseRemainingAttempts(msg); ok {
		return &InvalidCredentialsError{Remaining: n, Known: true, Message: msg}
	}
	return &InvalidCredentialsError{Message: msg}
}

func parseLocked(body []byte) *AccountLockedError {
	fb := decodeFailure(body)
	until, _ := ParseTimestamp(fb.BlockedUntil)
	return &AccountLockedError{Until: until, Message: extractMessage(body)}
}

// ParseRemainingAttempts extracts "N attempts remaining" from a message.
func ParseRemainingAttempts(msg string) (int, bool) {
	for _, re := range remainingPatterns {
		m := re.FindStringSubmatch(msg)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// 1e12 ms is September 2001; 1e12 s is far beyond any real unlock time.
const epochMillisThreshold = 1e12

// ParseTimestamp decodes a JSON value holding an ISO-8601 string, epoch
// seconds or epoch milliseconds (as a number or a numeric string). Strings
// without a zone are local time.
func ParseTimestamp(raw json.RawMessage) (time.Time, bool) {
	return parseTimestampIn(raw, time.Local)
}

func parseTimestampIn(raw json.RawMessage, loc *time.Location) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return time.Time{}, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f), true
		}
		return time.Time{}, false
	}

	var f float64
	if json.Unmarshal(raw, &f) != nil || f <= 0 {
		return time.Time{}, false
	}
	return fromEpoch(f), true
}

func fromEpoch(f float64) time.Time {
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f))
	}
	return time.Unix(int64(f), 0)
}
