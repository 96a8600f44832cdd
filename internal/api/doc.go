// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the business card directory REST API.
//
// The server owns every hard decision: password checks, attempt counting,
// lockouts and role enforcement. This package only speaks the wire format
// and turns responses into typed errors the rest of bcard can branch on.
//
// # Error Taxonomy
//
//   - *InvalidCredentialsError: 401 on login, optionally with the number of
//     attempts the server still allows
//   - *AccountLockedError: 423 on login (temporary, with or without an
//     unlock time) or 403 "blocked" (administrator block)
//   - *NetworkError: the request never produced an HTTP response
//   - *APIError: any other non-2xx status; unwraps to ErrUnauthorized,
//     ErrForbidden, ErrBlocked or ErrNotFound where applicable
//
// # Authentication
//
// Authenticated calls carry the session token in the x-auth-token header.
// When such a call comes back 401, or 403 with a "blocked" message, the
// handler registered with WithUnauthorizedHandler runs so the session can
// be dropped in one place instead of at every call site.
//
// # Usage
//
//	client := api.NewClient(cfg.API.BaseURL,
//	    api.WithTimeout(cfg.API.Timeout()),
//	    api.WithLogger(logger),
//	)
//	token, err := client.Login(ctx, api.Credentials{Email: e, Password: p})
//	var invalid *api.InvalidCredentialsError
//	if errors.As(err, &invalid) && invalid.Known {
//	    fmt.Println(invalid.Remaining, "attempts left")
//	}
package api
