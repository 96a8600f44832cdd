// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the session token and the signed-in identity.
//
// The Store is the only component that writes either. Everything else reads
// a snapshot through CurrentIdentity or subscribes with OnChange, which is
// how route guards learn that they have to re-evaluate.
//
// # Key Types
//
//   - Store: token + identity owner, mutex guarded
//   - Identity: normalised user (roles resolved once, here)
//   - TokenStore: durable storage for the token (file or memory)
//   - Watcher: picks up token changes made by another bcard process
//
// # Usage
//
//	tokens := session.NewFileTokenStore(cfg.TokenPath())
//	store := session.NewStore(client, tokens, session.WithLogger(logger))
//	store.Initialize(ctx)
//
//	if id, ok := store.CurrentIdentity(); ok && id.Roles.IsAdmin {
//	    // ...
//	}
//
// # Refresh Semantics
//
// Initialize and SetToken each issue exactly one GET /users/:id. A failed
// refresh, whatever the cause, clears the token and leaves the session
// logged out. Refresh errors are logged, never returned.
package session
