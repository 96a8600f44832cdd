// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache keeps a local SQLite copy of the public card directory.
//
// Every successful directory fetch replaces the copy. When the API cannot
// be reached, Directory serves the last copy instead and says so, which
// keeps browsing and search usable on a flaky connection. Only public card
// data is stored; tokens and user records never touch the database.
//
// # Usage
//
//	store, err := cache.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	dir := cache.NewDirectory(client, store, logger)
//	listing, err := dir.List(ctx)
//	if listing.Offline {
//	    fmt.Println("showing cards cached at", listing.SyncedAt)
//	}
package cache
