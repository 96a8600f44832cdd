// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the bcard terminal UI.
//
// The root Model owns navigation. Every path change, and every session
// change reported by the store, goes through the route guard before a
// screen is built, so a logged-out or under-privileged user never sees a
// protected screen even for one frame.
//
// Background work (login submits, session refreshes, lock expiry) reports
// back through a single event channel that the model drains with a
// re-armed command, the usual Bubble Tea pattern for external events.
package app
