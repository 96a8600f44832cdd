// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI pieces for the bcard TUI.

# Components

LockBanner (lock_banner.go) - Persistent banner shown while an account is
locked, with a live countdown for timed locks.

Toast (toast.go) - Auto-dismissing notification for transient results such
as network failures, redirects and moderation actions.

Components follow the Bubble Tea value-receiver pattern: Update returns a
new copy, View renders without side effects.
*/
package components
