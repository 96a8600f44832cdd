// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for bcard.
//
// With no command bcard starts the TUI. Every other command is a one-shot
// call against the card directory API that shares the TUI's session token,
// so signing in from the shell signs in the TUI and the other way round.
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	os.Exit(cli.Run(ctx, cmd, args, cli.StdStreams()))
//
// # Commands
//
//   - login, logout, whoami: session management
//   - cards: list, show, mine, liked, like
//   - admin: users, block, unblock, block-card, unblock-card, reset-attempts, stats
//   - route: show the route guard's decision for a path
//   - config, version, help
//
// All commands accept --json and print a JSONResponse envelope. Exit codes
// are listed in errors.go.
package cli
