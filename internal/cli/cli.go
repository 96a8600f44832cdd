// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and dispatch for bcard.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to run.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdCards
	CmdAdmin
	CmdRoute
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds the parsed command line.
type Args struct {
	// Global flags
	JSON       bool
	Verbose    bool
	ConfigPath string
	APIURL     string

	// Name is the command as typed, used in errors and JSON envelopes.
	Name string
	// Raw are the arguments after the command name.
	Raw []string
	// Start is the first path the TUI opens.
	Start string
}

const usageText = `bcard - terminal client for the business card directory

Usage:
  bcard [--start PATH]              Start the TUI (default)
  bcard login [--email EMAIL]       Sign in; the password is prompted for
  bcard logout                      Sign out and remove the stored token
  bcard whoami                      Show the signed-in user
  bcard cards list                  List public cards
  bcard cards search <query>        Find cards by title, subtitle or city
  bcard cards show <id>             Show one card
  bcard cards mine                  List your cards (business accounts)
  bcard cards liked                 List cards you liked
  bcard cards like <id>             Like or unlike a card
  bcard admin users                 List users (admin)
  bcard admin block <user-id>       Block a user (admin)
  bcard admin unblock <user-id>     Unblock a user (admin)
  bcard admin block-card <card-id>  Hide a card from the directory (admin)
  bcard admin unblock-card <card-id>
                                    Restore a hidden card (admin)
  bcard admin reset-attempts <email>
                                    Clear a user's failed login attempts (admin)
  bcard admin stats                 Directory statistics (admin)
  bcard route <path>                Show where the route guard sends PATH
  bcard config show                 Show the effective configuration
  bcard config path                 Show config, token and log file paths
  bcard config init [--force]       Write a default config file
  bcard version                     Show version information
  bcard help                        Show this help

Global flags:
  --json            Print a JSON envelope instead of text
  --config PATH     Use a different config file
  --api URL         Override the API base URL
  --verbose         Log at debug level

Environment:
  BCARD_HOME        Config directory (default ~/.bcard)
  BCARD_API_URL     API base URL
  BCARD_TOKEN_FILE  Session token file
  BCARD_LOG_LEVEL   Log level (debug, info, warn, error)
  BCARD_LOG_FILE    Log file
  BCARD_CACHE_FILE  Card cache database

Exit codes:
  0 success, 1 error, 2 usage, 3 config, 4 auth, 5 network,
  7 not found, 8 timeout
`

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv without the program name.
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	name := strings.ToLower(remaining[0])
	args.Name = name
	args.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, args
	case "login", "signin":
		return CmdLogin, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami":
		return CmdWhoami, args
	case "cards", "card":
		return CmdCards, args
	case "admin":
		return CmdAdmin, args
	case "route":
		return CmdRoute, args
	case "config":
		return CmdConfig, args
	case "version", "--version", "-v":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	}
	return CmdUnknown, args
}

// parseGlobalFlags pulls the global flags out of argv wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	remaining := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "--") {
			remaining = append(remaining, arg)
			continue
		}

		takeValue := func() string {
			if hasValue {
				return value
			}
			if i+1 < len(argv) {
				i++
				return argv[i]
			}
			return ""
		}

		switch name {
		case "json":
			args.JSON = !hasValue || value == "true"
		case "verbose":
			args.Verbose = !hasValue || value == "true"
		case "config":
			args.ConfigPath = takeValue()
		case "api":
			args.APIURL = takeValue()
		case "start":
			args.Start = takeValue()
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// =============================================================================
// RUN
// =============================================================================

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns os.Stdin, os.Stdout and os.Stderr.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Run executes cmd and returns the exit code.
func Run(ctx context.Context, cmd Command, args Args, s Streams) int {
	err := run(ctx, cmd, args, s)
	if err == nil {
		return ExitSuccess
	}

	var reported *reportedError
	if errors.As(err, &reported) {
		return GetExitCode(err)
	}

	name := args.Name
	if name == "" {
		name = "tui"
	}
	if args.JSON {
		DisplayError(s.Out, name, err, true)
	} else {
		DisplayError(s.Err, name, err, false)
	}
	return GetExitCode(err)
}

func run(ctx context.Context, cmd Command, args Args, s Streams) error {
	switch cmd {
	case CmdHelp:
		fmt.Fprint(s.Out, usageText)
		return nil
	case CmdVersion:
		return handleVersion(args, s)
	case CmdUnknown:
		return &ValidationError{
			Field:   "command",
			Value:   args.Name,
			Reason:  "unknown command",
			Example: "bcard help",
		}
	case CmdConfig:
		return handleConfig(args, s)
	}

	env, err := NewEnv(args)
	if err != nil {
		return err
	}
	defer env.Close()

	switch cmd {
	case CmdTUI:
		return runTUI(ctx, env, args)
	case CmdLogin:
		return handleLogin(ctx, env, args, s)
	case CmdLogout:
		return handleLogout(env, args, s)
	case CmdWhoami:
		return handleWhoami(ctx, env, args, s)
	case CmdCards:
		return handleCards(ctx, env, args, s)
	case CmdAdmin:
		return handleAdmin(ctx, env, args, s)
	case CmdRoute:
		return handleRoute(ctx, env, args, s)
	}
	return fmt.Errorf("unhandled command %d", cmd)
}

// output prints data as a JSON envelope in JSON mode, or calls text.
func output(s Streams, args Args, command string, data any, text func(w io.Writer)) error {
	if args.JSON {
		return NewJSONResponse(command, data).Write(s.Out)
	}
	text(s.Out)
	return nil
}
