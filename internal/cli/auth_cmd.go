// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, logout and whoami.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/login"
	"github.com/jeranaias/bcard-tui/internal/session"
)

// =============================================================================
// LOGIN
// =============================================================================

func handleLogin(ctx context.Context, env *Env, args Args, s Streams) error {
	p := NewArgParser(args.Raw)
	prompt := NewPrompter(s.In, s.Err)

	email := p.Flag("email")
	if email == "" {
		if p.Positional(0) != "" {
			email = p.Positional(0)
		} else {
			var err error
			if email, err = prompt.Line("Email: "); err != nil {
				return err
			}
		}
	}
	if email == "" {
		return ErrMissingArgument("email", "bcard login --email you@example.com")
	}

	password, err := prompt.Password("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return ErrMissingArgument("password", "bcard login --email you@example.com")
	}

	ctrl := login.NewController(env.Client, env.Store,
		login.WithLogger(env.Logger),
		login.WithMaxAttempts(env.Config.Login.MaxAttempts),
		login.WithCheckInterval(env.Config.Login.CheckInterval()),
	)
	defer ctrl.Close()

	outcome, err := ctrl.Submit(ctx, api.Credentials{Email: email, Password: password})
	state := ctrl.State()

	switch outcome {
	case login.OutcomeAuthenticated:
		id, ok := env.Store.CurrentIdentity()
		if !ok {
			return NewCommandError("login", "profile", "signed in but the profile could not be loaded", ErrNotSignedIn)
		}
		data := identityData(id)
		return output(s, args, "login", LoginData{
			Outcome:   "authenticated",
			Remaining: state.Remaining,
			Identity:  &data,
		}, func(w io.Writer) {
			fmt.Fprintf(w, "%s Signed in as %s (%s)\n", SuccessStyle.Render("[OK]"), id.Name, id.RoleLabel())
		})

	case login.OutcomeRejected:
		return reportLoginFailure(s, args, state, "rejected",
			&api.InvalidCredentialsError{Remaining: state.Remaining, Known: true})

	case login.OutcomeLocked:
		return reportLoginFailure(s, args, state, "locked",
			&api.AccountLockedError{Until: state.BlockedUntil})
	}

	if err == nil {
		err = errors.New("login was not attempted")
	}
	return err
}

func reportLoginFailure(s Streams, args Args, state login.State, outcome string, err error) error {
	data := LoginData{
		Outcome:   outcome,
		Remaining: state.Remaining,
		Warning:   state.Warning,
	}
	if !state.BlockedUntil.IsZero() {
		until := state.BlockedUntil
		data.BlockedUntil = &until
	}

	if args.JSON {
		return writeFailure(s.Out, "login", data, err)
	}

	w := s.Err
	switch {
	case state.Blocked && state.Indefinite():
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[LOCKED]"), login.MsgLockedIndefinite)
	case state.Blocked:
		left := time.Until(state.BlockedUntil)
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[LOCKED]"), login.MsgLockedTimed)
		fmt.Fprintf(w, "Try again in %s (at %s).\n",
			login.FormatCountdown(left), state.BlockedUntil.Local().Format("15:04:05"))
	default:
		fmt.Fprintf(w, "%s Invalid email or password. %d attempts remaining.\n",
			ErrorStyle.Render("[ERROR]"), state.Remaining)
		if state.Warning != "" {
			fmt.Fprintln(w, WarningStyle.Render(state.Warning))
		}
	}
	return &reportedError{err: err}
}

// =============================================================================
// LOGOUT / WHOAMI
// =============================================================================

func handleLogout(env *Env, args Args, s Streams) error {
	tok, err := env.Tokens.Load()
	if err != nil {
		return NewCommandError("logout", "read token", "token file unreadable", err)
	}
	env.Store.ClearToken()

	signedIn := tok != ""
	return output(s, args, "logout", map[string]bool{"signed_out": signedIn}, func(w io.Writer) {
		if signedIn {
			fmt.Fprintf(w, "%s Signed out.\n", SuccessStyle.Render("[OK]"))
		} else {
			fmt.Fprintln(w, "Not signed in.")
		}
	})
}

func handleWhoami(ctx context.Context, env *Env, args Args, s Streams) error {
	id, _, err := env.requireSession(ctx)
	if err != nil {
		return err
	}
	return output(s, args, "whoami", identityData(id), func(w io.Writer) {
		printIdentity(w, id)
	})
}

func printIdentity(w io.Writer, id session.Identity) {
	fmt.Fprintln(w, RenderField("Name", id.Name))
	fmt.Fprintln(w, RenderField("Email", id.Email))
	fmt.Fprintln(w, RenderField("Role", id.RoleLabel()))
	fmt.Fprintln(w, RenderField("ID", id.ID))
}
