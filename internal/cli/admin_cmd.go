// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin_cmd.go - Administrator moderation commands.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/session"
)

const adminUsage = "bcard admin [users|block <id>|unblock <id>|block-card <id>|unblock-card <id>|reset-attempts <email>|stats]"

func handleAdmin(ctx context.Context, env *Env, args Args, s Streams) error {
	p := NewArgParser(args.Raw)
	sub := p.Subcommand()

	switch sub {
	case "", "users", "block", "unblock", "reset-attempts", "stats", "block-card", "unblock-card":
	default:
		return ErrUnknownSubcommand("admin", sub, adminUsage)
	}

	id, token, err := requireAdmin(ctx, env)
	if err != nil {
		return err
	}

	switch sub {
	case "", "users":
		return adminUsers(ctx, env, args, s, token)
	case "block", "unblock":
		target := p.Positional(1)
		if target == "" {
			return ErrMissingArgument("user id", "bcard admin "+sub+" <id>")
		}
		if sub == "block" && target == id.ID {
			return &ValidationError{Field: "user id", Value: target, Reason: "you can't block your own account"}
		}
		return adminSetBlocked(ctx, env, args, s, token, target, sub == "block")
	case "block-card", "unblock-card":
		target := p.Positional(1)
		if target == "" {
			return ErrMissingArgument("card id", "bcard admin "+sub+" <id>")
		}
		return adminSetCardBlocked(ctx, env, args, s, token, target, sub == "block-card")
	case "reset-attempts":
		email := p.Positional(1)
		if email == "" {
			return ErrMissingArgument("email", "bcard admin reset-attempts user@example.com")
		}
		if err := env.Client.ResetLoginAttempts(ctx, token, email); err != nil {
			return err
		}
		return output(s, args, "admin reset-attempts", map[string]string{"email": email}, func(w io.Writer) {
			fmt.Fprintf(w, "%s Login attempts reset for %s.\n", SuccessStyle.Render("[OK]"), email)
		})
	default:
		return adminStats(ctx, env, args, s, token)
	}
}

// requireAdmin checks the role locally; the server enforces it again.
func requireAdmin(ctx context.Context, env *Env) (session.Identity, string, error) {
	id, token, err := env.requireSession(ctx)
	if err != nil {
		return id, "", err
	}
	if !id.Roles.IsAdmin {
		return id, "", fmt.Errorf("admin commands need an administrator account: %w", api.ErrForbidden)
	}
	return id, token, nil
}

func adminUsers(ctx context.Context, env *Env, args Args, s Streams, token string) error {
	users, err := env.Client.ListUsers(ctx, token)
	if err != nil {
		return err
	}
	data := make([]UserData, 0, len(users))
	for _, u := range users {
		data = append(data, userData(u))
	}
	return output(s, args, "admin users", data, func(w io.Writer) {
		for _, u := range data {
			line := fmt.Sprintf("%-24s  %-24s  %-32s  %-8s", u.ID, truncate(u.Name, 24), truncate(u.Email, 32), u.Role)
			if u.IsBlocked {
				line += "  " + ErrorStyle.Render("[blocked]")
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%d users", len(data))))
	})
}

func adminSetBlocked(ctx context.Context, env *Env, args Args, s Streams, token, userID string, block bool) error {
	var (
		u   *api.User
		err error
	)
	if block {
		u, err = env.Client.BlockUser(ctx, token, userID)
	} else {
		u, err = env.Client.UnblockUser(ctx, token, userID)
	}
	if err != nil {
		return err
	}

	command, verb := "admin unblock", "Unblocked"
	if block {
		command, verb = "admin block", "Blocked"
	}
	return output(s, args, command, userData(*u), func(w io.Writer) {
		fmt.Fprintf(w, "%s %s %s.\n", SuccessStyle.Render("[OK]"), verb, u.Email)
	})
}

func adminSetCardBlocked(ctx context.Context, env *Env, args Args, s Streams, token, cardID string, block bool) error {
	card, err := env.Client.SetCardBlocked(ctx, token, cardID, block)
	if err != nil {
		return err
	}
	command, verb := "admin unblock-card", "Unblocked"
	if block {
		command, verb = "admin block-card", "Blocked"
	}
	return output(s, args, command, cardData(*card, ""), func(w io.Writer) {
		fmt.Fprintf(w, "%s %s card %s.\n", SuccessStyle.Render("[OK]"), verb, card.Title)
	})
}

func adminStats(ctx context.Context, env *Env, args Args, s Streams, token string) error {
	stats, err := env.Client.SystemStats(ctx, token)
	if err != nil {
		return err
	}
	return output(s, args, "admin stats", stats, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("Directory"))
		fmt.Fprintln(w, RenderSeparator())
		fmt.Fprintln(w, RenderField("Users", fmt.Sprint(stats.TotalUsers)))
		fmt.Fprintln(w, RenderField("Business", fmt.Sprint(stats.BusinessUsers)))
		fmt.Fprintln(w, RenderField("Admins", fmt.Sprint(stats.AdminUsers)))
		fmt.Fprintln(w, RenderField("Blocked", fmt.Sprint(stats.BlockedUsers)))
		fmt.Fprintln(w, RenderField("Cards", fmt.Sprint(stats.TotalCards)))
		fmt.Fprintln(w, RenderField("Blocked cards", fmt.Sprint(stats.BlockedCards)))
		fmt.Fprintln(w, RenderField("Likes", fmt.Sprint(stats.TotalLikes)))
	})
}
