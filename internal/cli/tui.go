// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Launches the interactive terminal UI.

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/session"
	"github.com/jeranaias/bcard-tui/internal/ui/app"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

func runTUI(ctx context.Context, env *Env, args Args) error {
	if args.Start != "" {
		if _, ok := guard.Lookup(args.Start); !ok {
			return &ValidationError{
				Field:   "--start",
				Value:   args.Start,
				Reason:  "no such route",
				Example: "bcard --start /like-cards",
			}
		}
	}

	env.Store.Initialize(ctx)

	if env.Config.Session.Watch {
		if w := startWatcher(ctx, env); w != nil {
			defer w.Close()
		}
	}

	theme := styles.NewTheme(env.Config.UI.Theme)
	m := app.New(app.Deps{
		Client: env.Client,
		Store:  env.Store,
		Config: env.Config,
		Logger: env.Logger,
		Theme:  theme,
		Cards:  env.Cards,
	}, args.Start)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// startWatcher follows logins and logouts made by other bcard processes.
// Failure only costs that, so it is logged and ignored.
func startWatcher(ctx context.Context, env *Env) *session.Watcher {
	w, err := session.NewWatcher(env.Store, env.Tokens.Path(), env.Logger)
	if err != nil {
		env.Logger.Warn("token watcher unavailable", zap.Error(err))
		return nil
	}
	if err := w.Start(ctx); err != nil {
		env.Logger.Warn("token watcher unavailable", zap.Error(err))
		w.Close()
		return nil
	}
	return w
}
