// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// route_cmd.go - Explains where the route guard sends a path.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/guard"
)

func handleRoute(ctx context.Context, env *Env, args Args, s Streams) error {
	p := NewArgParser(args.Raw)

	if p.BoolFlag("list") {
		return routeList(args, s)
	}

	path := p.Positional(0)
	if path == "" {
		return ErrMissingArgument("path", "bcard route /my-cards")
	}

	env.Store.Initialize(ctx)
	m, d, ok := guard.New(env.Store).Check(path)
	data := routeData(path, m, d, ok)

	if !ok {
		err := fmt.Errorf("route %s: %w", path, api.ErrNotFound)
		if args.JSON {
			return writeFailure(s.Out, "route", data, err)
		}
		return err
	}

	return output(s, args, "route", data, func(w io.Writer) {
		fmt.Fprintln(w, RenderField("Path", data.Path))
		fmt.Fprintln(w, RenderField("Route", fmt.Sprintf("%s (%s)", m.Route.Title, data.Route)))
		fmt.Fprintln(w, RenderField("Requires", data.Requirement))

		verdict := data.Verdict
		switch d.Verdict {
		case guard.Allow:
			verdict = SuccessStyle.Render(verdict)
		default:
			verdict = WarningStyle.Render(verdict)
		}
		fmt.Fprintln(w, RenderField("Verdict", verdict))
		if d.Verdict != guard.Allow {
			fmt.Fprintln(w, RenderField("Goes to", d.Target))
		}
		if d.From != "" {
			fmt.Fprintln(w, RenderField("Returns to", d.From))
		}
	})
}

func routeList(args Args, s Streams) error {
	type entry struct {
		Pattern     string `json:"pattern"`
		Title       string `json:"title"`
		Requirement string `json:"requirement"`
	}
	entries := make([]entry, 0, len(guard.Routes))
	for _, r := range guard.Routes {
		entries = append(entries, entry{r.Pattern, r.Title, r.Requirement.String()})
	}
	return output(s, args, "route", entries, func(w io.Writer) {
		for _, e := range entries {
			fmt.Fprintf(w, "%-20s  %-14s  %s\n", e.Pattern, e.Title, DimStyle.Render(e.Requirement))
		}
	})
}
