// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cards_cmd.go - Browsing and liking business cards.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/cache"
)

const cardsUsage = "bcard cards [list|search <query>|show <id>|mine|liked|like <id>]"

func handleCards(ctx context.Context, env *Env, args Args, s Streams) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return cardsList(ctx, env, args, s, "")
	case "search", "find":
		query := strings.Join(p.PositionalFrom(1), " ")
		if strings.TrimSpace(query) == "" {
			return ErrMissingArgument("query", "bcard cards search plumber")
		}
		return cardsList(ctx, env, args, s, query)
	case "show", "get":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("card id", "bcard cards show <id>")
		}
		return cardsShow(ctx, env, args, s, id)
	case "mine", "my":
		return cardsMine(ctx, env, args, s)
	case "liked", "favourites", "favorites":
		return cardsLiked(ctx, env, args, s)
	case "like":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("card id", "bcard cards like <id>")
		}
		return cardsLike(ctx, env, args, s, id)
	default:
		return ErrUnknownSubcommand("cards", sub, cardsUsage)
	}
}

// cardsList prints the public directory, or the part matching query.
func cardsList(ctx context.Context, env *Env, args Args, s Streams, query string) error {
	// Signed-in users see which cards they liked.
	env.Store.Initialize(ctx)
	var userID string
	if id, ok := env.Store.CurrentIdentity(); ok {
		userID = id.ID
	}

	var (
		listing cache.Listing
		err     error
	)
	command, empty := "cards list", "No cards yet."
	if query != "" {
		command, empty = "cards search", fmt.Sprintf("No cards match %q.", query)
		listing, err = env.Cards.Search(ctx, query)
	} else {
		listing, err = env.Cards.List(ctx)
	}
	if err != nil {
		return err
	}
	return printCards(s, args, command, listing, userID, empty)
}

func cardsShow(ctx context.Context, env *Env, args Args, s Streams, id string) error {
	env.Store.Initialize(ctx)
	var userID string
	if ident, ok := env.Store.CurrentIdentity(); ok {
		userID = ident.ID
	}

	card, err := env.Client.GetCard(ctx, id)
	if err != nil {
		return err
	}
	return output(s, args, "cards show", cardData(*card, userID), func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render(card.Title))
		if card.Subtitle != "" {
			fmt.Fprintln(w, DimStyle.Render(card.Subtitle))
		}
		fmt.Fprintln(w, RenderSeparator())
		if card.Description != "" {
			fmt.Fprintln(w, card.Description)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, RenderField("Phone", card.Phone))
		fmt.Fprintln(w, RenderField("Email", card.Email))
		if card.Web != "" {
			fmt.Fprintln(w, RenderField("Web", card.Web))
		}
		if addr := cardAddress(card.Address); addr != "" {
			fmt.Fprintln(w, RenderField("Address", addr))
		}
		if card.BizNumber != "" {
			fmt.Fprintln(w, RenderField("Business #", string(card.BizNumber)))
		}
		likes := fmt.Sprintf("%d", len(card.Likes))
		if userID != "" && card.LikedBy(userID) {
			likes += " (liked)"
		}
		fmt.Fprintln(w, RenderField("Likes", likes))
		if card.IsBlocked {
			fmt.Fprintln(w, WarningStyle.Render("This card is blocked."))
		}
	})
}

func cardsMine(ctx context.Context, env *Env, args Args, s Streams) error {
	id, token, err := env.requireSession(ctx)
	if err != nil {
		return err
	}
	if !id.Roles.IsBusiness {
		return fmt.Errorf("my cards needs a business account: %w", api.ErrForbidden)
	}
	cards, err := env.Client.MyCards(ctx, token)
	if err != nil {
		return err
	}
	return printCards(s, args, "cards mine", cache.Listing{Cards: cards}, id.ID, "You haven't created any cards yet.")
}

func cardsLiked(ctx context.Context, env *Env, args Args, s Streams) error {
	id, _, err := env.requireSession(ctx)
	if err != nil {
		return err
	}
	listing, err := env.Cards.List(ctx)
	if err != nil {
		return err
	}
	liked := make([]api.Card, 0, len(listing.Cards))
	for _, c := range listing.Cards {
		if c.LikedBy(id.ID) {
			liked = append(liked, c)
		}
	}
	listing.Cards = liked
	return printCards(s, args, "cards liked", listing, id.ID, "You haven't liked any cards yet.")
}

func cardsLike(ctx context.Context, env *Env, args Args, s Streams, cardID string) error {
	id, token, err := env.requireSession(ctx)
	if err != nil {
		return err
	}
	card, err := env.Client.ToggleLike(ctx, token, cardID)
	if err != nil {
		return err
	}
	env.Cards.Remember(ctx, *card)
	liked := card.LikedBy(id.ID)
	return output(s, args, "cards like", cardData(*card, id.ID), func(w io.Writer) {
		verb := "Unliked"
		if liked {
			verb = "Liked"
		}
		fmt.Fprintf(w, "%s %s %s (%d likes)\n", SuccessStyle.Render("[OK]"), verb, card.Title, len(card.Likes))
	})
}

func printCards(s Streams, args Args, command string, listing cache.Listing, userID, empty string) error {
	data := CardListData{Cards: make([]CardData, 0, len(listing.Cards)), Offline: listing.Offline}
	for _, c := range listing.Cards {
		data.Cards = append(data.Cards, cardData(c, userID))
	}
	if listing.Offline {
		synced := listing.SyncedAt
		data.SyncedAt = &synced
	}

	return output(s, args, command, data, func(w io.Writer) {
		if listing.Offline {
			fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("Offline: showing cards cached %s.",
				listing.SyncedAt.Local().Format("Jan 2 15:04"))))
		}
		if len(data.Cards) == 0 {
			fmt.Fprintln(w, DimStyle.Render(empty))
			return
		}
		for _, c := range data.Cards {
			mark := "   "
			if c.Liked {
				mark = "<3 "
			}
			line := fmt.Sprintf("%s%-24s  %-30s  %3d likes", mark, c.ID, truncate(c.Title, 30), c.Likes)
			if c.IsBlocked {
				line += "  " + WarningStyle.Render("[blocked]")
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%d cards", len(data.Cards))))
	})
}

func cardAddress(a api.Address) string {
	street := strings.TrimSpace(strings.Join([]string{a.Street, string(a.HouseNumber)}, " "))
	parts := make([]string, 0, 4)
	for _, p := range []string{street, a.City, a.State, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
