// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SystemStats fetches users and cards in parallel and summarises them.
// Admin only.
func (c *Client) SystemStats(ctx context.Context, token string) (*Stats, error) {
	var users []User
	var cards []Card

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = c.ListUsers(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = c.ListAllCards(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Summarise(users, cards), nil
}

// Summarise computes directory statistics from already-fetched lists.
func Summarise(users []User, cards []Card) *Stats {
	s := &Stats{TotalUsers: len(users), TotalCards: len(cards)}
	for _, u := range users {
		if u.IsBusinessUser() {
			s.BusinessUsers++
		}
		if u.IsAdmin {
			s.AdminUsers++
		}
		if u.IsBlocked {
			s.BlockedUsers++
		}
	}
	for _, card := range cards {
		if card.IsBlocked {
			s.BlockedCards++
		}
		s.TotalLikes += len(card.Likes)
	}
	return s
}
