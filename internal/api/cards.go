// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListCards returns every public card. No token needed.
func (c *Client) ListCards(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := c.call(ctx, http.MethodGet, "/cards", "", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// ListAllCards returns every card including blocked ones. Admin only.
func (c *Client) ListAllCards(ctx context.Context, token string) ([]Card, error) {
	var cards []Card
	if err := c.call(ctx, http.MethodGet, "/cards", token, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard returns a single card.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	var card Card
	if err := c.call(ctx, http.MethodGet, "/cards/"+url.PathEscape(id), "", nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// MyCards returns the cards owned by the token's user. Business only.
func (c *Client) MyCards(ctx context.Context, token string) ([]Card, error) {
	var cards []Card
	if err := c.call(ctx, http.MethodGet, "/cards/my-cards", token, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard creates a card owned by the token's user. Business only.
func (c *Client) CreateCard(ctx context.Context, token string, in CardInput) (*Card, error) {
	var card Card
	if err := c.call(ctx, http.MethodPost, "/cards", token, in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard replaces card id. Owner or admin.
func (c *Client) UpdateCard(ctx context.Context, token, id string, in CardInput) (*Card, error) {
	var card Card
	if err := c.call(ctx, http.MethodPut, "/cards/"+url.PathEscape(id), token, in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes card id. Owner or admin.
func (c *Client) DeleteCard(ctx context.Context, token, id string) error {
	return c.call(ctx, http.MethodDelete, "/cards/"+url.PathEscape(id), token, nil, nil)
}

// ToggleLike likes or unlikes card id for the token's user and returns the
// updated card.
func (c *Client) ToggleLike(ctx context.Context, token, id string) (*Card, error) {
	var card Card
	if err := c.call(ctx, http.MethodPatch, "/cards/"+url.PathEscape(id), token, struct{}{}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SetCardBlocked hides or restores card id. Admin only.
func (c *Client) SetCardBlocked(ctx context.Context, token, id string, blocked bool) (*Card, error) {
	var card Card
	body := map[string]bool{"isBlocked": blocked}
	if err := c.call(ctx, http.MethodPatch, "/cards/"+url.PathEscape(id), token, body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
