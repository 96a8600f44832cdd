// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/api"
)

// Lister fetches the public directory. *api.Client satisfies it.
type Lister interface {
	ListCards(ctx context.Context) ([]api.Card, error)
}

// Listing is one directory read.
type Listing struct {
	Cards []api.Card
	// Offline is set when Cards came from the cache because the API could
	// not be reached.
	Offline bool
	// SyncedAt is when the cached copy was taken. Zero for live reads.
	SyncedAt time.Time
}

// Directory reads the public directory through the cache. A nil store
// turns it into a plain pass-through.
type Directory struct {
	client Lister
	store  *Store
	logger *zap.Logger
}

// NewDirectory wraps client with store. logger may be nil.
func NewDirectory(client Lister, store *Store, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{client: client, store: store, logger: logger.Named("cache")}
}

// List fetches the directory and refreshes the cache. Only a network
// failure falls back to the cache; server errors are returned as-is so a
// rejected session or a 500 is never hidden behind stale data.
func (d *Directory) List(ctx context.Context) (Listing, error) {
	cards, err := d.client.ListCards(ctx)
	if err == nil {
		if d.store != nil {
			if serr := d.store.Replace(ctx, cards); serr != nil {
				d.logger.Warn("card cache update failed", zap.Error(serr))
			}
		}
		return Listing{Cards: cards}, nil
	}

	var netErr *api.NetworkError
	if d.store == nil || !errors.As(err, &netErr) {
		return Listing{}, err
	}

	cached, synced, cerr := d.store.All(ctx)
	if cerr != nil {
		if !errors.Is(cerr, ErrEmpty) {
			d.logger.Warn("card cache read failed", zap.Error(cerr))
		}
		return Listing{}, err
	}
	d.logger.Info("serving cached directory",
		zap.Int("cards", len(cached)),
		zap.Time("synced_at", synced),
		zap.Error(err))
	return Listing{Cards: cached, Offline: true, SyncedAt: synced}, nil
}

// Search lists the directory and returns the cards matching query. Live
// results are refreshed into the cache first and then queried from it.
func (d *Directory) Search(ctx context.Context, query string) (Listing, error) {
	listing, err := d.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	if d.store == nil {
		listing.Cards = Filter(listing.Cards, query)
		return listing, nil
	}

	found, err := d.store.Search(ctx, query)
	if err != nil {
		d.logger.Warn("card cache search failed", zap.Error(err))
		listing.Cards = Filter(listing.Cards, query)
		return listing, nil
	}
	listing.Cards = found
	return listing, nil
}

// Remember updates one card after a change such as a like. Failures are
// logged only.
func (d *Directory) Remember(ctx context.Context, card api.Card) {
	if d.store == nil {
		return
	}
	if err := d.store.Put(ctx, card); err != nil {
		d.logger.Debug("card cache put failed", zap.String("card", card.ID), zap.Error(err))
	}
}
