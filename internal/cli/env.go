// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared wiring for commands that talk to the API.

package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/cache"
	"github.com/jeranaias/bcard-tui/internal/config"
	"github.com/jeranaias/bcard-tui/internal/logging"
	"github.com/jeranaias/bcard-tui/internal/session"
)

// Env is the configured client stack.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Client *api.Client
	Tokens *session.FileTokenStore
	Store  *session.Store
	// Cards reads the public directory through the local cache.
	Cards *cache.Directory

	cards *cache.Store
}

// loadConfig reads the config file named by args, or the default one.
func loadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--api: %w", err)
		}
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// NewEnv builds config, logger, client and session store. Server rejections
// of the session token clear it through the store.
func NewEnv(args Args) (*Env, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	logger, logErr := logging.FromConfig(cfg)

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, fmt.Errorf("resolve token path: %w", err)
	}

	e := &Env{
		Config: cfg,
		Logger: logger,
		Tokens: session.NewFileTokenStore(tokenPath),
	}
	e.Client = api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst),
		api.WithLogger(logger),
		api.WithUnauthorizedHandler(func(err error) {
			e.Store.HandleRejected(err)
		}),
	)
	e.Store = session.NewStore(e.Client, e.Tokens, session.WithLogger(logger))

	if logErr != nil {
		logger.Warn("log file unavailable", zap.Error(logErr))
	}

	// Without the cache bcard still works, it just cannot list offline.
	if cfg.Cache.Enabled {
		if e.cards, err = openCache(cfg); err != nil {
			logger.Warn("card cache unavailable", zap.Error(err))
			e.cards = nil
		}
	}
	e.Cards = cache.NewDirectory(e.Client, e.cards, logger)

	logger.Debug("environment ready",
		zap.String("api", cfg.API.BaseURL),
		zap.String("token_file", tokenPath))
	return e, nil
}

func openCache(cfg *config.Config) (*cache.Store, error) {
	path, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	return cache.Open(path)
}

// Close closes the card cache and flushes the logger.
func (e *Env) Close() {
	if e.cards != nil {
		if err := e.cards.Close(); err != nil {
			e.Logger.Debug("card cache close failed", zap.Error(err))
		}
	}
	_ = e.Logger.Sync()
}

// requireSession restores the stored session and fails when there is none.
func (e *Env) requireSession(ctx context.Context) (session.Identity, string, error) {
	e.Store.Initialize(ctx)
	id, ok := e.Store.CurrentIdentity()
	if !ok {
		return session.Identity{}, "", ErrNotSignedIn
	}
	return id, e.Store.Token(), nil
}
