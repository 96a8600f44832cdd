// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for bcard.
//
// Configuration is read from a TOML file, then a .env file in the working
// directory is loaded (without overriding variables already set), then
// BCARD_* environment variables are applied on top.
//
// # Configuration Files
//
//   - ~/.bcard/config.toml: main configuration
//   - ./.env: optional per-directory environment
//
// # Environment Variables
//
//   - BCARD_API_URL: REST API base URL
//   - BCARD_TOKEN_FILE: where the session token is persisted
//   - BCARD_LOG_LEVEL: debug, info, warn or error
//   - BCARD_LOG_FILE: log destination
//
// # Usage
//
//	cfg := config.Global()
//	client := api.NewClient(cfg.API.BaseURL)
package config
