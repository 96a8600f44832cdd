// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the config dir and every override variable at a clean
// state so the developer's real ~/.bcard never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BCARD_HOME", dir)
	t.Setenv("BCARD_API_URL", "")
	t.Setenv("BCARD_TOKEN_FILE", "")
	t.Setenv("BCARD_LOG_LEVEL", "")
	t.Setenv("BCARD_LOG_FILE", "")
	t.Setenv("BCARD_CACHE_FILE", "")
	// godotenv reads ./.env relative to the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 3, cfg.Login.MaxAttempts)
	require.Equal(t, DefaultCheckInterval, cfg.Login.CheckInterval())
	require.Equal(t, 30*time.Second, cfg.API.Timeout())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadFromPath(filepath.Join(dir, "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoadFromPath_TOMLAndDefaultsMerge(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:3000/"

[login]
check_interval_ms = 500
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", cfg.API.BaseURL, "trailing slash is trimmed")
	require.Equal(t, 500*time.Millisecond, cfg.Login.CheckInterval())
	require.Equal(t, 3, cfg.Login.MaxAttempts, "unset fields fall back to defaults")
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("BCARD_API_URL", "http://127.0.0.1:9000")
	t.Setenv("BCARD_LOG_LEVEL", "debug")

	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", cfg.API.BaseURL)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromPath_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("BCARD_API_URL")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BCARD_API_URL=http://from-dotenv:3000\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("BCARD_API_URL") })

	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "http://from-dotenv:3000", cfg.API.BaseURL)
}

func TestLoadFromPath_InvalidTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url = "), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://example.com"
	cfg.Login.MaxAttempts = 42
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)

	fields := map[string]bool{}
	for _, v := range verrs {
		fields[v.Field] = true
	}
	require.True(t, fields["api.base_url"])
	require.True(t, fields["login.max_attempts"])
	require.True(t, fields["log.level"])
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out", "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "http://localhost:3000"
	cfg.UI.Compact = true
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", loaded.API.BaseURL)
	require.True(t, loaded.UI.Compact)
}

func TestTokenPath(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	path, err := cfg.TokenPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "token"), path)

	cfg.Session.TokenFile = "/tmp/custom-token"
	path, err = cfg.TokenPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-token", path)
}

func TestCachePath(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	require.True(t, cfg.Cache.Enabled)
	path, err := cfg.CachePath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cards.db"), path)

	t.Setenv("BCARD_CACHE_FILE", "/tmp/other.db")
	cfg.ApplyEnvOverrides()
	path, err = cfg.CachePath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", path)
}

// TestConfig_ConcurrentAccess tests that Global and SetGlobal can be called
// concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
