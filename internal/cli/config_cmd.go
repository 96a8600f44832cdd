// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config inspection and version commands.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/bcard-tui/internal/config"
)

const configUsage = "bcard config [show|path|init [--force]]"

// handleConfig runs without an Env so a broken API setting can still be
// inspected.
func handleConfig(args Args, s Streams) error {
	p := NewArgParser(args.Raw, "force")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(s.Out)
		}
		if err := toml.NewEncoder(s.Out).Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return nil

	case "path", "paths":
		return configPaths(args, s)

	case "init":
		return configInit(args, s, p.BoolFlag("force"))

	default:
		return ErrUnknownSubcommand("config", sub, configUsage)
	}
}

func configFile(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPath()
}

func configPaths(args Args, s Streams) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	cfgPath, err := configFile(args)
	if err != nil {
		return err
	}
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return err
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}

	paths := map[string]string{
		"config": cfgPath,
		"token":  tokenPath,
		"log":    logPath,
	}
	return output(s, args, "config path", paths, func(w io.Writer) {
		fmt.Fprintln(w, RenderField("Config", cfgPath))
		fmt.Fprintln(w, RenderField("Token", tokenPath))
		fmt.Fprintln(w, RenderField("Log", logPath))
	})
}

func configInit(args Args, s Streams, force bool) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return &ValidationError{
			Field:   "config",
			Value:   path,
			Reason:  "file already exists",
			Example: "bcard config init --force",
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	return output(s, args, "config init", map[string]string{"config": path}, func(w io.Writer) {
		fmt.Fprintf(w, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	})
}

// VersionData is printed by the version command.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func handleVersion(args Args, s Streams) error {
	data := VersionData{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	return output(s, args, "version", data, func(w io.Writer) {
		fmt.Fprintf(w, "bcard %s\n", data.Version)
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("commit %s, built %s, %s %s",
			data.Commit, data.BuildDate, data.GoVersion, data.Platform)))
	})
}
