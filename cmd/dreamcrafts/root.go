// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3ddreamcrafts/dreamcrafts/internal/config"
	"github.com/3ddreamcrafts/dreamcrafts/internal/logging"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
	"github.com/3ddreamcrafts/dreamcrafts/internal/version"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dreamcrafts",
		Short: "3DDreamCrafts website and admin panel",
		Long: `dreamcrafts serves the 3DDreamCrafts public site and its admin panel.

Configuration is read from DREAMCRAFTS_* environment variables and,
when present, from .env files. Running without a subcommand starts
the web server.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv(opts.envFiles...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv file to load (repeatable, default .env)")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUserCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), nil)
	return cfg, logger, nil
}

// openDatabase opens the configured database and applies pending migrations.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dbCfg := store.DefaultDBConfig()
	dbCfg.Driver = cfg.DBDriver
	db, err := store.NewDBWithConfig(cfg.DBPath, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}
