// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
)

type userOptions struct {
	username string
	password string
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserPasswdCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	opts := &userOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuth(func(am *auth.Manager) error {
				id, err := am.CreateUser(cmd.Context(), opts.username, opts.resolvedPassword())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %q (id %d)\n", opts.username, id)
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newUserPasswdCmd() *cobra.Command {
	opts := &userOptions{}
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set the password of an admin user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuth(func(am *auth.Manager) error {
				if err := am.ChangePasswordByUsername(cmd.Context(), opts.username, opts.resolvedPassword()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password updated for %q\n", opts.username)
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func (o *userOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&o.password, "password", "p", "", "password (default $DREAMCRAFTS_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
}

func (o *userOptions) resolvedPassword() string {
	if o.password != "" {
		return o.password
	}
	return os.Getenv("DREAMCRAFTS_ADMIN_PASSWORD")
}

// withAuth runs fn with an auth manager over the configured database. Events
// go to the security log like their admin panel counterparts.
func withAuth(fn func(am *auth.Manager) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rec := audit.NewRecorder(db, nil, logger)
	am := auth.NewManager(db, nil, rec, auth.Config{}, logger)
	if err := fn(am); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return fmt.Errorf("%w (use --password or DREAMCRAFTS_ADMIN_PASSWORD)", err)
		}
		return err
	}
	return nil
}
