// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the PostgreSQL schema for accounts and durable
session records. Requires storage.database_url.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations")
					return nil
				}
				for _, v := range pending {
					name, _ := store.MigrationName(v)
					fmt.Fprintf(cmd.OutOrStdout(), "Applying %s\n", name)
				}
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use after
fixing a failed migration by hand. -1 means no version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return a.withMigrator(func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forced schema version to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withMigrator(fn func(Migrator) error) error {
	if a.cfg.Storage.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "storage.database_url").
			Errorf("storage.database_url is required for migrations")
	}
	m, err := a.deps.MigratorFactory(a.cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			a.logger.Warn("close migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < -1 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer >= -1")
	}
	return v, nil
}
