// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
)

// NewRootCmd creates the root command for the holoauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(Deps{})
}

func newRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "holoauth",
		Short: "HoloAuth - session and account authentication",
		Long: `HoloAuth manages accounts, password logins, reset tokens and
sessions backed by memory, PostgreSQL, SQLite or Redis.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newResetCmd(a))
	cmd.AddCommand(newSessionCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}
