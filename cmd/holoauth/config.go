// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"net/url"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/logging"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, file, environment and
flags are applied. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := marshalConfig(*a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err //nolint:wrapcheck // write errors surface as is
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	})

	return cmd
}

func marshalConfig(cfg config.Config) ([]byte, error) {
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = logging.Redacted
	}
	if cfg.Storage.DatabaseURL != "" {
		cfg.Storage.DatabaseURL = maskURL(cfg.Storage.DatabaseURL)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	return out, nil
}

// maskURL hides the password in a connection URL. Unparseable URLs are
// masked whole.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return logging.Redacted
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), logging.Redacted)
	}
	return u.String()
}
