// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
)

// ErrInvalidCredentials is returned by login when the email or password
// does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// withService opens the backends and runs fn against a facade over them.
func (a *app) withService(ctx context.Context, fn func(*auth.Service) error) error {
	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	svc, err := a.service(b)
	if err != nil {
		return err
	}
	return fn(svc)
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var email, password string
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				account, err := svc.Register(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), account.ID.String())
				return nil
			})
		},
	}
	register.Flags().StringVar(&email, "email", "", "account email")
	register.Flags().StringVar(&password, "password", "", "account password")
	_ = register.MarkFlagRequired("email")
	_ = register.MarkFlagRequired("password")

	cmd.AddCommand(register)
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and print a new session id",
		Long: `Verify the email and password. On success a fresh session id is
stored on the account, replacing any previous one, and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				sessionID, ok := svc.Login(cmd.Context(), email, password)
				if !ok {
					return oops.Code("CLI_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
				}
				fmt.Fprintln(cmd.OutOrStdout(), sessionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the account that owns a session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				account, ok := svc.Resolve(cmd.Context(), sessionID)
				if !ok {
					return oops.Code("CLI_UNKNOWN_SESSION").Errorf("no account holds that session")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", account.ID, account.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear an account's session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ulid.Parse(accountID)
			if err != nil {
				return oops.Code("CLI_INVALID_ACCOUNT_ID").With("account", accountID).Wrap(err)
			}
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				svc.Logout(cmd.Context(), id)
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Password reset tokens",
	}

	var email string
	request := &cobra.Command{
		Use:   "request",
		Short: "Issue a reset token for an account",
		Long:  `Print the account's reset token, issuing one if it has none.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				token, err := svc.RequestReset(cmd.Context(), email)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	request.Flags().StringVar(&email, "email", "", "account email")
	_ = request.MarkFlagRequired("email")

	var token, password string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Set a new password using a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *auth.Service) error {
				if err := svc.UpdatePassword(cmd.Context(), token, password); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
				return nil
			})
		},
	}
	apply.Flags().StringVar(&token, "token", "", "reset token")
	apply.Flags().StringVar(&password, "password", "", "new password")
	_ = apply.MarkFlagRequired("token")
	_ = apply.MarkFlagRequired("password")

	cmd.AddCommand(request, apply)
	return cmd
}
