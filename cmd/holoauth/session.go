// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/session"
)

// durableChecker is implemented by session.PersistentStore.
type durableChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

func (a *app) withSessions(ctx context.Context, fn func(session.Store) error) error {
	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(a.sessions(b))
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Drive the session strategy stack",
		Long: `Create, resolve and destroy sessions through the configured stack:
an in-process store with session.duration_seconds expiry, mirrored to
session.durable when set. Live sessions last for one invocation; only
durable records outlive it. Use "session run" to exercise a full cycle.`,
	}

	var userID string
	create := &cobra.Command{
		Use:   "create",
		Short: "Start a session and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSessions(cmd.Context(), func(st session.Store) error {
				id, ok := st.Create(cmd.Context(), userID)
				if !ok {
					return oops.Code("CLI_SESSION_CREATE_FAILED").With("user", userID).Errorf("session not created")
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	create.Flags().StringVar(&userID, "user", "", "user id that owns the session")
	_ = create.MarkFlagRequired("user")

	var resolveID string
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Print the owner of a session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSessions(cmd.Context(), func(st session.Store) error {
				if owner, ok := st.Resolve(cmd.Context(), resolveID); ok {
					fmt.Fprintln(cmd.OutOrStdout(), owner)
					return nil
				}
				return reportDurable(cmd.Context(), cmd.OutOrStdout(), st, resolveID)
			})
		},
	}
	resolve.Flags().StringVar(&resolveID, "id", "", "session id")
	_ = resolve.MarkFlagRequired("id")

	var destroyID string
	destroy := &cobra.Command{
		Use:   "destroy",
		Short: "End a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSessions(cmd.Context(), func(st session.Store) error {
				if st.Destroy(cmd.Context(), destroyID) {
					fmt.Fprintln(cmd.OutOrStdout(), "Destroyed")
					return nil
				}
				return reportDurable(cmd.Context(), cmd.OutOrStdout(), st, destroyID)
			})
		},
	}
	destroy.Flags().StringVar(&destroyID, "id", "", "session id")
	_ = destroy.MarkFlagRequired("id")

	var runUser string
	run := &cobra.Command{
		Use:   "run",
		Short: "Create, resolve and destroy a session in one process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSessions(cmd.Context(), func(st session.Store) error {
				return runSessionCycle(cmd.Context(), cmd.OutOrStdout(), st, runUser)
			})
		},
	}
	run.Flags().StringVar(&runUser, "user", "", "user id that owns the session")
	_ = run.MarkFlagRequired("user")

	cmd.AddCommand(create, resolve, destroy, run)
	return cmd
}

// reportDurable explains a miss on the in-process store, consulting the
// durable mirror when there is one.
func reportDurable(ctx context.Context, w io.Writer, st session.Store, sessionID string) error {
	checker, ok := st.(durableChecker)
	if !ok {
		return oops.Code("CLI_UNKNOWN_SESSION").Errorf("no live session with that id")
	}
	exists, err := checker.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if exists {
		fmt.Fprintln(w, "No live session in this process; durable record present")
		return nil
	}
	return oops.Code("CLI_UNKNOWN_SESSION").Errorf("no live session or durable record with that id")
}

func runSessionCycle(ctx context.Context, w io.Writer, st session.Store, userID string) error {
	id, ok := st.Create(ctx, userID)
	if !ok {
		return oops.Code("CLI_SESSION_CREATE_FAILED").With("user", userID).Errorf("session not created")
	}
	fmt.Fprintf(w, "created  %s\n", id)

	owner, ok := st.Resolve(ctx, id)
	fmt.Fprintf(w, "resolved %s ok=%t\n", owner, ok)

	fmt.Fprintf(w, "destroyed ok=%t\n", st.Destroy(ctx, id))

	_, ok = st.Resolve(ctx, id)
	fmt.Fprintf(w, "resolve after destroy ok=%t\n", ok)
	return nil
}
