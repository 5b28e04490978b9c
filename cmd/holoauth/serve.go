// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
)

const (
	readinessTimeout = 2 * time.Second
	shutdownTimeout  = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics and health endpoints",
		Long: `Serve /metrics, /healthz/liveness and /healthz/readiness on
metrics.addr until interrupted. Readiness fails while the account store
does not answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd)
		},
	}
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	var svc *auth.Service
	ready := func() bool {
		if svc == nil {
			return false
		}
		probeCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
		defer cancel()
		if err := svc.Ping(probeCtx); err != nil {
			a.logger.Warn("readiness probe failed", "error", err)
			return false
		}
		return true
	}

	srv := a.deps.ObservabilityServerFactory(a.cfg.Metrics.Addr, ready)
	svc, err = a.service(b, auth.WithRecorder(srv.Metrics()))
	if err != nil {
		return err
	}

	errCh, err := srv.Start()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", srv.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}
	return serveErr
}
