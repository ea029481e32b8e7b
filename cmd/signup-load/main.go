// Package main implements signup-load, a CLI that floods one activity with
// concurrent signups and checks the roster stays consistent.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/activities/internal/loadtest"
	"github.com/okian/activities/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadtest.NewConfig()
	var (
		runTimeout time.Duration
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "signup-load",
		Short: "Load test signups against the activities service",
		Long: `Signs up many generated students for one activity concurrently, verifies
the roster, checks duplicates are rejected, then unregisters everyone and
verifies the roster is back to where it started.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat)); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := loadtest.NewRunner(cfg, logger.Named("loadtest")).Run(ctx)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	f.StringVarP(&cfg.Activity, "activity", "a", cfg.Activity, "Activity to sign students up for")
	f.IntVarP(&cfg.Students, "students", "n", cfg.Students, "Number of students to sign up")
	f.IntVarP(&cfg.Concurrency, "concurrency", "c", cfg.Concurrency, "Number of concurrent requests")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.StringVar(&cfg.Domain, "domain", cfg.Domain, "Email domain for generated students")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "Overall run timeout")
	f.StringVar(&logFormat, "log-format", "console", "Log format: json or console")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every request")

	return cmd
}
