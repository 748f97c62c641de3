// Package main provides the entry point for the papertrail CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	// Initialize structured logging from environment.
	level, parseErr := zerolog.ParseLevel(os.Getenv("PAPERTRAIL_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "papertrail",
		Short:   "Inspect the audit trail of tracked records",
		Version: version,
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newVersionsCmd(),
		newShowCmd(),
		newAtCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
