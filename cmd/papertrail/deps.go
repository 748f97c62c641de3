package main

import (
	"fmt"
	"os"

	"github.com/chrisyuska/paper-trail/internal/infrastructure/config"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/relationaldb/sqlite"
)

// Default limits for CLI commands.
const DefaultListLimit = 50

// withStore loads config, opens the version store, runs fn, and closes the
// store afterwards.
func withStore(fn func(*sqlite.Repository) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("opening version store: %w", err)
	}
	defer store.Close()

	return fn(store)
}
