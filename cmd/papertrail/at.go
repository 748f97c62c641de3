package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisyuska/paper-trail/internal/domain/services"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/codec"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/relationaldb/sqlite"
)

func newAtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "at <item-type> <item-id> <timestamp>",
		Short: "Reconstruct an item's state at a point in time",
		Long:  "Reifies the item's state as of the given RFC3339 timestamp from its version history.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAt(cmd, args[0], args[1], args[2])
		},
	}
}

func runAt(cmd *cobra.Command, itemType, itemID, timestamp string) error {
	ctx := cmd.Context()

	at, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q (expected RFC3339, e.g. 2026-01-02T15:04:05Z): %w", timestamp, err)
	}

	return withStore(func(store *sqlite.Repository) error {
		// The CLI has no access to the live record, so states newer than the
		// last version cannot be reconstructed here.
		timeline := services.NewTimeline(store, codec.JSON{}, nil)

		state, err := timeline.VersionAt(ctx, itemType, itemID, at)
		if err != nil {
			return fmt.Errorf("reconstructing state: %w", err)
		}
		if state == nil {
			fmt.Printf("No reconstructable state for %s/%s at %s (newer than the last version, or destroyed).\n",
				itemType, itemID, at.Format(time.RFC3339))
			return nil
		}

		fmt.Printf("State of %s/%s at %s", itemType, itemID, at.Format(time.RFC3339))
		if src := state.SourceVersion(); src != nil {
			fmt.Printf(" (from version %s)", src.ID)
		}
		fmt.Println(":")
		for _, name := range sortedKeys(state.Attributes()) {
			fmt.Printf("  %s: %v\n", name, state.Attribute(name))
		}
		return nil
	})
}
