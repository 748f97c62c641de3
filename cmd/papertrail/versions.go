package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/relationaldb/sqlite"
)

func newVersionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "versions <item-type> <item-id>",
		Short: "List an item's versions",
		Long:  "Lists the recorded versions of one item, oldest first.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd, args[0], args[1], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of versions to display")

	return cmd
}

func runVersions(cmd *cobra.Command, itemType, itemID string, limit int) error {
	ctx := cmd.Context()

	return withStore(func(store *sqlite.Repository) error {
		versions, err := store.VersionsFor(ctx, itemType, itemID, limit)
		if err != nil {
			return fmt.Errorf("listing versions: %w", err)
		}

		if len(versions) == 0 {
			fmt.Printf("No versions recorded for %s/%s.\n", itemType, itemID)
			return nil
		}

		count, _ := store.CountVersions(ctx, itemType, itemID)
		displayVersions(versions, count)
		return nil
	})
}

func displayVersions(versions []entities.Version, totalCount int) {
	if totalCount > 0 {
		fmt.Printf("Showing %d of %d versions:\n\n", len(versions), totalCount)
	} else {
		fmt.Printf("Showing %d versions:\n\n", len(versions))
	}

	for _, v := range versions {
		displayVersionLine(v)
	}
}

func displayVersionLine(v entities.Version) {
	fmt.Printf("ID: %s\n", v.ID)
	fmt.Printf("  [%s] %s/%s at %s\n", v.Event, v.ItemType, v.ItemID, v.CreatedAt.Format(time.RFC3339))
	if v.Whodunnit != "" {
		fmt.Printf("  By: %s\n", v.Whodunnit)
	}
	if v.TransactionID != "" {
		fmt.Printf("  Transaction: %s\n", v.TransactionID)
	}
	fmt.Println()
}
