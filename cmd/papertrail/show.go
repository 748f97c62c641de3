package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisyuska/paper-trail/internal/infrastructure/codec"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/relationaldb/sqlite"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show one version in full",
		Long:  "Displays a version's payload: snapshot, diff, metadata, and association captures.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, versionID string) error {
	ctx := cmd.Context()

	return withStore(func(store *sqlite.Repository) error {
		v, err := store.FindVersion(ctx, versionID)
		if err != nil {
			return fmt.Errorf("loading version: %w", err)
		}
		if v == nil {
			return fmt.Errorf("version not found: %s", versionID)
		}

		fmt.Printf("ID: %s\n", v.ID)
		fmt.Printf("Item: %s/%s\n", v.ItemType, v.ItemID)
		fmt.Printf("Event: %s\n", v.Event)
		fmt.Printf("Created: %s\n", v.CreatedAt.Format(time.RFC3339))
		if v.Whodunnit != "" {
			fmt.Printf("By: %s\n", v.Whodunnit)
		}
		if v.TransactionID != "" {
			fmt.Printf("Transaction: %s\n", v.TransactionID)
		}

		var c codec.JSON
		if len(v.Snapshot) > 0 {
			attrs, err := c.UnmarshalAttributes(v.Snapshot)
			if err != nil {
				return fmt.Errorf("decoding snapshot: %w", err)
			}
			fmt.Println("\nSnapshot (state before the change):")
			for _, name := range sortedKeys(attrs) {
				fmt.Printf("  %s: %v\n", name, attrs[name])
			}
		}

		if len(v.Changes) > 0 {
			changes, err := c.UnmarshalChanges(v.Changes)
			if err != nil {
				return fmt.Errorf("decoding changes: %w", err)
			}
			fmt.Println("\nChanges:")
			names := make([]string, 0, len(changes))
			for name := range changes {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				ch := changes[name]
				fmt.Printf("  %s: %v -> %v\n", name, ch.Old, ch.New)
			}
		}

		if len(v.Meta) > 0 {
			fmt.Println("\nMetadata:")
			for _, key := range sortedKeys(v.Meta) {
				fmt.Printf("  %s: %v\n", key, v.Meta[key])
			}
		}

		associations, err := store.AssociationsFor(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("loading associations: %w", err)
		}
		if len(associations) > 0 {
			fmt.Println("\nAssociations:")
			for _, a := range associations {
				fmt.Printf("  %s: %s\n", a.Relation, a.RelatedID)
			}
		}

		return nil
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
