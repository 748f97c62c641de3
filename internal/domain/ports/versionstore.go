// Package ports defines the interfaces between the domain services and the
// infrastructure collaborators they depend on.
package ports

import (
	"context"
	"time"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// VersionStore is the persistence boundary for versions and their association
// captures. Implementations must order versions of one item by insertion
// (monotonic per item); cross-item ordering is not required.
type VersionStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying storage handle.
	Close() error

	// SaveVersion inserts a new version.
	SaveVersion(ctx context.Context, v *entities.Version) error

	// AssignTransactionID backfills a version's transaction correlation id.
	// The write applies at most once: a version that already carries a
	// transaction id is left untouched.
	AssignTransactionID(ctx context.Context, versionID, transactionID string) error

	// SaveAssociation inserts one association capture.
	SaveAssociation(ctx context.Context, a *entities.VersionAssociation) error

	// AssociationsFor lists the association captures of one version.
	AssociationsFor(ctx context.Context, versionID string) ([]entities.VersionAssociation, error)

	// VersionsFor lists an item's versions in insertion order, oldest first.
	// A non-positive limit means no limit.
	VersionsFor(ctx context.Context, itemType, itemID string, limit int) ([]entities.Version, error)

	// LatestVersion returns an item's most recent version, or nil.
	LatestVersion(ctx context.Context, itemType, itemID string) (*entities.Version, error)

	// FindVersion returns a version by id, or nil.
	FindVersion(ctx context.Context, id string) (*entities.Version, error)

	// PreviousVersion returns the version inserted immediately before v for
	// the same item, or nil.
	PreviousVersion(ctx context.Context, v *entities.Version) (*entities.Version, error)

	// NextVersion returns the version inserted immediately after v for the
	// same item, or nil.
	NextVersion(ctx context.Context, v *entities.Version) (*entities.Version, error)

	// FirstVersionAfter returns an item's first version created strictly
	// after t, or nil.
	FirstVersionAfter(ctx context.Context, itemType, itemID string, t time.Time) (*entities.Version, error)

	// VersionsBetween lists an item's versions with start < created_at <= end,
	// oldest first.
	VersionsBetween(ctx context.Context, itemType, itemID string, start, end time.Time) ([]entities.Version, error)

	// CountVersions counts an item's versions.
	CountVersions(ctx context.Context, itemType, itemID string) (int, error)
}
