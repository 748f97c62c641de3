// Package sqlite provides a SQLite implementation of the VersionStore
// interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/config"
)

// Repository implements ports.VersionStore using SQLite. Versions of one item
// are ordered by rowid, which is monotonic per insert; timestamps are stored
// as integer nanoseconds so range queries compare exactly.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Versions (one immutable row per notable mutation)
	CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		item_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		event TEXT NOT NULL,
		whodunnit TEXT,
		snapshot TEXT,
		changes TEXT,
		meta TEXT,
		transaction_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_versions_item ON versions(item_type, item_id);
	CREATE INDEX IF NOT EXISTS idx_versions_item_created ON versions(item_type, item_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_versions_transaction ON versions(transaction_id);

	-- Association captures (related item ids at the moment of the mutation)
	CREATE TABLE IF NOT EXISTS version_associations (
		id TEXT PRIMARY KEY,
		version_id TEXT NOT NULL REFERENCES versions(id),
		relation TEXT NOT NULL,
		related_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_version_associations_version ON version_associations(version_id);
	CREATE INDEX IF NOT EXISTS idx_version_associations_related ON version_associations(relation, related_id);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const versionColumns = `id, item_type, item_id, event, whodunnit, snapshot, changes, meta, transaction_id, created_at`

// SaveVersion inserts a new version.
func (r *Repository) SaveVersion(ctx context.Context, v *entities.Version) error {
	var meta []byte
	if len(v.Meta) > 0 {
		var err error
		meta, err = json.Marshal(v.Meta)
		if err != nil {
			return fmt.Errorf("marshaling version meta: %w", err)
		}
	}

	query := `
		INSERT INTO versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.ItemType,
		v.ItemID,
		string(v.Event),
		nullString(v.Whodunnit),
		nullString(string(v.Snapshot)),
		nullString(string(v.Changes)),
		nullString(string(meta)),
		nullString(v.TransactionID),
		v.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving version: %w", err)
	}
	return nil
}

// AssignTransactionID backfills a version's transaction correlation id. A
// version that already carries one is left untouched.
func (r *Repository) AssignTransactionID(ctx context.Context, versionID, transactionID string) error {
	query := `
		UPDATE versions
		SET transaction_id = ?
		WHERE id = ? AND transaction_id IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, transactionID, versionID); err != nil {
		return fmt.Errorf("assigning transaction id: %w", err)
	}
	return nil
}

// SaveAssociation inserts one association capture.
func (r *Repository) SaveAssociation(ctx context.Context, a *entities.VersionAssociation) error {
	query := `
		INSERT INTO version_associations (id, version_id, relation, related_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.VersionID,
		a.Relation,
		a.RelatedID,
		a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving version association: %w", err)
	}
	return nil
}

// AssociationsFor lists the association captures of one version.
func (r *Repository) AssociationsFor(ctx context.Context, versionID string) ([]entities.VersionAssociation, error) {
	query := `
		SELECT id, version_id, relation, related_id, created_at
		FROM version_associations
		WHERE version_id = ?
		ORDER BY rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("querying version associations: %w", err)
	}
	defer rows.Close()

	associations := make([]entities.VersionAssociation, 0, 4)
	for rows.Next() {
		var a entities.VersionAssociation
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.VersionID, &a.Relation, &a.RelatedID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning version association: %w", err)
		}
		a.CreatedAt = time.Unix(0, createdAt)
		associations = append(associations, a)
	}
	return associations, rows.Err()
}

// VersionsFor lists an item's versions in insertion order, oldest first. A
// non-positive limit means no limit.
func (r *Repository) VersionsFor(ctx context.Context, itemType, itemID string, limit int) ([]entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ?
		ORDER BY rowid ASC
	`
	args := []any{itemType, itemID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	return collectVersions(rows)
}

// LatestVersion returns an item's most recent version, or nil.
func (r *Repository) LatestVersion(ctx context.Context, itemType, itemID string) (*entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ?
		ORDER BY rowid DESC
		LIMIT 1
	`
	return r.queryVersion(ctx, query, itemType, itemID)
}

// FindVersion returns a version by id, or nil.
func (r *Repository) FindVersion(ctx context.Context, id string) (*entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE id = ?
	`
	return r.queryVersion(ctx, query, id)
}

// PreviousVersion returns the version inserted immediately before v for the
// same item, or nil.
func (r *Repository) PreviousVersion(ctx context.Context, v *entities.Version) (*entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ?
		  AND rowid < (SELECT rowid FROM versions WHERE id = ?)
		ORDER BY rowid DESC
		LIMIT 1
	`
	return r.queryVersion(ctx, query, v.ItemType, v.ItemID, v.ID)
}

// NextVersion returns the version inserted immediately after v for the same
// item, or nil.
func (r *Repository) NextVersion(ctx context.Context, v *entities.Version) (*entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ?
		  AND rowid > (SELECT rowid FROM versions WHERE id = ?)
		ORDER BY rowid ASC
		LIMIT 1
	`
	return r.queryVersion(ctx, query, v.ItemType, v.ItemID, v.ID)
}

// FirstVersionAfter returns an item's first version created strictly after t,
// or nil.
func (r *Repository) FirstVersionAfter(ctx context.Context, itemType, itemID string, t time.Time) (*entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ? AND created_at > ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`
	return r.queryVersion(ctx, query, itemType, itemID, t.UnixNano())
}

// VersionsBetween lists an item's versions with start < created_at <= end,
// oldest first.
func (r *Repository) VersionsBetween(ctx context.Context, itemType, itemID string, start, end time.Time) ([]entities.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE item_type = ? AND item_id = ? AND created_at > ? AND created_at <= ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, itemType, itemID, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("querying versions between: %w", err)
	}
	defer rows.Close()

	return collectVersions(rows)
}

// CountVersions counts an item's versions.
func (r *Repository) CountVersions(ctx context.Context, itemType, itemID string) (int, error) {
	query := `SELECT COUNT(*) FROM versions WHERE item_type = ? AND item_id = ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, itemType, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting versions: %w", err)
	}
	return count, nil
}

func (r *Repository) queryVersion(ctx context.Context, query string, args ...any) (*entities.Version, error) {
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func collectVersions(rows *sql.Rows) ([]entities.Version, error) {
	versions := make([]entities.Version, 0, 16)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*entities.Version, error) {
	var v entities.Version
	var event string
	var whodunnit, snapshot, changes, meta, transactionID sql.NullString
	var createdAt int64

	err := row.Scan(
		&v.ID,
		&v.ItemType,
		&v.ItemID,
		&event,
		&whodunnit,
		&snapshot,
		&changes,
		&meta,
		&transactionID,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning version: %w", err)
	}

	v.Event = entities.EventKind(event)
	v.Whodunnit = whodunnit.String
	v.TransactionID = transactionID.String
	v.CreatedAt = time.Unix(0, createdAt)
	if snapshot.Valid {
		v.Snapshot = []byte(snapshot.String)
	}
	if changes.Valid {
		v.Changes = []byte(changes.String)
	}
	if meta.Valid {
		if err := json.Unmarshal([]byte(meta.String), &v.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling version meta: %w", err)
		}
	}

	return &v, nil
}

// nullString maps "" to NULL so absent payloads stay absent in storage.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
