// Package entities contains core domain data structures.
package entities

import "time"

// EventKind identifies the mutation a version records.
type EventKind string

const (
	EventCreate  EventKind = "create"
	EventUpdate  EventKind = "update"
	EventDestroy EventKind = "destroy"
)

// Version is an immutable record of one notable mutation of a tracked item.
//
// Snapshot holds the item's attribute state immediately before the change
// (absent for create events). Changes holds the attribute-level diff encoded
// as {attribute: [old, new]}, present only when diff recording is enabled.
// TransactionID is shared by every version created inside one logical
// transaction; it equals the id of the transaction's first version and is
// backfilled onto that version exactly once after insert.
type Version struct {
	ID            string         `json:"id"`
	ItemType      string         `json:"item_type"`
	ItemID        string         `json:"item_id"`
	Event         EventKind      `json:"event"`
	Whodunnit     string         `json:"whodunnit,omitempty"`
	Snapshot      []byte         `json:"snapshot,omitempty"`
	Changes       []byte         `json:"changes,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// VersionAssociation links a version to one related item's foreign key as it
// stood at the moment of the mutation.
type VersionAssociation struct {
	ID        string    `json:"id"`
	VersionID string    `json:"version_id"`
	Relation  string    `json:"relation"`
	RelatedID string    `json:"related_id"`
	CreatedAt time.Time `json:"created_at"`
}
