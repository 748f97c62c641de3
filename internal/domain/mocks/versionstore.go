// Package mocks provides hand-written mock implementations of the domain
// ports for use in service tests.
package mocks

import (
	"context"
	"time"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// VersionStore is a mock implementation of ports.VersionStore backed by an
// insertion-ordered slice.
type VersionStore struct {
	Versions     []entities.Version
	Associations []entities.VersionAssociation

	Err       error // returned by every method when set
	SaveErr   error // returned by SaveVersion only
	AssignErr error // returned by AssignTransactionID only
	AssocErr  error // returned by SaveAssociation only
}

// NewVersionStore creates an empty mock VersionStore.
func NewVersionStore() *VersionStore {
	return &VersionStore{}
}

// EnsureSchema creates the storage schema if it doesn't exist.
func (m *VersionStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close releases the underlying storage handle.
func (m *VersionStore) Close() error {
	return nil
}

// SaveVersion inserts a new version.
func (m *VersionStore) SaveVersion(_ context.Context, v *entities.Version) error {
	if m.Err != nil {
		return m.Err
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Versions = append(m.Versions, *v)
	return nil
}

// AssignTransactionID backfills a version's transaction id at most once.
func (m *VersionStore) AssignTransactionID(_ context.Context, versionID, transactionID string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.AssignErr != nil {
		return m.AssignErr
	}
	for i := range m.Versions {
		if m.Versions[i].ID == versionID && m.Versions[i].TransactionID == "" {
			m.Versions[i].TransactionID = transactionID
		}
	}
	return nil
}

// SaveAssociation inserts one association capture.
func (m *VersionStore) SaveAssociation(_ context.Context, a *entities.VersionAssociation) error {
	if m.Err != nil {
		return m.Err
	}
	if m.AssocErr != nil {
		return m.AssocErr
	}
	m.Associations = append(m.Associations, *a)
	return nil
}

// AssociationsFor lists the association captures of one version.
func (m *VersionStore) AssociationsFor(_ context.Context, versionID string) ([]entities.VersionAssociation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.VersionAssociation
	for _, a := range m.Associations {
		if a.VersionID == versionID {
			out = append(out, a)
		}
	}
	return out, nil
}

// VersionsFor lists an item's versions in insertion order, oldest first.
func (m *VersionStore) VersionsFor(_ context.Context, itemType, itemID string, limit int) ([]entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.itemVersions(itemType, itemID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestVersion returns an item's most recent version, or nil.
func (m *VersionStore) LatestVersion(_ context.Context, itemType, itemID string) (*entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	vs := m.itemVersions(itemType, itemID)
	if len(vs) == 0 {
		return nil, nil
	}
	v := vs[len(vs)-1]
	return &v, nil
}

// FindVersion returns a version by id, or nil.
func (m *VersionStore) FindVersion(_ context.Context, id string) (*entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, v := range m.Versions {
		if v.ID == id {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

// PreviousVersion returns the version inserted before v for the same item.
func (m *VersionStore) PreviousVersion(_ context.Context, v *entities.Version) (*entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	vs := m.itemVersions(v.ItemType, v.ItemID)
	for i := range vs {
		if vs[i].ID == v.ID && i > 0 {
			prev := vs[i-1]
			return &prev, nil
		}
	}
	return nil, nil
}

// NextVersion returns the version inserted after v for the same item.
func (m *VersionStore) NextVersion(_ context.Context, v *entities.Version) (*entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	vs := m.itemVersions(v.ItemType, v.ItemID)
	for i := range vs {
		if vs[i].ID == v.ID && i < len(vs)-1 {
			next := vs[i+1]
			return &next, nil
		}
	}
	return nil, nil
}

// FirstVersionAfter returns an item's first version created strictly after t.
func (m *VersionStore) FirstVersionAfter(_ context.Context, itemType, itemID string, t time.Time) (*entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, v := range m.itemVersions(itemType, itemID) {
		if v.CreatedAt.After(t) {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

// VersionsBetween lists an item's versions with start < created_at <= end.
func (m *VersionStore) VersionsBetween(_ context.Context, itemType, itemID string, start, end time.Time) ([]entities.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.Version
	for _, v := range m.itemVersions(itemType, itemID) {
		if v.CreatedAt.After(start) && !v.CreatedAt.After(end) {
			out = append(out, v)
		}
	}
	return out, nil
}

// CountVersions counts an item's versions.
func (m *VersionStore) CountVersions(_ context.Context, itemType, itemID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.itemVersions(itemType, itemID)), nil
}

func (m *VersionStore) itemVersions(itemType, itemID string) []entities.Version {
	var out []entities.Version
	for _, v := range m.Versions {
		if v.ItemType == itemType && v.ItemID == itemID {
			out = append(out, v)
		}
	}
	return out
}
