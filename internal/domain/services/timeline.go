package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
	"github.com/chrisyuska/paper-trail/internal/domain/ports"
)

// Timeline reconstructs historical states from versions and navigates an
// item's version sequence.
type Timeline struct {
	store  ports.VersionStore
	codec  ports.Codec
	loader ports.RecordLoader
}

// NewTimeline creates a Timeline. loader may be nil when live-record
// fallbacks are not needed.
func NewTimeline(store ports.VersionStore, codec ports.Codec, loader ports.RecordLoader) *Timeline {
	return &Timeline{store: store, codec: codec, loader: loader}
}

// Reify reconstructs the record state a version captured. The result is
// transient (never-persisted as far as persistence guards can tell) and keeps
// a back-reference to its source version. A version without a snapshot (a
// create version) reifies to nil: it captures no prior state.
func (t *Timeline) Reify(ctx context.Context, v *entities.Version) (*entities.Record, error) {
	if v == nil || len(v.Snapshot) == 0 {
		return nil, nil
	}

	attrs, err := t.codec.UnmarshalAttributes(v.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot of version %s: %w", v.ID, err)
	}

	rec := entities.NewRecord(v.ItemType, v.ItemID)
	for name, value := range attrs {
		rec.Schema = append(rec.Schema, name)
		rec.Attrs[name] = value
	}
	sort.Strings(rec.Schema)
	rec.SetSourceVersion(v)
	return rec, nil
}

// Originator returns the actor responsible for rec's current state: the
// source version's actor for a reified record, otherwise the actor of the
// item's latest version.
func (t *Timeline) Originator(ctx context.Context, rec *entities.Record) (string, error) {
	if v := rec.SourceVersion(); v != nil {
		return v.Whodunnit, nil
	}
	latest, err := t.store.LatestVersion(ctx, rec.ItemType(), rec.ItemID())
	if err != nil {
		return "", fmt.Errorf("loading latest version: %w", err)
	}
	if latest == nil {
		return "", nil
	}
	return latest.Whodunnit, nil
}

// PreviousVersion reifies the state one step back in rec's history: the
// version before the source version for a reified record, or the latest
// version for a live record (a version stores pre-change state, so the latest
// version's snapshot is the state before the most recent change).
func (t *Timeline) PreviousVersion(ctx context.Context, rec *entities.Record) (*entities.Record, error) {
	var prev *entities.Version
	var err error
	if src := rec.SourceVersion(); src != nil {
		prev, err = t.store.PreviousVersion(ctx, src)
	} else {
		prev, err = t.store.LatestVersion(ctx, rec.ItemType(), rec.ItemID())
	}
	if err != nil {
		return nil, fmt.Errorf("loading previous version: %w", err)
	}
	return t.Reify(ctx, prev)
}

// NextVersion reifies the state one step forward from a reified record. Past
// the most recent version it falls back to the live record. Any lookup
// failure means "no next version": the result is nil, never an error.
func (t *Timeline) NextVersion(ctx context.Context, rec *entities.Record) (*entities.Record, error) {
	src := rec.SourceVersion()
	if src == nil {
		return nil, nil
	}

	next, err := t.store.NextVersion(ctx, src)
	if err != nil {
		return nil, nil
	}
	if next == nil {
		return t.liveRecord(ctx, rec.ItemType(), rec.ItemID()), nil
	}

	state, err := t.Reify(ctx, next)
	if err != nil {
		return nil, nil
	}
	return state, nil
}

// VersionAt reconstructs the item's state as of the given time. A version
// stores pre-change state, so the state at that time lives in the first
// version created strictly after it. When no such version exists (or the only
// candidate is a snapshot-less create version) the live record is returned,
// unless the item has since been destroyed, in which case no valid state
// exists and the result is nil.
func (t *Timeline) VersionAt(ctx context.Context, itemType, itemID string, at time.Time) (*entities.Record, error) {
	v, err := t.store.FirstVersionAfter(ctx, itemType, itemID, at)
	if err != nil {
		return nil, fmt.Errorf("loading version after %s: %w", at.Format(time.RFC3339), err)
	}
	if v != nil && len(v.Snapshot) > 0 {
		return t.Reify(ctx, v)
	}

	latest, err := t.store.LatestVersion(ctx, itemType, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}
	if latest != nil && latest.Event == entities.EventDestroy {
		return nil, nil
	}
	return t.liveRecord(ctx, itemType, itemID), nil
}

// VersionsBetween returns the reconstructed states for every version created
// in (start, end], oldest first. Snapshot-less versions are skipped.
func (t *Timeline) VersionsBetween(ctx context.Context, itemType, itemID string, start, end time.Time) ([]*entities.Record, error) {
	versions, err := t.store.VersionsBetween(ctx, itemType, itemID, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading versions between: %w", err)
	}

	states := make([]*entities.Record, 0, len(versions))
	for i := range versions {
		state, err := t.Reify(ctx, &versions[i])
		if err != nil {
			return nil, err
		}
		if state != nil {
			states = append(states, state)
		}
	}
	return states, nil
}

func (t *Timeline) liveRecord(ctx context.Context, itemType, itemID string) *entities.Record {
	if t.loader == nil {
		return nil
	}
	rec, err := t.loader.Load(ctx, itemType, itemID)
	if err != nil {
		return nil
	}
	return rec
}
