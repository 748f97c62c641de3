package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
	"github.com/chrisyuska/paper-trail/internal/domain/ports"
)

// ErrNotPersisted is returned when a column update is recorded against a
// record that was never saved.
var ErrNotPersisted = errors.New("record has never been persisted")

// Recorder decides whether a mutation is notable, assembles the version
// payload and writes it, correlates versions created inside one logical
// transaction, and captures association state.
//
// A failed version or association write is logged as a warning and swallowed:
// the caller's mutation must never fail because the audit trail is
// unavailable. The resulting gap is observable through the log only.
type Recorder struct {
	store    ports.VersionStore
	codec    ports.Codec
	policies map[string]entities.Policy
	log      zerolog.Logger

	trackAssociations bool
}

// NewRecorder creates a Recorder with association tracking on.
func NewRecorder(store ports.VersionStore, codec ports.Codec, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:             store,
		codec:             codec,
		policies:          make(map[string]entities.Policy),
		log:               log,
		trackAssociations: true,
	}
}

// SetAssociationTracking toggles association capture globally.
func (r *Recorder) SetAssociationTracking(on bool) { r.trackAssociations = on }

// Track registers the tracking policy for an item type. Untracked types are
// never versioned.
func (r *Recorder) Track(itemType string, pol entities.Policy) {
	r.policies[itemType] = pol
}

// PolicyFor returns the registered policy for itemType.
func (r *Recorder) PolicyFor(itemType string) (entities.Policy, bool) {
	pol, ok := r.policies[itemType]
	return pol, ok
}

func (r *Recorder) enabled(scope *Scope, rec entities.Trackable) (entities.Policy, bool) {
	pol, ok := r.policies[rec.ItemType()]
	if !ok || !scope.Enabled(rec.ItemType()) || !pol.EnabledFor(rec) {
		return entities.Policy{}, false
	}
	return pol, true
}

// RecordCreate records a create event for rec. Call it while the creating
// mutation's changes are still pending. Returns the created version, or nil
// when tracking is off or the write failed.
func (r *Recorder) RecordCreate(ctx context.Context, scope *Scope, rec entities.Trackable) *entities.Version {
	pol, ok := r.enabled(scope, rec)
	if !ok {
		return nil
	}

	v := &entities.Version{
		ItemType: rec.ItemType(),
		ItemID:   rec.ItemID(),
		Event:    entities.EventCreate,
	}
	if pol.RecordDiffs && IsNotable(rec, pol, entities.PhasePending) {
		r.encodeDiff(v, diffChanges(rec, pol, entities.PhasePending), rec)
	}
	return r.persist(ctx, scope, rec, v, pol)
}

// RecordUpdate records an update event. force bypasses the notability gate;
// phase selects which changed-attribute view the record currently exposes.
func (r *Recorder) RecordUpdate(ctx context.Context, scope *Scope, rec entities.Trackable, force bool, phase entities.Phase) *entities.Version {
	pol, ok := r.enabled(scope, rec)
	if !ok {
		return nil
	}
	if !force && !IsNotable(rec, pol, phase) {
		return nil
	}

	v := &entities.Version{
		ItemType: rec.ItemType(),
		ItemID:   rec.ItemID(),
		Event:    entities.EventUpdate,
	}
	r.encodeSnapshot(v, rec, pol, phase)
	if pol.RecordDiffs {
		r.encodeDiff(v, diffChanges(rec, pol, phase), rec)
	}
	return r.persist(ctx, scope, rec, v, pol)
}

// RecordDestroy records a destroy event carrying the full pre-deletion state.
// A record that was never saved produces nothing. The created version is
// handed back to the record via RetainVersion so the in-flight deletion keeps
// a reference to it.
func (r *Recorder) RecordDestroy(ctx context.Context, scope *Scope, rec entities.Trackable, phase entities.Phase) *entities.Version {
	pol, ok := r.enabled(scope, rec)
	if !ok || !rec.Persisted() {
		return nil
	}

	v := &entities.Version{
		ItemType: rec.ItemType(),
		ItemID:   rec.ItemID(),
		Event:    entities.EventDestroy,
	}
	r.encodeSnapshot(v, rec, pol, phase)

	created := r.persist(ctx, scope, rec, v, pol)
	if created != nil {
		rec.RetainVersion(created)
	}
	return created
}

// RecordColumnUpdate records an update applied through a raw column write.
// Dirty tracking is bypassed on that path, so the caller supplies the old and
// new values explicitly. Calling it for a never-persisted record is a
// precondition violation.
func (r *Recorder) RecordColumnUpdate(ctx context.Context, scope *Scope, rec entities.Trackable, changes map[string]entities.Change) (*entities.Version, error) {
	if !rec.Persisted() {
		return nil, fmt.Errorf("recording column update for %s/%s: %w", rec.ItemType(), rec.ItemID(), ErrNotPersisted)
	}
	pol, ok := r.enabled(scope, rec)
	if !ok {
		return nil, nil
	}

	v := &entities.Version{
		ItemType: rec.ItemType(),
		ItemID:   rec.ItemID(),
		Event:    entities.EventUpdate,
	}
	// The in-memory record still holds the pre-write values; snapshot them.
	r.encodeSnapshot(v, rec, pol, entities.PhasePending)
	if pol.RecordDiffs && len(changes) > 0 {
		r.encodeDiff(v, changes, rec)
	}
	return r.persist(ctx, scope, rec, v, pol), nil
}

func (r *Recorder) encodeSnapshot(v *entities.Version, rec entities.Trackable, pol entities.Policy, phase entities.Phase) {
	data, err := r.codec.MarshalAttributes(snapshotAttributes(rec, pol, phase))
	if err != nil {
		r.warn(rec, v.Event, err, "snapshot not encoded")
		return
	}
	v.Snapshot = data
}

func (r *Recorder) encodeDiff(v *entities.Version, diff map[string]entities.Change, rec entities.Trackable) {
	if len(diff) == 0 {
		return
	}
	data, err := r.codec.MarshalChanges(diff)
	if err != nil {
		r.warn(rec, v.Event, err, "diff not encoded")
		return
	}
	v.Changes = data
}

// persist finalizes and writes the version, correlates it with the open
// transaction, and captures associations. Store failures are contained here.
func (r *Recorder) persist(ctx context.Context, scope *Scope, rec entities.Trackable, v *entities.Version, pol entities.Policy) *entities.Version {
	v.ID = uuid.New().String()
	v.CreatedAt = time.Now()
	v.Whodunnit = scope.Whodunnit
	v.Meta = mergeMeta(pol.ResolveMeta(rec), scope.Meta)
	if txID, ok := scope.TransactionID(); ok {
		v.TransactionID = txID
	}

	if err := r.store.SaveVersion(ctx, v); err != nil {
		r.warn(rec, v.Event, err, "version not recorded")
		return nil
	}

	// First version of an open transaction: its own id becomes the
	// transaction's correlation id, written back exactly once. Safe only
	// because this runs synchronously inside the owning transaction.
	if scope.InTransaction() && v.TransactionID == "" {
		scope.adoptTransactionID(v.ID)
		if err := r.store.AssignTransactionID(ctx, v.ID, v.ID); err != nil {
			r.warn(rec, v.Event, err, "transaction id not assigned")
		} else {
			v.TransactionID = v.ID
		}
	}

	r.captureAssociations(ctx, scope, rec, v, pol)
	return v
}

func mergeMeta(policyMeta, scopeMeta map[string]any) map[string]any {
	if len(policyMeta) == 0 && len(scopeMeta) == 0 {
		return nil
	}
	meta := make(map[string]any, len(policyMeta)+len(scopeMeta))
	for k, v := range policyMeta {
		meta[k] = v
	}
	for k, v := range scopeMeta {
		meta[k] = v
	}
	return meta
}

func (r *Recorder) warn(rec entities.Trackable, event entities.EventKind, err error, msg string) {
	r.log.Warn().
		Str("item_type", rec.ItemType()).
		Str("item_id", rec.ItemID()).
		Str("event", string(event)).
		Err(err).
		Msg(msg)
}
