package entities

import (
	"encoding/json"
	"reflect"
)

// Phase tells the engine which changed-attribute view a record currently
// exposes: the pending in-memory diff (the primary write has not landed yet)
// or the just-persisted diff (inside an after-write callback). The two views
// come from different dirty-tracking sources and are not interchangeable.
type Phase int

const (
	PhasePending Phase = iota
	PhaseCommitted
)

// Change is one attribute transition. It serializes as a two-element
// [old, new] array.
type Change struct {
	Old any
	New any
}

func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Old, c.New})
}

func (c *Change) UnmarshalJSON(data []byte) error {
	var pair [2]any
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Old, c.New = pair[0], pair[1]
	return nil
}

// Reference describes a belongs-to style relation on a tracked item. A fixed
// relation names its target type directly; a polymorphic relation leaves
// TargetType empty and names the attribute whose value holds the concrete
// type at runtime.
type Reference struct {
	Name          string
	TargetType    string
	TypeAttribute string
	IDAttribute   string
}

// Polymorphic reports whether the concrete target type must be read from the
// record's discriminator attribute.
func (r Reference) Polymorphic() bool { return r.TargetType == "" }

// ManyRelation is a many-to-many style relation flagged for join tracking.
// Added and Removed describe the in-flight mutation of the id set; they are
// supplied by whoever tracked that mutation, the engine only consumes them.
type ManyRelation struct {
	Name    string
	Current []string
	Added   []string
	Removed []string
}

// IDs returns the id set to capture for the owning version: the union of
// Current and Removed, minus Added.
func (m ManyRelation) IDs() []string {
	added := make(map[string]bool, len(m.Added))
	for _, id := range m.Added {
		added[id] = true
	}
	seen := make(map[string]bool, len(m.Current)+len(m.Removed))
	ids := make([]string, 0, len(m.Current)+len(m.Removed))
	for _, id := range append(append([]string(nil), m.Current...), m.Removed...) {
		if added[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Trackable is the engine's view of a live business record. The application
// owns the record; the engine only observes it at mutation points.
type Trackable interface {
	ItemType() string
	ItemID() string

	// Persisted reports whether the record has ever been saved.
	Persisted() bool

	// AttributeNames lists the schema-defined attribute names.
	AttributeNames() []string

	// Attributes returns all current values, including virtual attributes
	// that are not part of the schema.
	Attributes() map[string]any

	// Attribute returns the current value of one attribute.
	Attribute(name string) any

	// Changes returns the changed attributes with their old and new values
	// for the given phase.
	Changes(phase Phase) map[string]Change

	// References lists belongs-to style relations.
	References() []Reference

	// ManyRelations lists many-to-many style relations flagged for tracking.
	ManyRelations() []ManyRelation

	// RetainVersion hands the record the version just created for it, so an
	// in-flight destroy keeps a handle on its own version.
	RetainVersion(v *Version)
}

// Record is the reference Trackable implementation. Reification produces
// Records; applications with their own record types implement Trackable
// directly.
type Record struct {
	Type   string
	ID     string
	Schema []string
	Attrs  map[string]any
	Refs   []Reference
	Many   []ManyRelation

	pending   map[string]Change
	committed map[string]Change
	persisted bool

	sourceVersion   *Version
	retainedVersion *Version
}

// NewRecord creates a transient record with the given schema attributes.
func NewRecord(itemType, itemID string, schema ...string) *Record {
	return &Record{
		Type:    itemType,
		ID:      itemID,
		Schema:  schema,
		Attrs:   make(map[string]any),
		pending: make(map[string]Change),
	}
}

func (r *Record) ItemType() string { return r.Type }
func (r *Record) ItemID() string   { return r.ID }
func (r *Record) Persisted() bool  { return r.persisted }

func (r *Record) AttributeNames() []string { return r.Schema }

func (r *Record) Attributes() map[string]any {
	attrs := make(map[string]any, len(r.Attrs))
	for name, value := range r.Attrs {
		attrs[name] = value
	}
	return attrs
}

func (r *Record) Attribute(name string) any { return r.Attrs[name] }

func (r *Record) Changes(phase Phase) map[string]Change {
	src := r.pending
	if phase == PhaseCommitted {
		src = r.committed
	}
	changes := make(map[string]Change, len(src))
	for name, ch := range src {
		changes[name] = ch
	}
	return changes
}

func (r *Record) References() []Reference       { return r.Refs }
func (r *Record) ManyRelations() []ManyRelation { return r.Many }

func (r *Record) RetainVersion(v *Version) { r.retainedVersion = v }

// RetainedVersion returns the version handed over by RetainVersion, if any.
func (r *Record) RetainedVersion() *Version { return r.retainedVersion }

// Set assigns an attribute and records the transition in the pending change
// set. Re-assigning the original value clears the pending entry.
func (r *Record) Set(name string, value any) {
	old := r.Attrs[name]
	if prior, ok := r.pending[name]; ok {
		old = prior.Old
	}
	r.Attrs[name] = value
	if reflect.DeepEqual(old, value) {
		delete(r.pending, name)
		return
	}
	r.pending[name] = Change{Old: old, New: value}
}

// Commit marks the pending mutation as written: pending changes become the
// committed view and the record counts as persisted.
func (r *Record) Commit() {
	r.committed = r.pending
	r.pending = make(map[string]Change)
	r.persisted = true
}

// MarkPersisted flags a record loaded from storage as saved without going
// through Set and Commit.
func (r *Record) MarkPersisted() { r.persisted = true }

// SourceVersion returns the version this record was reified from, or nil for
// a live record.
func (r *Record) SourceVersion() *Version { return r.sourceVersion }

// SetSourceVersion tags a reified record with the version it came from.
func (r *Record) SetSourceVersion(v *Version) { r.sourceVersion = v }

// MasqueradeTransient runs fn with the record posing as never-persisted, so
// persistence-guard logic treats a reconstructed historical state correctly.
// The prior flag is restored on every exit path, panics included.
func (r *Record) MasqueradeTransient(fn func(*Record) error) error {
	prev := r.persisted
	r.persisted = false
	defer func() { r.persisted = prev }()
	return fn(r)
}
