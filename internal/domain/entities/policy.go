package entities

// Predicate is a runtime condition evaluated against the record under
// mutation. Predicates are resolved once per evaluation, never cached, since
// their result may depend on the record's transient state.
type Predicate func(Trackable) bool

// AttributeRule is one ignore/skip/only entry: either a bare attribute name
// or a name guarded by a predicate.
type AttributeRule struct {
	Name string
	If   Predicate
}

// Attr is shorthand for an unconditional AttributeRule.
func Attr(name string) AttributeRule { return AttributeRule{Name: name} }

// AttrIf builds a predicate-guarded AttributeRule.
func AttrIf(name string, p Predicate) AttributeRule {
	return AttributeRule{Name: name, If: p}
}

// MetadataField produces one key of a version's metadata: a constant Value,
// or a Func computed from the record at recording time.
type MetadataField struct {
	Key   string
	Value any
	Func  func(Trackable) any
}

// DefaultTimestampColumns are the auto-maintained bookkeeping columns whose
// movement alone never makes a mutation notable.
var DefaultTimestampColumns = []string{"updated_at", "updated_on"}

// Policy is the per-item-type tracking configuration. Pure data; the services
// consult it, it does nothing on its own.
type Policy struct {
	Ignore []AttributeRule
	Skip   []AttributeRule
	Only   []AttributeRule

	Meta []MetadataField

	// EnabledIf, when set, gates tracking per record instance.
	EnabledIf Predicate

	TrackAssociations bool
	RecordDiffs       bool

	// TimestampColumns overrides DefaultTimestampColumns when non-nil.
	TimestampColumns []string
}

func resolveRules(rules []AttributeRule, rec Trackable) map[string]bool {
	set := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.If != nil && !rule.If(rec) {
			continue
		}
		set[rule.Name] = true
	}
	return set
}

// ResolvedIgnore evaluates the ignore rules against rec.
func (p Policy) ResolvedIgnore(rec Trackable) map[string]bool { return resolveRules(p.Ignore, rec) }

// ResolvedSkip evaluates the skip rules against rec.
func (p Policy) ResolvedSkip(rec Trackable) map[string]bool { return resolveRules(p.Skip, rec) }

// ResolvedOnly evaluates the only rules against rec.
func (p Policy) ResolvedOnly(rec Trackable) map[string]bool { return resolveRules(p.Only, rec) }

// EnabledFor reports whether the policy allows tracking this record.
func (p Policy) EnabledFor(rec Trackable) bool {
	return p.EnabledIf == nil || p.EnabledIf(rec)
}

// ResolveMeta computes the metadata mapping for one version.
func (p Policy) ResolveMeta(rec Trackable) map[string]any {
	if len(p.Meta) == 0 {
		return nil
	}
	meta := make(map[string]any, len(p.Meta))
	for _, f := range p.Meta {
		if f.Func != nil {
			meta[f.Key] = f.Func(rec)
			continue
		}
		meta[f.Key] = f.Value
	}
	return meta
}

// Timestamps returns the effective auto-timestamp column set.
func (p Policy) Timestamps() map[string]bool {
	cols := p.TimestampColumns
	if cols == nil {
		cols = DefaultTimestampColumns
	}
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}
