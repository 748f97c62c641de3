package services

import "github.com/chrisyuska/paper-trail/internal/domain/entities"

// snapshotAttributes builds the pre-mutation attribute state: schema
// attributes at their value before the change, attributes outside the schema
// (virtual or computed) at their current value, resolved-skip attributes
// excluded. The record is never mutated.
func snapshotAttributes(rec entities.Trackable, pol entities.Policy, phase entities.Phase) map[string]any {
	skip := pol.ResolvedSkip(rec)
	changes := rec.Changes(phase)

	schema := make(map[string]bool)
	snap := make(map[string]any)
	for _, name := range rec.AttributeNames() {
		schema[name] = true
		if skip[name] {
			continue
		}
		if ch, ok := changes[name]; ok {
			snap[name] = ch.Old
			continue
		}
		snap[name] = rec.Attribute(name)
	}

	for name, value := range rec.Attributes() {
		if schema[name] || skip[name] {
			continue
		}
		snap[name] = value
	}
	return snap
}

// diffChanges filters the changed-attribute map down to the notably changed
// entries.
func diffChanges(rec entities.Trackable, pol entities.Policy, phase entities.Phase) map[string]entities.Change {
	notable := NotablyChanged(rec, pol, phase)
	if len(notable) == 0 {
		return nil
	}

	changes := rec.Changes(phase)
	diff := make(map[string]entities.Change, len(notable))
	for _, name := range notable {
		if ch, ok := changes[name]; ok {
			diff[name] = ch
		}
	}
	return diff
}
