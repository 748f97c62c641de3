package services

import (
	"sort"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// ChangedAndNotIgnored returns the record's changed attribute names minus the
// resolved ignore and skip sets, sorted for stable output.
func ChangedAndNotIgnored(rec entities.Trackable, pol entities.Policy, phase entities.Phase) []string {
	ignore := pol.ResolvedIgnore(rec)
	skip := pol.ResolvedSkip(rec)

	var names []string
	for name := range rec.Changes(phase) {
		if ignore[name] || skip[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NotablyChanged narrows ChangedAndNotIgnored by the resolved only set; an
// empty only set narrows nothing.
func NotablyChanged(rec entities.Trackable, pol entities.Policy, phase entities.Phase) []string {
	changed := ChangedAndNotIgnored(rec, pol, phase)
	only := pol.ResolvedOnly(rec)
	if len(only) == 0 {
		return changed
	}

	var kept []string
	for _, name := range changed {
		if only[name] {
			kept = append(kept, name)
		}
	}
	return kept
}

// IsNotable reports whether the mutation warrants a version: something
// notable changed, and the notable remainder is not just the auto-maintained
// timestamp columns moving. A touch that only advances updated_at never
// produces a version, even when an ignored or skipped attribute moved with it.
func IsNotable(rec entities.Trackable, pol entities.Policy, phase entities.Phase) bool {
	notable := NotablyChanged(rec, pol, phase)
	if len(notable) == 0 {
		return false
	}
	timestamps := pol.Timestamps()
	for _, name := range notable {
		if !timestamps[name] {
			return true
		}
	}
	return false
}
