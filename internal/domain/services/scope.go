// Package services contains the domain logic of the versioning engine:
// change detection, payload building, version recording, and timeline
// navigation.
package services

import "errors"

// ErrNoBody is returned when WithoutTracking is called without a body.
var ErrNoBody = errors.New("without-tracking requires a body")

// Scope carries the ambient state of one logical unit of work: who is acting,
// ambient version metadata, per-type suppression, and the open transaction's
// correlation id. Create one Scope per request or job and hand it down; a
// Scope is owned by a single goroutine and must not be shared across
// concurrent units of work.
type Scope struct {
	// Whodunnit identifies the actor responsible for mutations in this scope.
	Whodunnit string

	// Meta is merged into the metadata of every version recorded in this
	// scope, on top of policy metadata.
	Meta map[string]any

	disabled map[string]bool

	txOpen bool
	txID   string
}

// NewScope returns a Scope with tracking enabled for every type.
func NewScope() *Scope {
	return &Scope{disabled: make(map[string]bool)}
}

// Enabled reports whether tracking is on for itemType in this scope.
func (s *Scope) Enabled(itemType string) bool { return !s.disabled[itemType] }

// Disable suppresses tracking for itemType until Enable is called.
func (s *Scope) Disable(itemType string) { s.disabled[itemType] = true }

// Enable lifts a suppression set by Disable.
func (s *Scope) Enable(itemType string) { delete(s.disabled, itemType) }

// WithoutTracking runs fn with tracking suppressed for itemType and restores
// the prior state on every exit path, panics included.
func (s *Scope) WithoutTracking(itemType string, fn func() error) error {
	if fn == nil {
		return ErrNoBody
	}
	prev := s.disabled[itemType]
	s.disabled[itemType] = true
	defer func() { s.disabled[itemType] = prev }()
	return fn()
}

// BeginTransaction marks a logical transaction open. The correlation id stays
// unassigned until the transaction's first version is persisted.
func (s *Scope) BeginTransaction() {
	s.txOpen = true
	s.txID = ""
}

// EndTransaction closes the logical transaction and clears the correlation id.
func (s *Scope) EndTransaction() {
	s.txOpen = false
	s.txID = ""
}

// InTransaction reports whether a logical transaction is open.
func (s *Scope) InTransaction() bool { return s.txOpen }

// TransactionID returns the open transaction's correlation id, if assigned.
func (s *Scope) TransactionID() (string, bool) {
	if !s.txOpen || s.txID == "" {
		return "", false
	}
	return s.txID, true
}

func (s *Scope) adoptTransactionID(id string) {
	if s.txOpen && s.txID == "" {
		s.txID = id
	}
}
