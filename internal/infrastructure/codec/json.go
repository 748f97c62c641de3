// Package codec provides the JSON implementation of the payload codec.
package codec

import (
	"encoding/json"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// JSON encodes snapshots and diffs as JSON documents. Diffs serialize as
// {attribute: [old, new]}.
type JSON struct{}

// MarshalAttributes encodes a snapshot mapping.
func (JSON) MarshalAttributes(attrs map[string]any) ([]byte, error) {
	return json.Marshal(attrs)
}

// UnmarshalAttributes decodes a snapshot mapping.
func (JSON) UnmarshalAttributes(data []byte) (map[string]any, error) {
	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// MarshalChanges encodes a diff mapping.
func (JSON) MarshalChanges(changes map[string]entities.Change) ([]byte, error) {
	return json.Marshal(changes)
}

// UnmarshalChanges decodes a diff mapping.
func (JSON) UnmarshalChanges(data []byte) (map[string]entities.Change, error) {
	var changes map[string]entities.Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}
