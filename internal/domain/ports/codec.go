package ports

import "github.com/chrisyuska/paper-trail/internal/domain/entities"

// Codec encodes snapshot and diff payloads into their storable form and back.
// Marshal and unmarshal must round-trip losslessly for supported value types.
type Codec interface {
	MarshalAttributes(attrs map[string]any) ([]byte, error)
	UnmarshalAttributes(data []byte) (map[string]any, error)

	// MarshalChanges encodes a diff as {attribute: [old, new]}.
	MarshalChanges(changes map[string]entities.Change) ([]byte, error)
	UnmarshalChanges(data []byte) (map[string]entities.Change, error)
}
