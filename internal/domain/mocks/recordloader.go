package mocks

import (
	"context"
	"fmt"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// RecordLoader is a mock implementation of ports.RecordLoader.
type RecordLoader struct {
	Records map[string]*entities.Record
	Err     error
}

// NewRecordLoader creates an empty mock RecordLoader.
func NewRecordLoader() *RecordLoader {
	return &RecordLoader{Records: make(map[string]*entities.Record)}
}

// Add registers a live record for lookup.
func (m *RecordLoader) Add(rec *entities.Record) {
	m.Records[rec.ItemType()+"/"+rec.ItemID()] = rec
}

// Load resolves the live record for an item.
func (m *RecordLoader) Load(_ context.Context, itemType, itemID string) (*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.Records[itemType+"/"+itemID]
	if !ok {
		return nil, fmt.Errorf("record not found: %s/%s", itemType, itemID)
	}
	return rec, nil
}
