package ports

import (
	"context"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// RecordLoader resolves the live record for an item. The timeline uses it
// when navigation runs off the end of the version history.
type RecordLoader interface {
	Load(ctx context.Context, itemType, itemID string) (*entities.Record, error)
}
