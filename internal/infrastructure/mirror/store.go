// Package mirror is the agent's local copy of the remote data. It is written
// only by the sync controller and always loses to the remote on the next
// successful fetch.
package mirror

import (
	"context"
	"time"

	"github.com/staydesk/backend/internal/domain/shared"
)

// Collection names
const (
	CollectionReservations = "reservations"
	CollectionPayments     = "payments"
	CollectionProperties   = "properties"
	CollectionMeta         = "meta"
)

// Collections lists every collection the mirror knows about
var Collections = []string{
	CollectionReservations,
	CollectionPayments,
	CollectionProperties,
	CollectionMeta,
}

// Record is a single mirrored entity. Key is the entity's natural id.
type Record struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a keyed record store grouped by collection.
// Put is idempotent and last-write-wins. Nothing spans collections.
type Store interface {
	Put(ctx context.Context, collection string, record Record) error
	PutAll(ctx context.Context, collection string, records []Record) error
	// GetAll returns the collection's records ordered by key
	GetAll(ctx context.Context, collection string) ([]Record, error)
	// ReplaceAll swaps the collection's contents for records in one step.
	// On error the previous contents are still there.
	ReplaceAll(ctx context.Context, collection string, records []Record) error
	Clear(ctx context.Context, collection string) error
	Close() error
}

func validate(collection string, records ...Record) error {
	if collection == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "collection is required")
	}
	for _, r := range records {
		if r.Key == "" {
			return shared.NewDomainError(shared.CodeInvalidInput, "record key is required")
		}
	}
	return nil
}

func stamp(records []Record, now time.Time) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
		out[i] = r
	}
	return out
}
