package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
)

const lastSyncKey = "last_sync"

// Snapshot is the full set of mirrored collections
type Snapshot struct {
	Reservations []booking.Reservation
	Payments     []booking.Payment
	Properties   []property.Property
}

// Snapshotter encodes domain entities into mirror records and back
type Snapshotter struct {
	store Store
}

// NewSnapshotter wraps a store
func NewSnapshotter(store Store) *Snapshotter {
	return &Snapshotter{store: store}
}

// Store returns the wrapped store
func (s *Snapshotter) Store() Store {
	return s.store
}

// Replace swaps each collection for the snapshot's records. Collections are
// replaced one at a time; a failure leaves that collection and the ones after
// it holding their previous contents.
func (s *Snapshotter) Replace(ctx context.Context, snap Snapshot) error {
	reservations, err := encodeAll(snap.Reservations, func(r booking.Reservation) string { return r.BookingID })
	if err != nil {
		return err
	}
	payments, err := encodeAll(snap.Payments, func(p booking.Payment) string { return p.ID.String() })
	if err != nil {
		return err
	}
	properties, err := encodeAll(snap.Properties, func(p property.Property) string { return p.ID.String() })
	if err != nil {
		return err
	}

	for _, c := range []struct {
		name    string
		records []Record
	}{
		{CollectionReservations, reservations},
		{CollectionPayments, payments},
		{CollectionProperties, properties},
	} {
		if err := s.store.ReplaceAll(ctx, c.name, c.records); err != nil {
			return err
		}
	}
	return nil
}

// Load decodes every mirrored collection
func (s *Snapshotter) Load(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Reservations, err = decodeAll[booking.Reservation](ctx, s.store, CollectionReservations); err != nil {
		return Snapshot{}, err
	}
	if snap.Payments, err = decodeAll[booking.Payment](ctx, s.store, CollectionPayments); err != nil {
		return Snapshot{}, err
	}
	if snap.Properties, err = decodeAll[property.Property](ctx, s.store, CollectionProperties); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// MarkSynced stores the sync marker in the meta collection
func (s *Snapshotter) MarkSynced(ctx context.Context, at time.Time) error {
	data, err := json.Marshal(at.UTC())
	if err != nil {
		return err
	}
	return s.store.Put(ctx, CollectionMeta, Record{Key: lastSyncKey, Data: data, UpdatedAt: at.UTC()})
}

// LastSynced returns the stored sync marker. ok is false when the mirror was never synced.
func (s *Snapshotter) LastSynced(ctx context.Context) (at time.Time, ok bool, err error) {
	records, err := s.store.GetAll(ctx, CollectionMeta)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, r := range records {
		if r.Key != lastSyncKey {
			continue
		}
		if err := json.Unmarshal(r.Data, &at); err != nil {
			return time.Time{}, false, fmt.Errorf("decode sync marker: %w", err)
		}
		return at, true, nil
	}
	return time.Time{}, false, nil
}

// Counts returns the number of records held per collection
func (s *Snapshotter) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Collections))
	for _, c := range Collections {
		records, err := s.store.GetAll(ctx, c)
		if err != nil {
			return nil, err
		}
		out[c] = len(records)
	}
	return out, nil
}

func encodeAll[T any](items []T, key func(T) string) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key(item), err)
		}
		out = append(out, Record{Key: key(item), Data: data})
	}
	return out, nil
}

func decodeAll[T any](ctx context.Context, store Store, collection string) ([]T, error) {
	records, err := store.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		var item T
		if err := json.Unmarshal(r.Data, &item); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, r.Key, err)
		}
		out = append(out, item)
	}
	return out, nil
}
