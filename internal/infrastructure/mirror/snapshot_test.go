package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()

	prop, err := property.NewProperty("Hill View", "Munnar", 6, 70)
	require.NoError(t, err)

	res, err := booking.NewReservation("HST25ABCDEF",
		booking.Guest{Name: "Asha Rao", Adults: 2},
		booking.Stay{
			PropertyID: prop.ID,
			CheckIn:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			CheckOut:   time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		},
		decimal.NewFromInt(12000), booking.SourceAirbnb)
	require.NoError(t, err)

	pay, err := booking.NewPayment(res.BookingID, decimal.NewFromInt(4000), booking.PaymentMethodUPI, "UPI-9", time.Time{})
	require.NoError(t, err)

	return Snapshot{
		Reservations: []booking.Reservation{*res},
		Payments:     []booking.Payment{*pay},
		Properties:   []property.Property{*prop},
	}
}

func TestSnapshotter_ReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshotter(NewMemoryStore())
	want := sampleSnapshot(t)

	require.NoError(t, snap.Replace(ctx, want))
	got, err := snap.Load(ctx)
	require.NoError(t, err)

	require.Len(t, got.Reservations, 1)
	assert.Equal(t, "HST25ABCDEF", got.Reservations[0].BookingID)
	assert.Equal(t, 3, got.Reservations[0].Nights)
	assert.True(t, got.Reservations[0].TotalAmount.Equal(decimal.NewFromInt(12000)))
	require.Len(t, got.Payments, 1)
	assert.Equal(t, want.Payments[0].ID, got.Payments[0].ID)
	require.Len(t, got.Properties, 1)
	assert.Equal(t, "Hill View", got.Properties[0].Name)
}

func TestSnapshotter_ReplaceDropsStaleRecords(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshotter(NewMemoryStore())

	require.NoError(t, snap.Replace(ctx, sampleSnapshot(t)))
	require.NoError(t, snap.Replace(ctx, Snapshot{}))

	got, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Reservations)
	assert.Empty(t, got.Payments)
	assert.Empty(t, got.Properties)
}

func TestSnapshotter_SyncMarker(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshotter(NewMemoryStore())

	_, ok, err := snap.LastSynced(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, snap.MarkSynced(ctx, at))

	got, ok, err := snap.LastSynced(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	counts, err := snap.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[CollectionMeta])
	assert.Equal(t, 0, counts[CollectionReservations])
}

func TestSnapshotter_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/mirror.db"

	first, err := OpenSQLStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, NewSnapshotter(first).Replace(ctx, sampleSnapshot(t)))
	require.NoError(t, first.Close())

	second, err := OpenSQLStore(path, nil)
	require.NoError(t, err)
	defer second.Close()

	got, err := NewSnapshotter(second).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Reservations, 1)
	assert.NotEqual(t, uuid.Nil, got.Properties[0].ID)
}

// failingStore rejects writes to one collection
type failingStore struct {
	Store
	collection string
}

func (s *failingStore) ReplaceAll(ctx context.Context, collection string, records []Record) error {
	if collection == s.collection {
		return errors.New("disk full")
	}
	return s.Store.ReplaceAll(ctx, collection, records)
}

func TestSnapshotter_FailedReplaceKeepsCollection(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: NewMemoryStore()}
	snap := NewSnapshotter(store)

	old := sampleSnapshot(t)
	require.NoError(t, snap.Replace(ctx, old))

	store.collection = CollectionPayments
	require.Error(t, snap.Replace(ctx, Snapshot{}))

	got, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Reservations)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, old.Payments[0].ID, got.Payments[0].ID)
	assert.Len(t, got.Properties, 1)
}
