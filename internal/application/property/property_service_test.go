package property

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, activeOnly bool) ([]property.Property, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]property.Property), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, p *property.Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) HasReservations(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func newService() (*PropertyService, *MockRepository, *MockEventPublisher) {
	repo := new(MockRepository)
	pub := new(MockEventPublisher)
	svc := NewPropertyService(repo, nil)
	svc.SetEventPublisher(pub)
	return svc, repo, pub
}

func TestPropertyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active property", func(t *testing.T) {
		svc, repo, pub := newService()
		repo.On("Save", ctx, mock.AnythingOfType("*property.Property")).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return(nil)

		p, err := svc.Create(ctx, PropertyRequest{Name: " Sea View ", Capacity: 4, OccupancyTarget: 70})
		require.NoError(t, err)
		assert.Equal(t, "Sea View", p.Name)
		assert.True(t, p.Active)
		pub.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("inactive on request", func(t *testing.T) {
		svc, repo, pub := newService()
		repo.On("Save", ctx, mock.Anything).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return(nil)

		inactive := false
		p, err := svc.Create(ctx, PropertyRequest{Name: "Hill Top", Capacity: 2, Active: &inactive})
		require.NoError(t, err)
		assert.False(t, p.Active)
	})

	t.Run("validation", func(t *testing.T) {
		svc, repo, _ := newService()
		_, err := svc.Create(ctx, PropertyRequest{Name: "X", Capacity: 2, OccupancyTarget: 120})
		assert.ErrorIs(t, err, shared.ErrValidation)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPropertyService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newService()
	p, err := property.NewProperty("Sea View", "", 4, 70)
	require.NoError(t, err)
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	pub.On("Publish", ctx, mock.Anything).Return(nil)

	inactive := false
	got, err := svc.Update(ctx, p.ID, PropertyRequest{Name: "Sea View Villa", Capacity: 6, OccupancyTarget: 65, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Sea View Villa", got.Name)
	assert.Equal(t, 6, got.Capacity)
	assert.False(t, got.Active)
}

func TestPropertyService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while reservations exist", func(t *testing.T) {
		svc, repo, _ := newService()
		p, _ := property.NewProperty("Sea View", "", 4, 70)
		repo.On("FindByID", ctx, p.ID).Return(p, nil)
		repo.On("HasReservations", ctx, p.ID).Return(true, nil)

		err := svc.Delete(ctx, p.ID)
		assert.ErrorIs(t, err, shared.ErrConflict)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes an unused property", func(t *testing.T) {
		svc, repo, pub := newService()
		p, _ := property.NewProperty("Sea View", "", 4, 70)
		repo.On("FindByID", ctx, p.ID).Return(p, nil)
		repo.On("HasReservations", ctx, p.ID).Return(false, nil)
		repo.On("Delete", ctx, p.ID).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return(nil)

		require.NoError(t, svc.Delete(ctx, p.ID))
		events := pub.Calls[0].Arguments.Get(1).([]shared.DomainEvent)
		assert.Equal(t, property.EventTypePropertyDeleted, events[0].EventType())
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newService()
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, id), shared.ErrNotFound)
	})
}
