package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/shared"
)

func TestNewProperty(t *testing.T) {
	t.Run("creates active property", func(t *testing.T) {
		p, err := NewProperty(" Sea View Villa ", "Calangute, Goa", 6, 75)
		require.NoError(t, err)
		assert.Equal(t, "Sea View Villa", p.Name)
		assert.True(t, p.Active)
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	tests := []struct {
		name     string
		propName string
		capacity int
		target   int
	}{
		{"empty name", " ", 2, 50},
		{"zero capacity", "Cottage", 0, 50},
		{"target above 100", "Cottage", 2, 101},
		{"negative target", "Cottage", 2, -1},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := NewProperty(tt.propName, "", tt.capacity, tt.target)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestPropertyCanHost(t *testing.T) {
	p, err := NewProperty("Cottage", "", 4, 60)
	require.NoError(t, err)

	assert.True(t, p.CanHost(4))
	assert.False(t, p.CanHost(5))

	p.Deactivate()
	assert.False(t, p.CanHost(1))
	p.Activate()
	assert.True(t, p.CanHost(1))
}
