package booking

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestIDGenerator(t *testing.T) {
	fixed := func() time.Time { return time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC) }

	t.Run("generates ten distinct well-formed ids", func(t *testing.T) {
		g := NewIDGenerator(WithClock(fixed))
		seen := make(map[string]struct{})
		for i := 0; i < 10; i++ {
			id, err := g.Generate()
			require.NoError(t, err)
			assert.True(t, IsValidBookingID(id), id)
			assert.Len(t, id, 11)
			assert.Equal(t, "HST25", id[:5])
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, 10)
	})

	t.Run("maps entropy onto the alphabet", func(t *testing.T) {
		g := NewIDGenerator(WithClock(fixed), WithRandomSource(bytes.NewReader([]byte{0, 1, 8, 13, 24, 31})))
		id, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, "HST25ABJP29", id)
	})

	t.Run("never emits ambiguous symbols", func(t *testing.T) {
		all := make([]byte, 256)
		for i := range all {
			all[i] = byte(i)
		}
		g := NewIDGenerator(WithRandomSource(bytes.NewReader(all)))
		for i := 0; i < 256/6; i++ {
			id, err := g.Generate()
			require.NoError(t, err)
			assert.NotContains(t, id[5:], "0")
			assert.NotContains(t, id[5:], "1")
			assert.NotContains(t, id[5:], "I")
			assert.NotContains(t, id[5:], "O")
		}
	})

	t.Run("propagates entropy failure", func(t *testing.T) {
		g := NewIDGenerator(WithRandomSource(failingReader{}))
		_, err := g.Generate()
		assert.Error(t, err)
	})
}

func TestIsValidBookingID(t *testing.T) {
	assert.True(t, IsValidBookingID("HST25ABCDEF"))
	assert.False(t, IsValidBookingID("HST25ABCDE"))
	assert.False(t, IsValidBookingID("HST25ABCDE0"))
	assert.False(t, IsValidBookingID("HST25ABCDEI"))
	assert.False(t, IsValidBookingID("XYZ25ABCDEF"))
	assert.False(t, IsValidBookingID("hst25abcdef"))
}
