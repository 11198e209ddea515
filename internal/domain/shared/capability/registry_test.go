package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/shared"
)

type greeter interface{ Greet() string }

type hello struct{}

func (hello) Greet() string { return "hello" }

func TestRegistry(t *testing.T) {
	t.Run("registers and looks up typed capability", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(PushSender, hello{}))

		g, ok := Lookup[greeter](r, PushSender)
		require.True(t, ok)
		assert.Equal(t, "hello", g.Greet())
		assert.True(t, r.Has(PushSender))
	})

	t.Run("missing capability is not an error", func(t *testing.T) {
		r := NewRegistry()
		g, ok := Lookup[greeter](r, ExportStorage)
		assert.False(t, ok)
		assert.Nil(t, g)
	})

	t.Run("nil registry behaves as empty", func(t *testing.T) {
		var r *Registry
		_, ok := Lookup[greeter](r, PushSender)
		assert.False(t, ok)
	})

	t.Run("wrong type reports false", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(MirrorStore, "not a greeter"))
		_, ok := Lookup[greeter](r, MirrorStore)
		assert.False(t, ok)
	})

	t.Run("rejects duplicates and empty names", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(PushSender, hello{}))
		assert.ErrorIs(t, r.Register(PushSender, hello{}), shared.ErrAlreadyExists)
		assert.ErrorIs(t, r.Register("", hello{}), shared.ErrInvalidInput)
		assert.ErrorIs(t, r.Register(EventStream, nil), shared.ErrInvalidInput)
	})

	t.Run("lists and unregisters", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(PushSender, hello{}))
		require.NoError(t, r.Register(ExportStorage, hello{}))
		assert.Equal(t, []string{ExportStorage, PushSender}, r.Names())

		require.NoError(t, r.Unregister(PushSender))
		assert.ErrorIs(t, r.Unregister(PushSender), shared.ErrNotFound)
		assert.Equal(t, []string{ExportStorage}, r.Names())
	})
}
