package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add guests table", "add_guests_table"},
		{"Add-Guests-Table", "add_guests_table"},
		{"ADD_GUESTS_TABLE", "add_guests_table"},
		{"add__guests__table", "add_guests_table"},
		{"Add Index 2", "add_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "add guests table", "Guest profiles")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_guests_table.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_guests_table.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add guests table")
	assert.Contains(t, string(up), "-- Guest profiles")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := Create(dir, "index guest phone", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = Create(dir, "!!!", "")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_later.up.sql", "000010_later.down.sql",
		"000002_early.up.sql",
		"README.md",
		"notanumber_x.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	entries, err := List(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Version: 2, Name: "early"}, entries[0])
	assert.Equal(t, Entry{Version: 10, Name: "later", HasDown: true}, entries[1])

	missing, err := List(os.DirFS(filepath.Join(dir, "nope")))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEmbedded(t *testing.T) {
	entries, err := Embedded()
	require.NoError(t, err)
	require.Len(t, entries, 5)

	names := make([]string, len(entries))
	for i, e := range entries {
		assert.Equal(t, uint(i+1), e.Version)
		assert.True(t, e.HasDown, e.Name)
		names[i] = e.Name
	}
	assert.Equal(t, []string{
		"create_users", "create_properties", "create_reservations",
		"create_payments", "create_push_subscriptions",
	}, names)
}
