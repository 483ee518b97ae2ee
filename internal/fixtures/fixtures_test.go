package fixtures

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSnapshot(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	s := Default().Snapshot(now)

	assert.Len(t, s.People, 6)
	assert.Len(t, s.Shops, 3)
	assert.Len(t, s.Recommendations, 10)
	assert.Equal(t, []string{"alice", "ben"}, s.PickOrder)
	assert.Equal(t, 95, s.Picks["alice"])
	require.NotNil(t, s.Shops[0].Lat)

	today := 0
	for _, sh := range s.Shifts {
		if sh.Date.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
			today++
		}
	}
	assert.Equal(t, 3, today)

	assert.True(t, s.Recommendations[9].CreatedAt.After(s.Recommendations[0].CreatedAt))
	assert.Len(t, s.Favorites, 2)
}

func TestParseRejectsDanglingReferences(t *testing.T) {
	_, err := Parse([]byte(`
people:
  - {slug: a, display_name: A}
shops: []
shifts:
  - {person: a, shop: nowhere, day: 0, start: "19:00", end: "20:00"}
`))
	assert.Error(t, err)

	_, err = Parse([]byte(`
people:
  - {slug: a}
  - {slug: a}
`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte("people:\n  - {slug: solo, display_name: Solo}\n"), 0o600))
	ds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ds.People, 1)
	assert.Equal(t, "Solo", ds.People[0].DisplayName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
