package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/ecscore/internal/component"
)

const sample = `
worlds:
  - name: arena
    entities: 3
    spacing: 2
    origin: {x: 10, y: 1}
    velocity: {x: 1}
    health: 100
    regen: 0.5
  - name: lobby
    entities: 0
`

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	tbl, err := LoadSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	arena := tbl.Get("arena")
	require.NotNil(t, arena)
	assert.Equal(t, 3, arena.Entities)
	assert.Equal(t, component.Position{X: 14, Y: 1}, arena.Position(2))
	assert.Equal(t, int32(100), arena.Health)

	lobby := tbl.Get("lobby")
	require.NotNil(t, lobby)
	assert.Equal(t, float32(1), lobby.Spacing, "spacing defaults to 1")
	assert.Nil(t, tbl.Get("missing"))
	assert.Equal(t, "arena", tbl.All()[0].Name)
}

func TestParseSeedsErrors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":  "worlds: [",
		"no name":   "worlds:\n  - entities: 1\n",
		"negative":  "worlds:\n  - name: a\n    entities: -1\n",
		"duplicate": "worlds:\n  - name: a\n  - name: a\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeeds([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedsMissingFile(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
