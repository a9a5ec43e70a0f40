package lanes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLanesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryEmptyPathServesDefaults(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap.Lanes, 3)
	assert.Equal(t, LaneSafe, snap.Lanes[0].Name)
	assert.Equal(t, LaneSafeHigh, snap.Lanes[1].Name)
	assert.Equal(t, LaneAggressive, snap.Lanes[2].Name)
}

func TestRegistryLoadsFile(t *testing.T) {
	path := writeLanesFile(t, `
lanes:
  tight:
    order: 1
    max_spread_pct: 0.05
    min_yield: 0.02
    weights:
      yield: 0.5
      risk: 0.4
      signal: 0.1
  loose:
    order: 2
    max_spread_pct: 0.30
    min_yield: 0.001
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap.Lanes, 2)
	assert.Equal(t, "TIGHT", snap.Lanes[0].Name)
	assert.Equal(t, "LOOSE", snap.Lanes[1].Name)

	loose, ok := snap.Lane("loose")
	require.True(t, ok)
	// unset strike factor and weights fall back to defaults
	assert.InDelta(t, 0.8, loose.StrikeFactor, 1e-9)
	assert.InDelta(t, 0.6, loose.Weights.Yield, 1e-9)
}

func TestRegistryRejectsBadFile(t *testing.T) {
	t.Run("negative threshold", func(t *testing.T) {
		path := writeLanesFile(t, `
lanes:
  bad:
    order: 1
    min_yield: -0.5
`)
		_, err := NewRegistry(path)
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeLanesFile(t, `
lanes:
  bad:
    order: 1
    min_yeild: 0.01
`)
		_, err := NewRegistry(path)
		require.Error(t, err)
	})

	t.Run("empty lane set", func(t *testing.T) {
		path := writeLanesFile(t, `lanes: {}`)
		_, err := NewRegistry(path)
		require.Error(t, err)
	})
}

func TestLaneAccepts(t *testing.T) {
	lane := Lane{Name: "SAFE", MaxSpreadPct: 0.10, MinYield: 0.012}

	assert.True(t, lane.Accepts(0.05, 0.015))
	assert.True(t, lane.Accepts(0.10, 0.012), "thresholds are inclusive")
	assert.False(t, lane.Accepts(0.11, 0.015))
	assert.False(t, lane.Accepts(0.05, 0.011))
}

func TestSnapshotLast(t *testing.T) {
	snap := Snapshot{Lanes: DefaultLanes()}
	last, ok := snap.Last()
	require.True(t, ok)
	assert.Equal(t, LaneAggressive, last.Name)

	_, ok = Snapshot{}.Last()
	assert.False(t, ok)
}
