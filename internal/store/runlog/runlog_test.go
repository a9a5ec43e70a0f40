package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppendAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, Record{
		RunID: "run-1", Trigger: "startup", StartedAt: 100, FinishedAt: 105,
		Tickers: 3, Validated: 2, Failures: 1,
	}))
	require.NoError(t, j.Append(ctx, Record{
		RunID: "run-2", Trigger: "interval", StartedAt: 400, FinishedAt: 404,
		Tickers: 3, Validated: 3, Promotions: 1, Note: "feed hiccup",
	}))

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// newest first
	assert.Equal(t, "run-2", recent[0].RunID)
	assert.Equal(t, "run-1", recent[1].RunID)
	assert.Equal(t, 1, recent[0].Promotions)
	assert.Equal(t, "feed hiccup", recent[0].Note)

	one, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "run-2", one[0].RunID)
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, Record{RunID: "run-1", Trigger: "manual", StartedAt: 1, FinishedAt: 2}))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	recent, err := reopened.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "run-1", recent[0].RunID)
}
