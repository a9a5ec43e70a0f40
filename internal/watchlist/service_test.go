package watchlist

import (
	"context"
	"path/filepath"
	"testing"

	"packcall/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.NewSqliteStore(filepath.Join(t.TempDir(), "watch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st.Tickers())
}

func TestServiceAddDisableList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "aapl"))
	require.NoError(t, svc.Add(ctx, " msft "))
	require.NoError(t, svc.Add(ctx, "KO"))

	tickers, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "KO", "MSFT"}, tickers)

	require.NoError(t, svc.Disable(ctx, "msft"))
	tickers, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "KO"}, tickers)

	// re-adding a disabled ticker re-enables it
	require.NoError(t, svc.Add(ctx, "MSFT"))
	tickers, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, tickers, "MSFT")
}

func TestServiceRejectsEmptyTicker(t *testing.T) {
	svc := newTestService(t)
	assert.Error(t, svc.Add(context.Background(), "   "))
	assert.Error(t, svc.Disable(context.Background(), ""))
}

func TestServiceSeed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, []string{"aapl", "MSFT"}))
	tickers, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	// seeding is idempotent
	require.NoError(t, svc.Seed(ctx, []string{"AAPL"}))
	tickers, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tickers, 2)
}
