package promotion

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"packcall/internal/lanes"
	"packcall/internal/pick"
	"packcall/internal/store"
	"packcall/internal/store/model"
	"packcall/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewSqliteStore(filepath.Join(t.TempDir(), "promos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testEngine(t *testing.T, st store.Store, policy Policy) *Engine {
	t.Helper()
	registry, err := lanes.NewRegistry("")
	require.NoError(t, err)
	return NewEngine(st, registry, policy)
}

func testPolicy() Policy {
	return Policy{Seed: 9300, Lanes: []string{lanes.LaneSafe}, ExpectedMovePct: 0.02}
}

func candidate(ticker string, score float64) pick.Candidate {
	return pick.Candidate{
		Ticker:       ticker,
		RunID:        "run-1",
		RunTS:        time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC),
		Price:        50,
		Expiry:       "2026-09-04",
		Strike:       52.5,
		Premium100:   65,
		PremiumYield: 0.013,
		PackCost:     5000,
		Lane:         lanes.LaneSafe,
		Rank:         1,
		RankScore:    score,
	}
}

func TestEngineApprovesAndOpensPosition(t *testing.T) {
	st := testStore(t)
	eng := testEngine(t, st, testPolicy())
	ctx := context.Background()

	promos, err := eng.Run(ctx, "run-1", []pick.Candidate{candidate("AAPL", 9500)})
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, model.PromotionApproved, promos[0].Decision)
	assert.Empty(t, promos[0].Reason)

	open, err := st.Positions().FindOpen(ctx, "AAPL", "2026-09-04", OptionRight, 52.5)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, model.PositionOpen, open.Status)
	assert.Equal(t, 1, open.Qty)
	assert.Equal(t, 100, open.Shares)
	assert.InDelta(t, 65.0, open.PremiumOpen, 1e-9)

	rows, err := st.Promotions().ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Detail, &detail))
	assert.InDelta(t, 9500.0, detail["rank_score"].(float64), 1e-9)
	assert.InDelta(t, 9300.0, detail["threshold"].(float64), 1e-9)
	// SAFE strike factor 1.0 on a 2% move: 50 + 50*0.02
	assert.InDelta(t, 51.0, detail["target_strike"].(float64), 1e-9)
}

func TestEngineRerunRejectsAlreadyOpen(t *testing.T) {
	st := testStore(t)
	eng := testEngine(t, st, testPolicy())
	ctx := context.Background()

	first, err := eng.Run(ctx, "run-1", []pick.Candidate{candidate("AAPL", 9500)})
	require.NoError(t, err)
	require.Equal(t, model.PromotionApproved, first[0].Decision)

	second, err := eng.Run(ctx, "run-2", []pick.Candidate{candidate("AAPL", 9500)})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, model.PromotionRejected, second[0].Decision)
	assert.Equal(t, ReasonAlreadyOpen, second[0].Reason)

	// position count did not grow
	open, err := st.Positions().ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	// both decisions are on record
	rows, err := st.Promotions().ListRecent(ctx, "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEngineRejectionReasons(t *testing.T) {
	st := testStore(t)
	eng := testEngine(t, st, testPolicy())
	ctx := context.Background()

	t.Run("below threshold", func(t *testing.T) {
		promos, err := eng.Run(ctx, "run-1", []pick.Candidate{candidate("MSFT", 9000)})
		require.NoError(t, err)
		require.Len(t, promos, 1)
		assert.Equal(t, model.PromotionRejected, promos[0].Decision)
		assert.Equal(t, ReasonBelowThreshold, promos[0].Reason)
	})

	t.Run("lane mismatch", func(t *testing.T) {
		cand := candidate("KO", 9500)
		cand.Lane = lanes.LaneAggressive
		promos, err := eng.Run(ctx, "run-2", []pick.Candidate{cand})
		require.NoError(t, err)
		require.Len(t, promos, 1)
		assert.Equal(t, model.PromotionRejected, promos[0].Decision)
		assert.Equal(t, ReasonLaneMismatch, promos[0].Reason)
	})

	// no positions were opened for any rejection
	open, err := st.Positions().ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestEngineBudgetExhaustion(t *testing.T) {
	st := testStore(t)
	policy := testPolicy()
	policy.Budget = 6000
	eng := testEngine(t, st, policy)
	ctx := context.Background()

	strong := candidate("AAPL", 9800)
	weak := candidate("MSFT", 9400)
	weak.Strike = 310

	promos, err := eng.Run(ctx, "run-1", []pick.Candidate{weak, strong})
	require.NoError(t, err)
	require.Len(t, promos, 2)

	// best score first: AAPL consumes the budget, MSFT is refused
	assert.Equal(t, "AAPL", promos[0].Ticker)
	assert.Equal(t, model.PromotionApproved, promos[0].Decision)
	assert.Equal(t, "MSFT", promos[1].Ticker)
	assert.Equal(t, model.PromotionRejected, promos[1].Decision)
	assert.Equal(t, ReasonBudgetExhausted, promos[1].Reason)
}
