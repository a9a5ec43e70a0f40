package pick

import (
	"testing"
	"time"

	"packcall/internal/lanes"
	"packcall/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTolerances() Tolerances {
	return Tolerances{Premium: 0.01, Yield: 0.0001, BannedYield: 0.01}
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	snap := lanes.Snapshot{Version: 1, LoadedAt: time.Now(), Lanes: lanes.DefaultLanes()}
	return NewEvaluator(snap, defaultTolerances(), "run-1", time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC))
}

func quote(price float64) *market.Quote {
	return &market.Quote{Ticker: "AAPL", Price: price, Source: "snap"}
}

func chainRow(strike, bid, ask float64) market.ChainRow {
	return market.ChainRow{
		Strike: market.Float(strike),
		Bid:    market.Float(bid),
		Ask:    market.Float(ask),
		Source: "chain",
	}
}

func TestEvaluateHappyPath(t *testing.T) {
	eval := newTestEvaluator(t)
	raw := Raw{
		Ticker: "AAPL",
		Quote:  quote(50),
		Expiry: "2026-09-04",
		Chain:  []market.ChainRow{chainRow(52.5, 0.60, 0.70)},
		Signal: &market.Signal{Ticker: "AAPL", Score: 0.4, Source: "oced"},
	}

	cand, failure, audits := eval.Evaluate(raw)
	require.Nil(t, failure)
	require.NotNil(t, cand)

	assert.Equal(t, "AAPL", cand.Ticker)
	assert.Equal(t, 52.5, cand.Strike)
	assert.InDelta(t, 0.65, cand.CallMid, 1e-9)
	assert.InDelta(t, 65.0, cand.Premium100, 1e-9)
	assert.InDelta(t, 5000.0, cand.PackCost, 1e-9)
	assert.InDelta(t, 0.013, cand.PremiumYield, 1e-9)
	assert.Equal(t, PremiumSourceCalc, cand.PremiumSource)
	assert.Equal(t, "snap", cand.PriceSource)
	assert.Equal(t, "chain", cand.ChainSource)
	// spread 0.10/0.65 breaks the SAFE cap, SAFE_HIGH takes it
	assert.Equal(t, lanes.LaneSafeHigh, cand.Lane)
	require.NotNil(t, cand.SignalScore)
	assert.InDelta(t, 0.4, *cand.SignalScore, 1e-9)

	require.Len(t, audits, 4)
	for _, rec := range audits {
		assert.True(t, rec.OK, "audit %s should pass", rec.Field)
		assert.Equal(t, "run-1", rec.RunID)
	}
}

func TestEvaluateMissingPrice(t *testing.T) {
	eval := newTestEvaluator(t)
	raw := Raw{Ticker: "AAPL", Expiry: "2026-09-04", Chain: []market.ChainRow{chainRow(52.5, 0.6, 0.7)}}

	cand, failure, audits := eval.Evaluate(raw)
	require.Nil(t, cand)
	require.NotNil(t, failure)
	assert.Equal(t, StagePrice, failure.Stage)
	assert.Equal(t, ReasonMissingPrice, failure.Reason)
	assert.Empty(t, audits)
}

func TestEvaluateMissingChain(t *testing.T) {
	eval := newTestEvaluator(t)
	raw := Raw{Ticker: "AAPL", Quote: quote(50), Expiry: "2026-09-04"}

	cand, failure, _ := eval.Evaluate(raw)
	require.Nil(t, cand)
	require.NotNil(t, failure)
	assert.Equal(t, StageChain, failure.Stage)
	assert.Equal(t, ReasonMissingChain, failure.Reason)
}

func TestEvaluateNoCandidate(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("yield below every lane", func(t *testing.T) {
		raw := Raw{
			Ticker: "AAPL",
			Quote:  quote(50),
			Expiry: "2026-09-04",
			Chain:  []market.ChainRow{chainRow(60, 0.02, 0.04)},
		}
		cand, failure, _ := eval.Evaluate(raw)
		require.Nil(t, cand)
		require.NotNil(t, failure)
		assert.Equal(t, StageSelection, failure.Stage)
		assert.Equal(t, ReasonNoCandidate, failure.Reason)
	})

	t.Run("crossed quote is skipped", func(t *testing.T) {
		raw := Raw{
			Ticker: "AAPL",
			Quote:  quote(50),
			Expiry: "2026-09-04",
			Chain:  []market.ChainRow{chainRow(52.5, 0.70, 0.60)},
		}
		cand, failure, _ := eval.Evaluate(raw)
		require.Nil(t, cand)
		require.NotNil(t, failure)
		assert.Equal(t, ReasonNoCandidate, failure.Reason)
	})
}

func TestEvaluateNullValues(t *testing.T) {
	eval := newTestEvaluator(t)

	run := func(row market.ChainRow) *FailureRecord {
		raw := Raw{Ticker: "AAPL", Quote: quote(50), Expiry: "2026-09-04", Chain: []market.ChainRow{row}}
		cand, failure, _ := eval.Evaluate(raw)
		require.Nil(t, cand)
		require.NotNil(t, failure)
		return failure
	}

	t.Run("null strike", func(t *testing.T) {
		failure := run(market.ChainRow{
			Bid: market.Float(0.60), Ask: market.Float(0.70), Source: "chain",
		})
		assert.Equal(t, StagePremium, failure.Stage)
		assert.Equal(t, ReasonNullStrike, failure.Reason)
	})

	t.Run("null bid with quoted mid", func(t *testing.T) {
		failure := run(market.ChainRow{
			Strike: market.Float(52.5), Mid: market.Float(0.65), Source: "chain",
		})
		assert.Equal(t, StagePremium, failure.Stage)
		assert.Equal(t, ReasonNullBid, failure.Reason)
	})

	t.Run("null ask with quoted mid", func(t *testing.T) {
		failure := run(market.ChainRow{
			Strike: market.Float(52.5), Bid: market.Float(0.60),
			Mid: market.Float(0.65), Source: "chain",
		})
		assert.Equal(t, StagePremium, failure.Stage)
		assert.Equal(t, ReasonNullAsk, failure.Reason)
	})
}

func TestEvaluatePlaceholderPremium(t *testing.T) {
	eval := newTestEvaluator(t)
	// mid 0.50 on a 50.00 stock: premium_100 equals the price and the yield
	// equals the banned constant; the placeholder reason wins.
	raw := Raw{
		Ticker: "AAPL",
		Quote:  quote(50),
		Expiry: "2026-09-04",
		Chain:  []market.ChainRow{chainRow(52.5, 0.45, 0.55)},
	}

	cand, failure, audits := eval.Evaluate(raw)
	require.Nil(t, cand)
	require.NotNil(t, failure)
	assert.Equal(t, StagePremium, failure.Stage)
	assert.Equal(t, ReasonPlaceholderMath, failure.Reason)

	require.Len(t, audits, 4)
	byField := map[string]AuditRecord{}
	for _, rec := range audits {
		byField[rec.Field] = rec
	}
	assert.True(t, byField["premium_100"].OK)
	assert.True(t, byField["premium_yield"].OK)
	assert.False(t, byField["premium_vs_price"].OK)
	assert.False(t, byField["constant_yield"].OK)
}

func TestEvaluateConstantYield(t *testing.T) {
	eval := newTestEvaluator(t)
	// yield 0.0100005 sits inside the placeholder window while premium_100
	// differs from the price by 0.50, so only the constant-yield gate fires.
	raw := Raw{
		Ticker: "AAPL",
		Quote:  quote(10000),
		Expiry: "2026-09-04",
		Chain:  []market.ChainRow{chainRow(10200, 100.00, 100.01)},
	}

	cand, failure, audits := eval.Evaluate(raw)
	require.Nil(t, cand)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonConstantYield, failure.Reason)
	require.Len(t, audits, 4)
}

func TestEvaluateYieldJustOutsidePlaceholderWindow(t *testing.T) {
	eval := newTestEvaluator(t)
	// mid 0.5002: premium_100 misses the price by 0.02 and the yield misses
	// the banned window, so the candidate survives both banned-state checks.
	raw := Raw{
		Ticker: "AAPL",
		Quote:  quote(50),
		Expiry: "2026-09-04",
		Chain: []market.ChainRow{{
			Strike: market.Float(52.5),
			Bid:    market.Float(0.5002),
			Ask:    market.Float(0.5002),
			Source: "chain",
		}},
	}

	cand, failure, _ := eval.Evaluate(raw)
	require.Nil(t, failure)
	require.NotNil(t, cand)
	assert.InDelta(t, 50.02, cand.Premium100, 1e-9)
}

func TestEvaluateMissingProvenance(t *testing.T) {
	eval := newTestEvaluator(t)
	row := chainRow(52.5, 0.60, 0.70)
	row.Source = ""
	raw := Raw{Ticker: "AAPL", Quote: quote(50), Expiry: "2026-09-04", Chain: []market.ChainRow{row}}

	cand, failure, audits := eval.Evaluate(raw)
	require.Nil(t, cand)
	require.NotNil(t, failure)
	assert.Equal(t, StageProvenance, failure.Stage)
	assert.Equal(t, ReasonMissingSource, failure.Reason)
	assert.Equal(t, "chain_source", failure.SourceTag)
	assert.Len(t, audits, 4)
}
