package pick

import (
	"fmt"
	"time"

	"packcall/internal/lanes"
	"packcall/internal/logger"
	"packcall/internal/market"

	"github.com/shopspring/decimal"
)

// bannedYieldEps is the equality window for the constant-yield placeholder
// check. The placeholder is an exact value; the epsilon only absorbs float
// round-trips.
const bannedYieldEps = 1e-6

// Tolerances are the absolute windows for the numeric math gates plus the
// banned placeholder yield value.
type Tolerances struct {
	Premium     float64
	Yield       float64
	BannedYield float64
}

// Evaluator runs a raw candidate through the ordered gate sequence. It is
// stateless per call: Evaluate returns the validated candidate or the
// failure, plus every audit row the numeric gates produced (pass and fail).
type Evaluator struct {
	lanes lanes.Snapshot
	tol   Tolerances
	runID string
	runTS time.Time
}

func NewEvaluator(laneSet lanes.Snapshot, tol Tolerances, runID string, runTS time.Time) *Evaluator {
	return &Evaluator{lanes: laneSet, tol: tol, runID: runID, runTS: runTS}
}

// Evaluate applies the nine gates in order, stopping at the first failure.
// Exactly one of the first two returns is non-nil.
func (e *Evaluator) Evaluate(raw Raw) (*Candidate, *FailureRecord, []AuditRecord) {
	var audits []AuditRecord

	// Gate 1: underlying price present.
	if raw.Quote == nil || raw.Quote.Price <= 0 {
		return nil, e.fail(raw.Ticker, StagePrice, ReasonMissingPrice, "no underlying price", ""), audits
	}
	price := raw.Quote.Price

	// Gate 2: option chain non-empty.
	if len(raw.Chain) == 0 {
		return nil, e.fail(raw.Ticker, StageChain, ReasonMissingChain,
			fmt.Sprintf("no chain rows for expiry %s", raw.Expiry), ""), audits
	}

	// Gate 3: a contract clearing some lane's filters exists. Lanes are
	// walked safest first; within the winning lane the highest-yield row is
	// taken. Rows with unknown spread stay eligible here so the null-value
	// gate can name the missing leg.
	sel, ok := e.selectContract(raw.Chain, price)
	if !ok {
		return nil, e.fail(raw.Ticker, StageSelection, ReasonNoCandidate,
			"no contract clears any lane filter", ""), audits
	}

	// Gate 4: strike, bid, ask all non-null on the chosen row.
	if sel.row.Strike == nil {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonNullStrike, "strike is null", sel.row.Source), audits
	}
	if sel.row.Bid == nil {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonNullBid, "bid is null", sel.row.Source), audits
	}
	if sel.row.Ask == nil {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonNullAsk, "ask is null", sel.row.Source), audits
	}

	// Gate 5: derive premium_100, pack_cost, premium_yield. Pure computation
	// on decimals; no rejection here.
	midDec := decimal.NewFromFloat(sel.mid)
	priceDec := decimal.NewFromFloat(price)
	premDec := midDec.Mul(decimal.NewFromInt(100))
	packDec := priceDec.Mul(decimal.NewFromInt(100))
	yieldDec := decimal.Zero
	if packDec.IsPositive() {
		yieldDec = premDec.Div(packDec)
	}
	prem, _ := premDec.Float64()
	pack, _ := packDec.Float64()
	yld, _ := yieldDec.Float64()

	// Gate 6: numeric tolerance checks. Audited pass or fail.
	premOK := absDiff(premDec, midDec.Mul(decimal.NewFromInt(100))) < e.tol.Premium && sel.mid > 0 && prem > 0
	yieldOK := packDec.IsPositive() &&
		absDiff(yieldDec, premDec.Div(packDec)) < e.tol.Yield && yld > 0
	audits = append(audits,
		e.audit(raw.Ticker, StagePremium, "premium_100", sel.mid*100, prem, premOK, sel.row.Source),
		e.audit(raw.Ticker, StagePremium, "premium_yield", safeDiv(prem, pack), yld, yieldOK, PremiumSourceCalc),
	)
	if !premOK || !yieldOK {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonMathMismatch,
			fmt.Sprintf("premium_100=%v premium_yield=%v mid=%v pack=%v", prem, yld, sel.mid, pack), sel.row.Source), audits
	}

	// Gate 7: banned placeholder states. premium_100 == price means someone
	// upstream copied the stock price into the premium column; yield == the
	// placeholder constant means a hardcoded 1% proxy leaked through.
	notPlaceholder := absDiff(premDec, priceDec) >= e.tol.Premium
	notConstant := absDiff(yieldDec, decimal.NewFromFloat(e.tol.BannedYield)) >= bannedYieldEps
	audits = append(audits,
		e.audit(raw.Ticker, StagePremium, "premium_vs_price", price, prem, notPlaceholder, sel.row.Source),
		e.audit(raw.Ticker, StagePremium, "constant_yield", e.tol.BannedYield, yld, notConstant, PremiumSourceCalc),
	)
	if !notPlaceholder {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonPlaceholderMath,
			fmt.Sprintf("premium_100 %v equals price %v", prem, price), sel.row.Source), audits
	}
	if !notConstant {
		return nil, e.fail(raw.Ticker, StagePremium, ReasonConstantYield,
			fmt.Sprintf("premium_yield is the %v placeholder", e.tol.BannedYield), PremiumSourceCalc), audits
	}

	cand := &Candidate{
		Ticker:        raw.Ticker,
		RunID:         e.runID,
		RunTS:         e.runTS,
		Price:         price,
		PriceSource:   raw.Quote.Source,
		Expiry:        raw.Expiry,
		Strike:        *sel.row.Strike,
		StrikeSource:  sel.row.Source,
		CallBid:       *sel.row.Bid,
		CallAsk:       *sel.row.Ask,
		CallMid:       sel.mid,
		ChainSource:   sel.row.Source,
		Premium100:    prem,
		PremiumYield:  yld,
		PackCost:      pack,
		PremiumSource: PremiumSourceCalc,
		Delta:         sel.row.Delta,
		SpreadPct:     sel.spread,
		Lane:          sel.lane.Name,
	}
	if raw.Signal != nil {
		score := raw.Signal.Score
		cand.SignalScore = &score
	}

	// Gate 8: provenance. Every priced field names the source that fed it.
	if tag, ok := missingSource(cand); !ok {
		return nil, e.fail(raw.Ticker, StageProvenance, ReasonMissingSource,
			fmt.Sprintf("%s is empty", tag), tag), audits
	}

	// Gate 9: final filter. Re-checks gates 4-8 as one predicate over the
	// assembled candidate. A failure here means an earlier gate let an
	// inconsistent record through, which is a bug, so it is logged loud.
	if detail, ok := e.recheck(cand); !ok {
		logger.Errorf("final gate caught inconsistent candidate %s: %s", cand.Ticker, detail)
		return nil, e.fail(raw.Ticker, StageFinal, ReasonInvariant, detail, ""), audits
	}

	return cand, nil, audits
}

type selected struct {
	row    market.ChainRow
	lane   lanes.Lane
	mid    float64
	yield  float64
	spread float64
}

func (e *Evaluator) selectContract(chain []market.ChainRow, price float64) (selected, bool) {
	for _, lane := range e.lanes.Lanes {
		best := selected{}
		found := false
		for _, row := range chain {
			if row.Bid != nil && row.Ask != nil && *row.Bid > *row.Ask {
				continue // crossed quote, feed glitch
			}
			mid, ok := row.MidOrDerived()
			if !ok || mid <= 0 {
				continue
			}
			yld := mid / price
			if yld < lane.MinYield {
				continue
			}
			spread, spreadKnown := row.SpreadPct()
			if spreadKnown && lane.MaxSpreadPct > 0 && spread > lane.MaxSpreadPct {
				continue
			}
			if !found || yld > best.yield {
				best = selected{row: row, lane: lane, mid: mid, yield: yld, spread: spread}
				found = true
			}
		}
		if found {
			return best, true
		}
	}
	return selected{}, false
}

func (e *Evaluator) recheck(c *Candidate) (string, bool) {
	switch {
	case c.Strike <= 0:
		return "strike not positive", false
	case c.CallMid <= 0 || c.Premium100 <= 0 || c.PremiumYield <= 0:
		return "non-positive premium fields", false
	case absFloat(c.Premium100-c.CallMid*100) >= e.tol.Premium:
		return "premium_100 diverges from mid*100", false
	case c.PackCost <= 0 || absFloat(c.PremiumYield-c.Premium100/c.PackCost) >= e.tol.Yield:
		return "premium_yield diverges from premium_100/pack_cost", false
	case absFloat(c.Premium100-c.Price) < e.tol.Premium:
		return "premium_100 equals price", false
	case absFloat(c.PremiumYield-e.tol.BannedYield) < bannedYieldEps:
		return "premium_yield is the placeholder constant", false
	}
	if tag, ok := missingSource(c); !ok {
		return tag + " is empty", false
	}
	return "", true
}

func missingSource(c *Candidate) (string, bool) {
	switch {
	case c.PriceSource == "":
		return "price_source", false
	case c.ChainSource == "":
		return "chain_source", false
	case c.PremiumSource == "":
		return "premium_source", false
	case c.StrikeSource == "":
		return "strike_source", false
	}
	return "", true
}

func (e *Evaluator) fail(ticker, stage, reason, detail, sourceTag string) *FailureRecord {
	return &FailureRecord{
		Ticker:    ticker,
		Stage:     stage,
		Reason:    reason,
		Detail:    detail,
		SourceTag: sourceTag,
		RunID:     e.runID,
		RunTS:     e.runTS,
	}
}

func (e *Evaluator) audit(ticker, stage, field string, expected, actual float64, ok bool, sourceRef string) AuditRecord {
	return AuditRecord{
		Ticker:    ticker,
		Stage:     stage,
		Field:     field,
		Expected:  expected,
		Actual:    actual,
		OK:        ok,
		SourceRef: sourceRef,
		RunID:     e.runID,
		RunTS:     e.runTS,
	}
}

func absDiff(a, b decimal.Decimal) float64 {
	f, _ := a.Sub(b).Abs().Float64()
	return f
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
