package pick

import (
	"time"

	"packcall/internal/market"
)

// Pipeline stage names, as recorded on failure and audit rows.
const (
	StagePrice      = "price"
	StageChain      = "chain"
	StageSelection  = "selection"
	StagePremium    = "premium"
	StageProvenance = "provenance"
	StageFinal      = "final"
	StageUnknown    = "unknown"
)

// Rejection reason codes.
const (
	ReasonMissingPrice    = "missing_price"
	ReasonMissingChain    = "missing_chain"
	ReasonNoCandidate     = "no_candidate"
	ReasonNullStrike      = "null_strike"
	ReasonNullBid         = "null_bid"
	ReasonNullAsk         = "null_ask"
	ReasonMathMismatch    = "math_mismatch"
	ReasonPlaceholderMath = "placeholder_math"
	ReasonConstantYield   = "constant_yield"
	ReasonMissingSource   = "missing_source"
	ReasonInvariant       = "invariant_violation"
	ReasonLookupError     = "lookup_error"
)

// PremiumSourceCalc tags premium fields derived by the pipeline itself.
const PremiumSourceCalc = "calc"

// Raw is the unvalidated assembly for one ticker: whatever the external
// lookups returned, holes included. The builder fills it; only the gate
// pipeline is allowed to judge it.
type Raw struct {
	Ticker string
	Quote  *market.Quote
	Expiry string
	Chain  []market.ChainRow
	Signal *market.Signal
}

// Candidate is a fully validated covered-call pick. Once the gate pipeline
// has returned one, every price-bearing field is set and sourced; ranking
// only annotates Lane/Rank/RankScore on a copy.
type Candidate struct {
	Ticker string
	RunID  string
	RunTS  time.Time

	Price       float64
	PriceSource string

	Expiry       string
	Strike       float64
	StrikeSource string

	CallBid     float64
	CallAsk     float64
	CallMid     float64
	ChainSource string

	Premium100    float64
	PremiumYield  float64
	PackCost      float64
	PremiumSource string

	Delta       *float64
	SignalScore *float64
	SpreadPct   float64

	Lane      string
	Rank      int
	RankScore float64
}

// FailureRecord is written exactly once per rejected candidate.
type FailureRecord struct {
	Ticker    string
	Stage     string
	Reason    string
	Detail    string
	SourceTag string
	RunID     string
	RunTS     time.Time
}

// AuditRecord traces one numeric or banned-state check, pass or fail.
type AuditRecord struct {
	Ticker    string
	Stage     string
	Field     string
	Expected  float64
	Actual    float64
	OK        bool
	SourceRef string
	RunID     string
	RunTS     time.Time
}
