package pick

import (
	"sort"

	"packcall/internal/lanes"
)

// Rank-score shaping constants. Yield saturates at yieldScaleCap so one
// outlier contract cannot dominate every lane; the score is stretched to a
// 0..scoreScale range to keep the historical seed-threshold magnitudes
// meaningful.
const (
	yieldScaleCap    = 0.05
	scoreScale       = 10000.0
	defaultRiskProxy = 0.30
)

// Ranker scores validated candidates, assigns each to a lane bucket, and
// numbers them 1..N per bucket. No candidate is dropped.
type Ranker struct {
	lanes lanes.Snapshot
}

func NewRanker(laneSet lanes.Snapshot) *Ranker {
	return &Ranker{lanes: laneSet}
}

// Rank returns a new slice; inputs are not mutated. Ordering is
// deterministic: rank_score desc, then premium_yield desc, then ticker asc.
func (r *Ranker) Rank(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)

	for i := range out {
		lane := r.assignLane(&out[i])
		out[i].Lane = lane.Name
		out[i].RankScore = r.score(&out[i], lane.Weights)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RankScore != out[j].RankScore {
			return out[i].RankScore > out[j].RankScore
		}
		if out[i].PremiumYield != out[j].PremiumYield {
			return out[i].PremiumYield > out[j].PremiumYield
		}
		return out[i].Ticker < out[j].Ticker
	})

	perLane := make(map[string]int)
	for i := range out {
		perLane[out[i].Lane]++
		out[i].Rank = perLane[out[i].Lane]
	}
	return out
}

// assignLane walks the buckets safest first and returns the first whose
// thresholds the candidate clears. The last bucket is the catch-all so a
// validated candidate always lands somewhere.
func (r *Ranker) assignLane(c *Candidate) lanes.Lane {
	for _, lane := range r.lanes.Lanes {
		if lane.Accepts(c.SpreadPct, c.PremiumYield) {
			return lane
		}
	}
	if last, ok := r.lanes.Last(); ok {
		return last
	}
	return lanes.Lane{Name: lanes.LaneAggressive}
}

// score mixes yield, assignment risk and the external signal. Assignment
// risk is proxied by |delta|: a deeper-in-the-money call is likelier to be
// assigned, so a lower delta raises the score. Absent delta uses a moderate
// default; absent signal contributes zero.
func (r *Ranker) score(c *Candidate, w lanes.Weights) float64 {
	yieldNorm := c.PremiumYield / yieldScaleCap
	if yieldNorm > 1 {
		yieldNorm = 1
	}

	risk := defaultRiskProxy
	if c.Delta != nil {
		risk = clamp01(absFloat(*c.Delta))
	}

	signal := 0.0
	if c.SignalScore != nil {
		signal = clamp01(*c.SignalScore)
	}

	return scoreScale * (w.Yield*yieldNorm + w.Risk*(1-risk) + w.Signal*signal)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
