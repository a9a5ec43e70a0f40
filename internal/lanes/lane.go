package lanes

import "strings"

// Weights are the rank-score mix for one lane. Yield rewards premium_yield,
// Risk penalizes the assignment-risk proxy, Signal rewards the external
// signal score.
type Weights struct {
	Yield  float64 `mapstructure:"yield" yaml:"yield"`
	Risk   float64 `mapstructure:"risk" yaml:"risk"`
	Signal float64 `mapstructure:"signal" yaml:"signal"`
}

// Lane is one named risk bucket. Buckets are evaluated in Order (ascending,
// safest first); a candidate lands in the first lane whose thresholds it
// satisfies.
type Lane struct {
	Name         string  `mapstructure:"name" yaml:"name"`
	Order        int     `mapstructure:"order" yaml:"order"`
	MaxSpreadPct float64 `mapstructure:"max_spread_pct" yaml:"max_spread_pct"`
	MinYield     float64 `mapstructure:"min_yield" yaml:"min_yield"`
	StrikeFactor float64 `mapstructure:"strike_factor" yaml:"strike_factor"`
	Weights      Weights `mapstructure:"weights" yaml:"weights"`
}

// Accepts reports whether a contract with the given spread percentage and
// premium yield clears this lane's thresholds.
func (l Lane) Accepts(spreadPct, premYield float64) bool {
	if l.MaxSpreadPct > 0 && spreadPct > l.MaxSpreadPct {
		return false
	}
	return premYield >= l.MinYield
}

func normalizeLane(name string, lane Lane) Lane {
	lane.Name = strings.ToUpper(strings.TrimSpace(lane.Name))
	if lane.Name == "" {
		lane.Name = strings.ToUpper(strings.TrimSpace(name))
	}
	if lane.StrikeFactor <= 0 {
		lane.StrikeFactor = 0.8
	}
	if lane.Weights == (Weights{}) {
		lane.Weights = Weights{Yield: 0.6, Risk: 0.3, Signal: 0.1}
	}
	return lane
}
