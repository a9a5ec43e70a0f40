package lanes

// Built-in lane names.
const (
	LaneSafe       = "SAFE"
	LaneSafeHigh   = "SAFE_HIGH"
	LaneAggressive = "AGGRESSIVE"
)

// DefaultLanes returns the built-in bucket set, safest first. AGGRESSIVE is
// deliberately the loosest so ranking always finds a bucket for a candidate
// that cleared selection.
func DefaultLanes() []Lane {
	return []Lane{
		{
			Name:         LaneSafe,
			Order:        1,
			MaxSpreadPct: 0.10,
			MinYield:     0.012,
			StrikeFactor: 1.0,
			Weights:      Weights{Yield: 0.6, Risk: 0.3, Signal: 0.1},
		},
		{
			Name:         LaneSafeHigh,
			Order:        2,
			MaxSpreadPct: 0.18,
			MinYield:     0.006,
			StrikeFactor: 0.9,
			Weights:      Weights{Yield: 0.7, Risk: 0.2, Signal: 0.1},
		},
		{
			Name:         LaneAggressive,
			Order:        3,
			MaxSpreadPct: 0.25,
			MinYield:     0.002,
			StrikeFactor: 0.8,
			Weights:      Weights{Yield: 0.8, Risk: 0.1, Signal: 0.1},
		},
	}
}
