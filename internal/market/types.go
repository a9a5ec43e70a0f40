package market

import "time"

// Quote is the latest underlying price for a ticker, tagged with the data
// source that produced it.
type Quote struct {
	Ticker string
	Price  float64
	TS     time.Time
	Source string
}

// ChainRow is one call contract from an option chain snapshot. Strike, bid,
// ask and mid are pointers because upstream feeds routinely deliver partial
// rows; the gate pipeline decides what to do with the holes.
type ChainRow struct {
	Strike *float64
	Bid    *float64
	Ask    *float64
	Mid    *float64
	Delta  *float64
	IV     *float64
	OI     *int64
	Volume *int64
	Source string
}

// MidOrDerived returns the row mid, deriving (bid+ask)/2 when the feed left
// mid empty but both sides are present.
func (r ChainRow) MidOrDerived() (float64, bool) {
	if r.Mid != nil {
		return *r.Mid, true
	}
	if r.Bid != nil && r.Ask != nil {
		return (*r.Bid + *r.Ask) / 2, true
	}
	return 0, false
}

// SpreadPct returns (ask-bid)/mid, or false when any leg is missing or mid is
// not positive.
func (r ChainRow) SpreadPct() (float64, bool) {
	if r.Bid == nil || r.Ask == nil {
		return 0, false
	}
	mid, ok := r.MidOrDerived()
	if !ok || mid <= 0 {
		return 0, false
	}
	pct := (*r.Ask - *r.Bid) / mid
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// Signal is an externally computed composite score for a ticker.
type Signal struct {
	Ticker string
	Score  float64
	Source string
}

func Float(v float64) *float64 { return &v }
func Int(v int64) *int64       { return &v }
