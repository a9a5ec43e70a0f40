package config

import "strings"

// Config is the top-level packcall configuration.
type Config struct {
	App       AppConfig       `toml:"app"`
	Store     StoreConfig     `toml:"store"`
	Market    MarketConfig    `toml:"market"`
	Picker    PickerConfig    `toml:"picker"`
	Lanes     LanesConfig     `toml:"lanes"`
	Promotion PromotionConfig `toml:"promotion"`
	Watchlist WatchlistConfig `toml:"watchlist"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type StoreConfig struct {
	Path       string `toml:"path"`
	RunLogPath string `toml:"runlog_path"`
}

type MarketConfig struct {
	SnapshotPath  string `toml:"snapshot_path"`
	ExpiriesAhead int    `toml:"expiries_ahead"`
}

// PickerConfig carries the numeric-check tolerances and the banned placeholder
// constants. These are named values on purpose: tests assert against the same
// configuration the pipeline reads.
type PickerConfig struct {
	TopN             int     `toml:"top_n"`
	MaxWorkers       int     `toml:"max_workers"`
	IntervalSeconds  int     `toml:"interval_seconds"`
	PremiumTolerance float64 `toml:"premium_tolerance"`
	YieldTolerance   float64 `toml:"yield_tolerance"`
	BannedYield      float64 `toml:"banned_yield"`
}

type LanesConfig struct {
	Path string `toml:"path"`
}

type PromotionConfig struct {
	Seed            float64  `toml:"seed"`
	Budget          float64  `toml:"budget"`
	Lanes           []string `toml:"lanes"`
	ExpectedMovePct float64  `toml:"expected_move_pct"`
}

type WatchlistConfig struct {
	Tickers []string `toml:"tickers"`
}

// TargetLanes returns the promotion lane set, uppercased and de-duplicated.
func (p PromotionConfig) TargetLanes() []string {
	out := make([]string, 0, len(p.Lanes))
	seen := make(map[string]bool, len(p.Lanes))
	for _, lane := range p.Lanes {
		lane = strings.ToUpper(strings.TrimSpace(lane))
		if lane == "" || seen[lane] {
			continue
		}
		seen[lane] = true
		out = append(out, lane)
	}
	return out
}

// keySet tracks dotted config paths explicitly present in the file, so
// defaults never clobber a deliberate zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
