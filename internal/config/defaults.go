package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9981"
	defaultAppLogPath  = "data/logs/packcall.log"

	defaultStorePath  = "data/sqlite/packcall.db"
	defaultRunLogPath = "data/sqlite/runs.db"

	defaultSnapshotPath  = "data/snapshots/market.json"
	defaultExpiriesAhead = 2

	defaultPickerTopN     = 10
	defaultPickerWorkers  = 4
	defaultPickerInterval = 300

	// Tolerances for the numeric gates and the banned placeholder yield.
	DefaultPremiumTolerance = 0.01
	DefaultYieldTolerance   = 0.0001
	DefaultBannedYield      = 0.01

	defaultPromotionSeed    = 9300.0
	defaultExpectedMovePct  = 0.02
	defaultPromotionLane    = "SAFE"
	defaultLanesPath        = ""
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Picker.applyDefaults(keys)
	c.Lanes.applyDefaults(keys)
	c.Promotion.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	if !keys.isSet("app.env") && strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if !keys.isSet("app.log_level") && strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if !keys.isSet("app.http_addr") && strings.TrimSpace(a.HTTPAddr) == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
	if !keys.isSet("app.log_path") && strings.TrimSpace(a.LogPath) == "" {
		a.LogPath = defaultAppLogPath
	}
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	if !keys.isSet("store.path") && strings.TrimSpace(s.Path) == "" {
		s.Path = defaultStorePath
	}
	if !keys.isSet("store.runlog_path") && strings.TrimSpace(s.RunLogPath) == "" {
		s.RunLogPath = defaultRunLogPath
	}
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	if !keys.isSet("market.snapshot_path") && strings.TrimSpace(m.SnapshotPath) == "" {
		m.SnapshotPath = defaultSnapshotPath
	}
	if !keys.isSet("market.expiries_ahead") && m.ExpiriesAhead == 0 {
		m.ExpiriesAhead = defaultExpiriesAhead
	}
}

func (p *PickerConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	if !keys.isSet("picker.top_n") && p.TopN == 0 {
		p.TopN = defaultPickerTopN
	}
	if !keys.isSet("picker.max_workers") && p.MaxWorkers == 0 {
		p.MaxWorkers = defaultPickerWorkers
	}
	if !keys.isSet("picker.interval_seconds") && p.IntervalSeconds == 0 {
		p.IntervalSeconds = defaultPickerInterval
	}
	if !keys.isSet("picker.premium_tolerance") && p.PremiumTolerance == 0 {
		p.PremiumTolerance = DefaultPremiumTolerance
	}
	if !keys.isSet("picker.yield_tolerance") && p.YieldTolerance == 0 {
		p.YieldTolerance = DefaultYieldTolerance
	}
	if !keys.isSet("picker.banned_yield") && p.BannedYield == 0 {
		p.BannedYield = DefaultBannedYield
	}
}

func (l *LanesConfig) applyDefaults(keys keySet) {
	if l == nil {
		return
	}
	if !keys.isSet("lanes.path") && strings.TrimSpace(l.Path) == "" {
		l.Path = defaultLanesPath
	}
}

func (p *PromotionConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	if !keys.isSet("promotion.seed") && p.Seed == 0 {
		p.Seed = defaultPromotionSeed
	}
	if !keys.isSet("promotion.expected_move_pct") && p.ExpectedMovePct == 0 {
		p.ExpectedMovePct = defaultExpectedMovePct
	}
	if len(p.Lanes) == 0 {
		p.Lanes = []string{defaultPromotionLane}
	}
}
