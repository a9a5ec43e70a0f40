package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Picker.validate(); err != nil {
		return err
	}
	if err := c.Promotion.validate(); err != nil {
		return err
	}
	if err := c.Watchlist.validate(); err != nil {
		return err
	}
	return nil
}

func (p *PickerConfig) validate() error {
	if p.TopN < 0 {
		return fmt.Errorf("picker.top_n must be >= 0")
	}
	if p.MaxWorkers < 1 {
		return fmt.Errorf("picker.max_workers must be >= 1")
	}
	if p.PremiumTolerance <= 0 {
		return fmt.Errorf("picker.premium_tolerance must be > 0")
	}
	if p.YieldTolerance <= 0 {
		return fmt.Errorf("picker.yield_tolerance must be > 0")
	}
	if p.BannedYield <= 0 {
		return fmt.Errorf("picker.banned_yield must be > 0")
	}
	return nil
}

func (p *PromotionConfig) validate() error {
	if p.Seed <= 0 {
		return fmt.Errorf("promotion.seed must be > 0")
	}
	if p.Budget < 0 {
		return fmt.Errorf("promotion.budget must be >= 0")
	}
	if p.ExpectedMovePct <= 0 || p.ExpectedMovePct >= 1 {
		return fmt.Errorf("promotion.expected_move_pct must be in (0, 1)")
	}
	if len(p.TargetLanes()) == 0 {
		return fmt.Errorf("promotion.lanes requires at least one lane")
	}
	return nil
}

func (w *WatchlistConfig) validate() error {
	for _, t := range w.Tickers {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("watchlist.tickers contains an empty ticker")
		}
	}
	return nil
}
