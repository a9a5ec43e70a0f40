package watchlist

import (
	"context"
	"fmt"
	"strings"

	"packcall/internal/logger"
	"packcall/internal/store"
)

// Service manages the set of tickers the pipeline evaluates. Symbols are
// stored uppercased; disabling keeps the row so history stays attributable.
type Service struct {
	tickers store.TickerRepository
}

func NewService(tickers store.TickerRepository) *Service {
	return &Service{tickers: tickers}
}

func (s *Service) Add(ctx context.Context, ticker string) error {
	sym, err := normalize(ticker)
	if err != nil {
		return err
	}
	return s.tickers.Upsert(ctx, sym, true)
}

func (s *Service) Disable(ctx context.Context, ticker string) error {
	sym, err := normalize(ticker)
	if err != nil {
		return err
	}
	return s.tickers.Upsert(ctx, sym, false)
}

// List returns the enabled tickers in stable (alphabetical) order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.tickers.ListEnabled(ctx)
}

// Seed loads an initial ticker set from configuration. Existing rows keep
// their enabled flag untouched only when already enabled; seeding re-enables.
func (s *Service) Seed(ctx context.Context, tickers []string) error {
	for _, t := range tickers {
		if err := s.Add(ctx, t); err != nil {
			return fmt.Errorf("seed watchlist %q: %w", t, err)
		}
	}
	if len(tickers) > 0 {
		logger.Infof("watchlist seeded with %d tickers", len(tickers))
	}
	return nil
}

func normalize(ticker string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	if sym == "" {
		return "", fmt.Errorf("empty ticker symbol")
	}
	return sym, nil
}
