package market

import "context"

// PriceSource serves the latest underlying quote. ok=false means the ticker
// has no quote (normal data absence); err is reserved for lookup failures.
type PriceSource interface {
	Price(ctx context.Context, ticker string) (Quote, bool, error)
}

// ChainSource serves the call chain for a ticker+expiry. An empty slice means
// no chain; err is reserved for lookup failures.
type ChainSource interface {
	Chain(ctx context.Context, ticker, expiry string) ([]ChainRow, error)
}

// SignalSource serves the optional external signal score.
type SignalSource interface {
	Signal(ctx context.Context, ticker string) (Signal, bool, error)
}

// Sources bundles the three lookups a pipeline run needs.
type Sources interface {
	PriceSource
	ChainSource
	SignalSource
}
