package pick

import (
	"context"
	"fmt"
	"strings"

	"packcall/internal/market"
)

// Builder assembles one Raw per ticker from the external lookups. It does no
// validation: absent data stays absent and the gate pipeline decides.
type Builder struct {
	sources  market.Sources
	expiries []string
}

func NewBuilder(sources market.Sources, expiries []string) *Builder {
	return &Builder{sources: sources, expiries: expiries}
}

// Build fetches price, chain and signal for a ticker. The chain is taken from
// the first configured expiry that has rows; when every expiry is empty the
// Raw carries the first expiry and a nil chain so the chain gate can reject
// it. A lookup error is an infrastructure failure and aborts the build.
func (b *Builder) Build(ctx context.Context, ticker string) (Raw, error) {
	raw := Raw{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}
	if raw.Ticker == "" {
		return raw, fmt.Errorf("ticker cannot be empty")
	}

	quote, ok, err := b.sources.Price(ctx, raw.Ticker)
	if err != nil {
		return raw, fmt.Errorf("price lookup failed for %s: %w", raw.Ticker, err)
	}
	if ok {
		raw.Quote = &quote
	}

	if len(b.expiries) > 0 {
		raw.Expiry = b.expiries[0]
	}
	for _, expiry := range b.expiries {
		rows, err := b.sources.Chain(ctx, raw.Ticker, expiry)
		if err != nil {
			return raw, fmt.Errorf("chain lookup failed for %s %s: %w", raw.Ticker, expiry, err)
		}
		if len(rows) > 0 {
			raw.Expiry = expiry
			raw.Chain = rows
			break
		}
	}

	sig, ok, err := b.sources.Signal(ctx, raw.Ticker)
	if err != nil {
		return raw, fmt.Errorf("signal lookup failed for %s: %w", raw.Ticker, err)
	}
	if ok {
		raw.Signal = &sig
	}
	return raw, nil
}
