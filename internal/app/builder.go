package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"packcall/internal/audit"
	"packcall/internal/config"
	"packcall/internal/lanes"
	"packcall/internal/logger"
	"packcall/internal/market"
	"packcall/internal/pick"
	"packcall/internal/promotion"
	"packcall/internal/store"
	"packcall/internal/store/runlog"
	"packcall/internal/store/sqlite"
	diaghttp "packcall/internal/transport/http/diag"
	"packcall/internal/watchlist"
)

// AppBuilder assembles the application. Constructor hooks are swappable so
// tests can inject in-memory stores and sources.
type AppBuilder struct {
	cfg *config.Config

	storeFn   func(config.StoreConfig) (store.Store, error)
	journalFn func(config.StoreConfig) (*runlog.Journal, error)
	sourcesFn func(config.MarketConfig) (market.Sources, error)
	diagFn    func(config.AppConfig, store.Store, *runlog.Journal) (*diaghttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithStore overrides the sqlite store constructor.
func WithStore(st store.Store) AppBuilderOption {
	return func(b *AppBuilder) {
		b.storeFn = func(config.StoreConfig) (store.Store, error) { return st, nil }
	}
}

// WithSources overrides the snapshot-file market sources.
func WithSources(src market.Sources) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourcesFn = func(config.MarketConfig) (market.Sources, error) { return src, nil }
	}
}

// WithoutDiagServer disables the HTTP surface.
func WithoutDiagServer() AppBuilderOption {
	return func(b *AppBuilder) {
		b.diagFn = func(config.AppConfig, store.Store, *runlog.Journal) (*diaghttp.Server, error) {
			return nil, nil
		}
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:       cfg,
		storeFn:   buildStore,
		journalFn: buildJournal,
		sourcesFn: buildSources,
		diagFn:    buildDiagServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	st, err := b.storeFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	journal, err := b.journalFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}
	sources, err := b.sourcesFn(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("open market sources: %w", err)
	}

	registry, err := lanes.NewRegistry(cfg.Lanes.Path)
	if err != nil {
		return nil, fmt.Errorf("load lanes: %w", err)
	}
	registry.OnChange(func(snap lanes.Snapshot) {
		logger.Infof("lane set reloaded: version=%d lanes=%d", snap.Version, len(snap.Lanes))
	})

	expiries := market.NextFridays(time.Now().UTC(), expiriesAhead(cfg.Market))
	builder := pick.NewBuilder(sources, expiries)
	sink := audit.NewLogger(st)
	runner := pick.NewRunner(cfg.Picker, registry, builder, st, sink)
	engine := promotion.NewEngine(st, registry, promotion.PolicyFromConfig(cfg.Promotion))

	watch := watchlist.NewService(st.Tickers())
	if err := watch.Seed(ctx, cfg.Watchlist.Tickers); err != nil {
		return nil, err
	}

	diag, err := b.diagFn(cfg.App, st, journal)
	if err != nil {
		return nil, fmt.Errorf("build diag server: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   st,
		journal: journal,
		runner:  runner,
		engine:  engine,
		watch:   watch,
		diag:    diag,
	}, nil
}

func buildStore(cfg config.StoreConfig) (store.Store, error) {
	return sqlite.NewSqliteStore(cfg.Path)
}

func buildJournal(cfg config.StoreConfig) (*runlog.Journal, error) {
	if strings.TrimSpace(cfg.RunLogPath) == "" {
		return nil, nil
	}
	return runlog.Open(cfg.RunLogPath)
}

func buildSources(cfg config.MarketConfig) (market.Sources, error) {
	return market.NewSnapshotSource(cfg.SnapshotPath)
}

func buildDiagServer(cfg config.AppConfig, st store.Store, journal *runlog.Journal) (*diaghttp.Server, error) {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, nil
	}
	return diaghttp.NewServer(diaghttp.ServerConfig{
		Addr:    cfg.HTTPAddr,
		Store:   st,
		Journal: journal,
	})
}

func expiriesAhead(cfg config.MarketConfig) int {
	if cfg.ExpiriesAhead < 1 {
		return 1
	}
	return cfg.ExpiriesAhead
}
