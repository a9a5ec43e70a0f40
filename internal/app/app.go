package app

import (
	"context"
	"fmt"
	"time"

	"packcall/internal/config"
	"packcall/internal/logger"
	"packcall/internal/pick"
	"packcall/internal/promotion"
	"packcall/internal/scheduler"
	"packcall/internal/store"
	"packcall/internal/store/runlog"
	diaghttp "packcall/internal/transport/http/diag"
	"packcall/internal/watchlist"

	"golang.org/x/sync/errgroup"
)

// App wires configuration, store, market sources, the pick runner and the
// promotion engine into one runnable unit.
type App struct {
	cfg     *config.Config
	store   store.Store
	journal *runlog.Journal
	runner  *pick.Runner
	engine  *promotion.Engine
	watch   *watchlist.Service
	diag    *diaghttp.Server
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return NewAppBuilder(cfg).Build(context.Background())
}

// Run drives the diag HTTP server and the periodic pipeline loop until ctx
// is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.diag != nil {
		group.Go(func() error {
			if err := a.diag.Start(ctx); err != nil {
				return fmt.Errorf("diag http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer a.Close()
		return a.loop(ctx)
	})

	return group.Wait()
}

func (a *App) loop(ctx context.Context) error {
	interval := time.Duration(a.cfg.Picker.IntervalSeconds) * time.Second
	if interval <= 0 {
		_, err := a.RunOnce(ctx, "manual")
		return err
	}
	sched := scheduler.NewAlignedScheduler(ctx, interval, 0)
	sched.RunImmediately = true
	sched.Start(func() { a.runCycle(ctx, "interval") })
	return ctx.Err()
}

// runCycle is the loop body: a cycle failure is logged, never fatal to the
// loop itself.
func (a *App) runCycle(ctx context.Context, trigger string) {
	if _, err := a.RunOnce(ctx, trigger); err != nil {
		logger.Errorf("pipeline cycle (%s) finished with errors: %v", trigger, err)
	}
}

// RunOnce executes one full pipeline pass: watchlist, pick run, promotion,
// run journal. An overlapping request is discarded.
func (a *App) RunOnce(ctx context.Context, trigger string) (*pick.Result, error) {
	tickers, err := a.watch.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if len(tickers) == 0 {
		logger.Warnf("pipeline cycle (%s) skipped: watchlist is empty", trigger)
		return nil, nil
	}

	started := time.Now().UTC()
	res, ok, runErr := a.runner.TryRun(ctx, tickers)
	if !ok {
		logger.Warnf("pipeline cycle (%s) discarded: run already in flight", trigger)
		return nil, nil
	}

	shortlist := res.Validated
	if topN := a.cfg.Picker.TopN; topN > 0 && len(shortlist) > topN {
		shortlist = shortlist[:topN]
	}
	promos, promoErr := a.engine.Run(ctx, res.RunID, shortlist)
	if promoErr != nil {
		logger.Errorf("promotion pass for run %s finished with errors: %v", res.RunID, promoErr)
	}

	a.journalRun(ctx, trigger, started, tickers, res, promos, runErr)
	return res, runErr
}

func (a *App) journalRun(ctx context.Context, trigger string, started time.Time, tickers []string, res *pick.Result, promos []promotion.Promotion, runErr error) {
	if a.journal == nil {
		return
	}
	note := ""
	if runErr != nil {
		note = runErr.Error()
	}
	rec := runlog.Record{
		RunID:      res.RunID,
		Trigger:    trigger,
		StartedAt:  started.Unix(),
		FinishedAt: time.Now().UTC().Unix(),
		Tickers:    len(tickers),
		Validated:  len(res.Validated),
		Failures:   len(res.Failures),
		Promotions: len(promos),
		Note:       note,
	}
	if err := a.journal.Append(ctx, rec); err != nil {
		logger.Warnf("run journal append failed for run %s: %v", res.RunID, err)
	}
}

// Watchlist exposes the watchlist service for CLI subcommands.
func (a *App) Watchlist() *watchlist.Service {
	if a == nil {
		return nil
	}
	return a.watch
}

// Close releases the store and the run journal.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("close run journal: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}
}
