package pick

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"packcall/internal/config"
	"packcall/internal/lanes"
	"packcall/internal/logger"
	"packcall/internal/store"
	"packcall/internal/store/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is one pipeline run's output: every ticker lands in exactly one of
// the two sets.
type Result struct {
	RunID     string
	RunTS     time.Time
	Validated []Candidate
	Failures  []FailureRecord
}

// Sink receives failure and audit records. Record methods are best effort
// and must not fail the run; AppendChecksTx joins the caller's transaction.
type Sink interface {
	RecordFailure(ctx context.Context, rec FailureRecord)
	RecordChecks(ctx context.Context, recs []AuditRecord)
	AppendChecksTx(ctx context.Context, uow store.UnitOfWork, recs []AuditRecord) error
}

// Runner drives one full pipeline pass: build, gate, rank, persist. Runs are
// serialized; gate evaluation inside a run fans out per ticker because
// candidates share no mutable state.
type Runner struct {
	cfg      config.PickerConfig
	registry *lanes.Registry
	builder  *Builder
	store    store.Store
	sink     Sink

	runMu sync.Mutex
}

func NewRunner(cfg config.PickerConfig, registry *lanes.Registry, builder *Builder, st store.Store, sink Sink) *Runner {
	return &Runner{cfg: cfg, registry: registry, builder: builder, store: st, sink: sink}
}

type tickerOutcome struct {
	candidate *Candidate
	failure   *FailureRecord
	audits    []AuditRecord
	err       error
}

// TryRun starts a run unless one is already in flight, in which case the
// request is discarded and ok=false is returned.
func (r *Runner) TryRun(ctx context.Context, tickers []string) (*Result, bool, error) {
	if !r.runMu.TryLock() {
		return nil, false, nil
	}
	defer r.runMu.Unlock()
	res, err := r.run(ctx, tickers)
	return res, true, err
}

// Run executes a full pipeline pass, waiting for any in-flight run to finish
// first. The returned error aggregates per-ticker infrastructure failures;
// the Result is valid either way.
func (r *Runner) Run(ctx context.Context, tickers []string) (*Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.run(ctx, tickers)
}

func (r *Runner) run(ctx context.Context, tickers []string) (*Result, error) {
	runID := uuid.NewString()
	runTS := time.Now().UTC()
	laneSet := r.registry.Snapshot()
	eval := NewEvaluator(laneSet, Tolerances{
		Premium:     r.cfg.PremiumTolerance,
		Yield:       r.cfg.YieldTolerance,
		BannedYield: r.cfg.BannedYield,
	}, runID, runTS)

	var mu sync.Mutex
	outcomes := make(map[string]tickerOutcome, len(tickers))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers())
	for _, ticker := range tickers {
		ticker := ticker
		group.Go(func() error {
			out := r.evaluateTicker(groupCtx, eval, ticker)
			mu.Lock()
			outcomes[ticker] = out
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; per-ticker problems live in outcomes.
	_ = group.Wait()

	res := &Result{RunID: runID, RunTS: runTS}
	var candidates []Candidate
	var infraErrs []error
	auditsByTicker := make(map[string][]AuditRecord)

	tickerKeys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		tickerKeys = append(tickerKeys, k)
	}
	sort.Strings(tickerKeys)

	for _, ticker := range tickerKeys {
		out := outcomes[ticker]
		switch {
		case out.err != nil:
			infraErrs = append(infraErrs, out.err)
			failure := FailureRecord{
				Ticker: ticker, Stage: StageUnknown, Reason: ReasonLookupError,
				Detail: out.err.Error(), RunID: runID, RunTS: runTS,
			}
			r.sink.RecordFailure(ctx, failure)
			res.Failures = append(res.Failures, failure)
		case out.failure != nil:
			r.sink.RecordChecks(ctx, out.audits)
			r.sink.RecordFailure(ctx, *out.failure)
			res.Failures = append(res.Failures, *out.failure)
		case out.candidate != nil:
			candidates = append(candidates, *out.candidate)
			auditsByTicker[ticker] = out.audits
		}
	}

	ranked := NewRanker(laneSet).Rank(candidates)

	for _, cand := range ranked {
		if err := r.persistPick(ctx, cand, auditsByTicker[cand.Ticker]); err != nil {
			infraErrs = append(infraErrs, fmt.Errorf("persist pick %s: %w", cand.Ticker, err))
			failure := FailureRecord{
				Ticker: cand.Ticker, Stage: StageUnknown, Reason: ReasonLookupError,
				Detail: "store write failed: " + err.Error(), RunID: runID, RunTS: runTS,
			}
			r.sink.RecordFailure(ctx, failure)
			res.Failures = append(res.Failures, failure)
			continue
		}
		res.Validated = append(res.Validated, cand)
	}

	logger.Infof("pick run %s finished: tickers=%d validated=%d failures=%d",
		runID, len(tickers), len(res.Validated), len(res.Failures))
	return res, errors.Join(infraErrs...)
}

func (r *Runner) evaluateTicker(ctx context.Context, eval *Evaluator, ticker string) (out tickerOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out.err = fmt.Errorf("evaluating %s panicked: %v", ticker, rec)
		}
	}()
	raw, err := r.builder.Build(ctx, ticker)
	if err != nil {
		out.err = err
		return out
	}
	out.candidate, out.failure, out.audits = eval.Evaluate(raw)
	return out
}

// persistPick writes the validated row and its audit rows in one
// transaction: both land or neither does.
func (r *Runner) persistPick(ctx context.Context, cand Candidate, audits []AuditRecord) error {
	uow, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := uow.Picks().Insert(ctx, pickModel(cand)); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := r.sink.AppendChecksTx(ctx, uow, audits); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

func (r *Runner) workers() int {
	if r.cfg.MaxWorkers < 1 {
		return 1
	}
	return r.cfg.MaxWorkers
}

func pickModel(c Candidate) *model.PickModel {
	return &model.PickModel{
		RunID:         c.RunID,
		RunTS:         c.RunTS.Unix(),
		Ticker:        c.Ticker,
		Lane:          c.Lane,
		Rank:          c.Rank,
		RankScore:     c.RankScore,
		Price:         c.Price,
		PriceSource:   c.PriceSource,
		Expiry:        c.Expiry,
		Strike:        c.Strike,
		StrikeSource:  c.StrikeSource,
		CallBid:       c.CallBid,
		CallAsk:       c.CallAsk,
		CallMid:       c.CallMid,
		ChainSource:   c.ChainSource,
		Premium100:    c.Premium100,
		PremiumYield:  c.PremiumYield,
		PremiumSource: c.PremiumSource,
		PackCost:      c.PackCost,
		SignalScore:   c.SignalScore,
		CreatedAtUnix: c.RunTS.Unix(),
	}
}
