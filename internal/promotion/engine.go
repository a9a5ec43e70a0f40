package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"packcall/internal/config"
	"packcall/internal/lanes"
	"packcall/internal/logger"
	"packcall/internal/pick"
	"packcall/internal/store"
	"packcall/internal/store/model"

	"github.com/shopspring/decimal"
)

// Rejection reasons recorded on Promotion rows.
const (
	ReasonLaneMismatch    = "lane_mismatch"
	ReasonBelowThreshold  = "below_threshold"
	ReasonAlreadyOpen     = "already_open"
	ReasonBudgetExhausted = "budget_exhausted"
)

// OptionRight is the only contract right the engine opens.
const OptionRight = "C"

// Policy is the promotion decision surface. Seed is the minimum rank_score;
// Budget caps total pack cost per run (0 means unlimited); Lanes is the
// eligible lane set.
type Policy struct {
	Seed            float64
	Budget          float64
	Lanes           []string
	ExpectedMovePct float64
}

func PolicyFromConfig(cfg config.PromotionConfig) Policy {
	return Policy{
		Seed:            cfg.Seed,
		Budget:          cfg.Budget,
		Lanes:           cfg.TargetLanes(),
		ExpectedMovePct: cfg.ExpectedMovePct,
	}
}

// Promotion is one recorded decision, approved or rejected.
type Promotion struct {
	Ticker    string
	Expiry    string
	Strike    float64
	Lane      string
	Seed      float64
	Decision  model.PromotionDecision
	Reason    string
	RunID     string
	CreatedAt time.Time
}

// Engine turns ranked candidates into promotion decisions. Every candidate
// gets a recorded decision; approval additionally opens a Position.
type Engine struct {
	store    store.Store
	registry *lanes.Registry
	policy   Policy
}

func NewEngine(st store.Store, registry *lanes.Registry, policy Policy) *Engine {
	return &Engine{store: st, registry: registry, policy: policy}
}

// Run decides every validated candidate for one pipeline run. Candidates are
// walked best score first so a limited budget goes to the strongest picks.
// Per-candidate store errors are collected, not fatal to the rest.
func (e *Engine) Run(ctx context.Context, runID string, cands []pick.Candidate) ([]Promotion, error) {
	ordered := make([]pick.Candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RankScore != ordered[j].RankScore {
			return ordered[i].RankScore > ordered[j].RankScore
		}
		return ordered[i].Ticker < ordered[j].Ticker
	})

	laneSet := e.registry.Snapshot()
	remaining := e.policy.Budget
	now := time.Now().UTC()

	var out []Promotion
	var errs []error
	for _, cand := range ordered {
		decision, err := e.decide(ctx, cand, laneSet, &remaining, runID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("promote %s: %w", cand.Ticker, err))
			continue
		}
		out = append(out, decision)
	}
	return out, errors.Join(errs...)
}

func (e *Engine) decide(ctx context.Context, cand pick.Candidate, laneSet lanes.Snapshot, remaining *float64, runID string, now time.Time) (Promotion, error) {
	promo := Promotion{
		Ticker:    cand.Ticker,
		Expiry:    cand.Expiry,
		Strike:    cand.Strike,
		Lane:      cand.Lane,
		Seed:      e.policy.Seed,
		RunID:     runID,
		CreatedAt: now,
	}

	detail := map[string]any{
		"rank_score": cand.RankScore,
		"threshold":  e.policy.Seed,
		"pack_cost":  cand.PackCost,
	}
	if lane, ok := laneSet.Lane(cand.Lane); ok {
		detail["target_strike"] = targetStrike(cand.Price, lane.StrikeFactor, e.policy.ExpectedMovePct)
	}

	reject := func(reason string) (Promotion, error) {
		promo.Decision = model.PromotionRejected
		promo.Reason = reason
		if err := e.record(ctx, promo, detail); err != nil {
			return promo, err
		}
		logger.Infof("promotion rejected: ticker=%s lane=%s reason=%s score=%.0f",
			cand.Ticker, cand.Lane, reason, cand.RankScore)
		return promo, nil
	}

	if !e.laneEligible(cand.Lane) {
		return reject(ReasonLaneMismatch)
	}
	if cand.RankScore < e.policy.Seed {
		return reject(ReasonBelowThreshold)
	}
	if e.policy.Budget > 0 && cand.PackCost > *remaining {
		detail["remaining_budget"] = *remaining
		return reject(ReasonBudgetExhausted)
	}

	open, err := e.store.Positions().FindOpen(ctx, cand.Ticker, cand.Expiry, OptionRight, cand.Strike)
	if err != nil {
		return promo, err
	}
	if open != nil {
		return reject(ReasonAlreadyOpen)
	}

	promo.Decision = model.PromotionApproved
	if e.policy.Budget > 0 {
		*remaining -= cand.PackCost
		detail["remaining_budget"] = *remaining
	}
	if err := e.approve(ctx, promo, detail, cand, now); err != nil {
		return promo, err
	}
	logger.Infof("promotion approved: ticker=%s lane=%s score=%.0f strike=%.2f expiry=%s",
		cand.Ticker, cand.Lane, cand.RankScore, cand.Strike, cand.Expiry)
	return promo, nil
}

func (e *Engine) laneEligible(lane string) bool {
	for _, want := range e.policy.Lanes {
		if want == lane {
			return true
		}
	}
	return false
}

// approve writes the APPROVED promotion and its OPEN position in one
// transaction.
func (e *Engine) approve(ctx context.Context, promo Promotion, detail map[string]any, cand pick.Candidate, now time.Time) error {
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := uow.Promotions().Insert(ctx, promotionModel(promo, detail)); err != nil {
		_ = uow.Rollback()
		return err
	}
	pos := &model.PositionModel{
		Ticker:       cand.Ticker,
		Expiry:       cand.Expiry,
		Right:        OptionRight,
		Strike:       cand.Strike,
		Qty:          1,
		Shares:       100,
		StockBasis:   cand.PackCost,
		PremiumOpen:  cand.Premium100,
		Status:       model.PositionOpen,
		OpenedAtUnix: now.Unix(),
	}
	if err := uow.Positions().Insert(ctx, pos); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

func (e *Engine) record(ctx context.Context, promo Promotion, detail map[string]any) error {
	return e.store.Promotions().Insert(ctx, promotionModel(promo, detail))
}

func promotionModel(promo Promotion, detail map[string]any) *model.PromotionModel {
	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte("{}")
	}
	return &model.PromotionModel{
		RunID:         promo.RunID,
		Ticker:        promo.Ticker,
		Expiry:        promo.Expiry,
		Strike:        promo.Strike,
		Lane:          promo.Lane,
		Seed:          promo.Seed,
		Decision:      promo.Decision,
		Reason:        promo.Reason,
		Detail:        raw,
		CreatedAtUnix: promo.CreatedAt.Unix(),
	}
}

// targetStrike is the next-cycle strike suggestion: price plus a lane-scaled
// expected move, rounded to cents.
func targetStrike(price, factor, movePct float64) float64 {
	if movePct <= 0 {
		movePct = 0.02
	}
	strike := decimal.NewFromFloat(price).Add(
		decimal.NewFromFloat(price).
			Mul(decimal.NewFromFloat(movePct)).
			Mul(decimal.NewFromFloat(factor)))
	f, _ := strike.Round(2).Float64()
	return f
}
