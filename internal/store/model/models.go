package model

import "gorm.io/datatypes"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

type PromotionDecision string

const (
	PromotionApproved PromotionDecision = "APPROVED"
	PromotionRejected PromotionDecision = "REJECTED"
)

// PickModel is one validated candidate row. Rows are owned by the run that
// wrote them and never updated afterwards.
type PickModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	RunID         string  `gorm:"column:run_id;uniqueIndex:idx_pick_run_ticker,priority:1"`
	RunTS         int64   `gorm:"column:run_ts"`
	Ticker        string  `gorm:"column:ticker;uniqueIndex:idx_pick_run_ticker,priority:2"`
	Lane          string  `gorm:"column:lane"`
	Rank          int     `gorm:"column:rank"`
	RankScore     float64 `gorm:"column:rank_score"`
	Price         float64 `gorm:"column:price"`
	PriceSource   string  `gorm:"column:price_source"`
	Expiry        string  `gorm:"column:expiry"`
	Strike        float64 `gorm:"column:strike"`
	StrikeSource  string  `gorm:"column:strike_source"`
	CallBid       float64 `gorm:"column:call_bid"`
	CallAsk       float64 `gorm:"column:call_ask"`
	CallMid       float64 `gorm:"column:call_mid"`
	ChainSource   string  `gorm:"column:chain_source"`
	Premium100    float64 `gorm:"column:premium_100"`
	PremiumYield  float64 `gorm:"column:premium_yield"`
	PremiumSource string  `gorm:"column:premium_source"`
	PackCost      float64 `gorm:"column:pack_100_cost"`
	SignalScore   *float64 `gorm:"column:signal_score"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (PickModel) TableName() string { return "weekly_picks" }

// FailureModel maps to the pipeline failure stream (one row per rejected
// candidate, append-only).
type FailureModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	RunID         string `gorm:"column:run_id;index:idx_failure_run"`
	RunTS         int64  `gorm:"column:run_ts"`
	Ticker        string `gorm:"column:ticker"`
	Stage         string `gorm:"column:stage"`
	Reason        string `gorm:"column:reason"`
	Detail        string `gorm:"column:detail"`
	SourceTag     string `gorm:"column:source_tag"`
	CreatedAtUnix int64  `gorm:"column:created_at"`
}

func (FailureModel) TableName() string { return "pick_failures" }

// AuditModel maps to the numeric/banned-state check stream. A row is written
// for every check performed, passing or failing.
type AuditModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	RunID         string  `gorm:"column:run_id;index:idx_audit_run"`
	RunTS         int64   `gorm:"column:run_ts"`
	Ticker        string  `gorm:"column:ticker"`
	Stage         string  `gorm:"column:stage"`
	Field         string  `gorm:"column:field"`
	Expected      float64 `gorm:"column:expected"`
	Actual        float64 `gorm:"column:actual"`
	OK            bool    `gorm:"column:ok"`
	SourceRef     string  `gorm:"column:source_ref"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (AuditModel) TableName() string { return "audit_math" }

// PromotionModel records one promotion decision, approved or rejected.
// Detail carries the scoring context as JSON for after-the-fact review.
type PromotionModel struct {
	ID            int64             `gorm:"column:id;primaryKey"`
	RunID         string            `gorm:"column:run_id;index:idx_promotion_run"`
	Ticker        string            `gorm:"column:ticker"`
	Expiry        string            `gorm:"column:expiry"`
	Strike        float64           `gorm:"column:strike"`
	Lane          string            `gorm:"column:lane"`
	Seed          float64           `gorm:"column:seed"`
	Decision      PromotionDecision `gorm:"column:decision"`
	Reason        string            `gorm:"column:reason"`
	Detail        datatypes.JSON    `gorm:"column:detail;type:TEXT"`
	CreatedAtUnix int64             `gorm:"column:created_at"`
}

func (PromotionModel) TableName() string { return "promotions" }

// PositionModel is a tracked contract opened by an approved promotion.
type PositionModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Ticker        string         `gorm:"column:ticker;index:idx_position_contract,priority:1"`
	Expiry        string         `gorm:"column:expiry;index:idx_position_contract,priority:2"`
	Right         string         `gorm:"column:option_right;index:idx_position_contract,priority:3"`
	Strike        float64        `gorm:"column:strike;index:idx_position_contract,priority:4"`
	Qty           int            `gorm:"column:qty"`
	Shares        int            `gorm:"column:shares"`
	StockBasis    float64        `gorm:"column:stock_basis"`
	PremiumOpen   float64        `gorm:"column:premium_open"`
	Status        PositionStatus `gorm:"column:status"`
	OpenedAtUnix  int64          `gorm:"column:opened_at"`
	ClosedAtUnix  *int64         `gorm:"column:closed_at"`
}

func (PositionModel) TableName() string { return "option_positions" }

// TickerModel is one watchlist entry.
type TickerModel struct {
	Ticker      string `gorm:"column:ticker;primaryKey"`
	Enabled     bool   `gorm:"column:enabled"`
	AddedAtUnix int64  `gorm:"column:added_at"`
}

func (TickerModel) TableName() string { return "tickers" }
