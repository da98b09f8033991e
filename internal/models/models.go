package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status is the lifecycle state of a transaction.
// PENDING may transition to COMPLETED or CANCELLED; both of those are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Quote is a point-in-time price snapshot for a symbol.
//
// A quote always exists from the consumer's point of view: when every real
// provider fails, the market data service synthesizes one and sets Synthetic
// so callers can render it as non-authoritative. Source names the provider
// tier that produced the data.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	Synthetic     bool            `json:"synthetic"`
}

// HistoricalPrice is one candle of daily (or intraday) history.
type HistoricalPrice struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// SymbolMatch is a single result of a symbol search.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// Position is a portfolio's current holding of one symbol.
//
// Quantity is never negative; a sell that brings it to zero or below deletes
// the row instead of leaving an empty position behind. AverageCost is the
// quantity-weighted average of all buys and is untouched by sells.
type Position struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	PortfolioID  uint            `gorm:"index:idx_positions_portfolio_symbol" json:"portfolio_id"`
	Symbol       string          `gorm:"index:idx_positions_portfolio_symbol" json:"symbol"`
	Quantity     decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	AverageCost  decimal.Decimal `gorm:"type:numeric" json:"average_cost"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric" json:"current_price"`
	TotalValue   decimal.Decimal `gorm:"type:numeric" json:"total_value"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// CostBasis is the open cost of the position (quantity x average cost).
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// Transaction records one executed (or deferred) trade. Quantity and
// TotalAmount are always positive; Side carries the direction. Everything
// except Status is immutable after creation.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Ref         string          `gorm:"uniqueIndex" json:"ref"`
	UserID      uint            `gorm:"index" json:"user_id"`
	PortfolioID uint            `gorm:"index" json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	OrderKind   string          `json:"order_kind"`
	Quantity    decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric" json:"price"`
	TotalAmount decimal.Decimal `gorm:"type:numeric" json:"total_amount"`
	Status      Status          `gorm:"index" json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
}

// SignedQuantity returns the quantity with the sell direction folded back in.
func (t Transaction) SignedQuantity() decimal.Decimal {
	if t.Side == SideSell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Portfolio aggregates the positions owned by one user. The total fields are
// derived: only the aggregator recomputation writes them.
type Portfolio struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"index" json:"user_id"`
	Name           string          `json:"name"`
	TotalValue     decimal.Decimal `gorm:"type:numeric" json:"total_value"`
	TotalCostBasis decimal.Decimal `gorm:"type:numeric" json:"total_cost_basis"`
	TotalPnL       decimal.Decimal `gorm:"type:numeric" json:"total_pnl"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StockPrice is the persisted latest price for a symbol, written by the
// background refresher so screens can render without a live fetch.
type StockPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"uniqueIndex" json:"symbol"`
	Price     decimal.Decimal `gorm:"type:numeric" json:"price"`
	Synthetic bool            `json:"synthetic"`
	Timestamp time.Time       `json:"timestamp"`
}
