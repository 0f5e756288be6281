// Package ledger implements the order-execution and portfolio engine
// behind a paper-trading account: cash balance, open position lots, the
// trade log, and resting limit orders. Every mutation is validated up
// front so a rejected operation leaves account state untouched.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderKind distinguishes immediate fills from resting conditional orders.
type OrderKind string

const (
	KindMarket OrderKind = "MARKET"
	KindLimit  OrderKind = "LIMIT"
)

// Position is one open lot. Each buy appends a new lot; lots for the
// same symbol are never merged. A sell reduces or removes a single lot.
type Position struct {
	Symbol     string          `json:"symbol"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	OpenedAt   time.Time       `json:"opened_at"`
	Strategy   string          `json:"strategy,omitempty"`
}

// Trade is the immutable record of one completed fill.
type Trade struct {
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExecutedAt time.Time       `json:"executed_at"`
	Strategy   string          `json:"strategy,omitempty"`
	Commission decimal.Decimal `json:"commission"`
	OrderKind  OrderKind       `json:"order_kind"`
}

// LimitOrder is a resting conditional order. A buy has already had cash
// reserved against it; a sell holds no reservation but counts against
// the quantity available to later sell orders.
type LimitOrder struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	CreatedAt  time.Time       `json:"created_at"`
	Strategy   string          `json:"strategy,omitempty"`
}

// Account is a point-in-time snapshot of engine state. The slices are
// copies; mutating them has no effect on the engine.
type Account struct {
	Balance       decimal.Decimal `json:"balance"`
	Positions     []Position      `json:"positions"`
	Trades        []Trade         `json:"trades"`
	PendingOrders []LimitOrder    `json:"pending_orders"`
}

// OrderRequest is the narrow command accepted by SubmitOrder. Callers
// (webhook handler, REST layer) are responsible for shaping loose
// external payloads into one of these.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Kind     OrderKind
	Price    decimal.Decimal // current market price; fills market orders
	Quantity decimal.Decimal
	// LimitPrice must be set when Kind is KindLimit. Market orders
	// ignore it.
	LimitPrice *decimal.Decimal
	Strategy   string
	Time       time.Time // defaults to time.Now() when zero
}
