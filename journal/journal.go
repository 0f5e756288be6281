// Package journal persists execution history. The engine keeps all
// account state in memory; a journal is the write-behind record the
// host process keeps so fills and balance marks can be inspected after
// the fact.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/ledger"
)

// FillRecord is one executed fill, market or limit.
type FillRecord struct {
	FillID     string
	Symbol     string
	Side       ledger.Side
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Commission decimal.Decimal
	OrderKind  ledger.OrderKind
	Strategy   string
	ExecutedAt time.Time
}

// BalanceSnapshot marks the account's cash standing after an operation:
// free balance, cash reserved for resting buys, and how many lots and
// resting orders were open at that moment.
type BalanceSnapshot struct {
	Time          time.Time
	Balance       decimal.Decimal
	Reserved      decimal.Decimal
	PositionCount int
	PendingCount  int
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordBalance(BalanceSnapshot) error
	Close() error
}

// Discard is a Journal that records nothing. It stands in when
// journaling is disabled.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordFill(FillRecord) error         { return nil }
func (discard) RecordBalance(BalanceSnapshot) error { return nil }
func (discard) Close() error                        { return nil }
