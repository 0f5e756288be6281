package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/id"
	"papertrade/ledger"
)

// RecordFills journals engine trades in order, stamping each with a
// fresh fill id. It stops at the first write error.
func RecordFills(j Journal, trades []ledger.Trade) error {
	for _, t := range trades {
		err := j.RecordFill(FillRecord{
			FillID:     id.New(),
			Symbol:     t.Symbol,
			Side:       t.Side,
			Price:      t.Price,
			Quantity:   t.Quantity,
			Commission: t.Commission,
			OrderKind:  t.OrderKind,
			Strategy:   t.Strategy,
			ExecutedAt: t.ExecutedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SnapshotBalance shapes an account snapshot into a balance row.
func SnapshotBalance(acct ledger.Account, reserved decimal.Decimal, at time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		Time:          at,
		Balance:       acct.Balance,
		Reserved:      reserved,
		PositionCount: len(acct.Positions),
		PendingCount:  len(acct.PendingOrders),
	}
}
