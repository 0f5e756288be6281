package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/id"
)

// Resolution summarizes one resolution pass over the pending queue.
type Resolution struct {
	// Executed counts orders that triggered and filled in this pass.
	Executed int
	// Remaining is the size of the pending queue after the pass, across
	// all symbols.
	Remaining int
	// Failed lists orders that triggered but could not fill. They have
	// been dropped from the queue; the caller decides how to report
	// them. A failed order never blocks the rest of the pass.
	Failed []FailedOrder
}

// FailedOrder identifies a triggered order whose fill was rejected.
type FailedOrder struct {
	ID     string
	Symbol string
	Err    error
}

// restLimitLocked validates a limit submission and appends it to the
// pending queue. Buys reserve their full worst-case cost immediately.
// Sells reserve nothing but are checked against the quantity not yet
// committed to earlier resting sells.
func (e *Engine) restLimitLocked(req OrderRequest) error {
	limit := *req.LimitPrice

	switch req.Side {
	case SideBuy:
		reserved := e.reservation(limit, req.Quantity)
		if e.balance.LessThan(reserved) {
			return fmt.Errorf("limit buy %s %s @ %s: %w", req.Quantity, req.Symbol, limit, ErrInsufficientBalance)
		}
		e.balance = e.balance.Sub(reserved)

	case SideSell:
		avail := e.availableQuantityLocked(req.Symbol)
		if avail.LessThan(req.Quantity) {
			return fmt.Errorf("limit sell %s %s (available %s): %w", req.Quantity, req.Symbol, avail, ErrInsufficientPosition)
		}

	default:
		return fmt.Errorf("limit order %s: unknown side %q", req.Symbol, req.Side)
	}

	e.pending = append(e.pending, LimitOrder{
		ID:         id.New(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		LimitPrice: limit,
		CreatedAt:  req.Time,
		Strategy:   req.Strategy,
	})
	return nil
}

// availableQuantityLocked is the total quantity held for symbol minus
// the quantity already committed to resting sell orders. Resting sells
// reduce availability so the same holdings cannot back two sells.
func (e *Engine) availableQuantityLocked(symbol string) decimal.Decimal {
	var avail decimal.Decimal
	for _, p := range e.positions {
		if p.Symbol == symbol {
			avail = avail.Add(p.Quantity)
		}
	}
	for _, o := range e.pending {
		if o.Symbol == symbol && o.Side == SideSell {
			avail = avail.Sub(o.Quantity)
		}
	}
	return avail
}

// ResolvePendingOrders checks every resting order for symbol against a
// new price and fills each one whose trigger condition holds, in the
// order they were created. Price feeds call this on every tick; market
// fills trigger the same pass internally.
func (e *Engine) ResolvePendingOrders(symbol string, price decimal.Decimal) Resolution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveLocked(symbol, price, time.Now())
}

func (e *Engine) resolveLocked(symbol string, price decimal.Decimal, at time.Time) Resolution {
	var res Resolution

	kept := e.pending[:0]
	for _, o := range e.pending {
		if o.Symbol != symbol || !triggered(o, price) {
			kept = append(kept, o)
			continue
		}
		if err := e.fillLimitLocked(o, price, at); err != nil {
			res.Failed = append(res.Failed, FailedOrder{ID: o.ID, Symbol: o.Symbol, Err: err})
			continue
		}
		res.Executed++
	}
	e.pending = kept
	res.Remaining = len(e.pending)
	return res
}

// triggered reports whether price crosses the order's limit: buys fill
// once the market trades at or below the limit, sells at or above.
func triggered(o LimitOrder, price decimal.Decimal) bool {
	if o.Side == SideBuy {
		return price.LessThanOrEqual(o.LimitPrice)
	}
	return price.GreaterThanOrEqual(o.LimitPrice)
}

// fillLimitLocked executes one triggered order at the tick price.
//
// A sell goes through the same single-lot settlement as a market sell
// and fails the same way when no lot covers it; the caller drops the
// order in that case.
//
// A buy settles against its reservation: funds were set aside at the
// limit price, the fill happens at the tick price, and the difference
// comes back to the balance. A fill above the limit price would debit
// further without a balance re-check, since the reservation made at
// creation time is binding, but the trigger rule keeps tick prices at
// or below the limit so the adjustment never overdraws.
func (e *Engine) fillLimitLocked(o LimitOrder, price decimal.Decimal, at time.Time) error {
	if o.Side == SideSell {
		return e.executeLocked(o.Symbol, SideSell, price, o.Quantity, o.Strategy, at, KindLimit)
	}

	reserved := e.reservation(o.LimitPrice, o.Quantity)
	notional := price.Mul(o.Quantity)
	fee := notional.Mul(e.feeRate)

	e.balance = e.balance.Add(reserved.Sub(notional.Add(fee)))
	e.positions = append(e.positions, Position{
		Symbol:     o.Symbol,
		EntryPrice: price,
		Quantity:   o.Quantity,
		OpenedAt:   at,
		Strategy:   o.Strategy,
	})
	e.trades = append(e.trades, Trade{
		Symbol:     o.Symbol,
		Side:       SideBuy,
		Price:      price,
		Quantity:   o.Quantity,
		ExecutedAt: at,
		Strategy:   o.Strategy,
		Commission: fee,
		OrderKind:  KindLimit,
	})
	return nil
}
