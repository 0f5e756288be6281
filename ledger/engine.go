package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Engine owns one paper-trading account and performs every state
// transition on it. All exported methods lock the engine, run to
// completion, and unlock, so callers may share an instance across
// goroutines without extra coordination.
type Engine struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	positions []Position
	trades    []Trade
	pending   []LimitOrder

	// feeRate is the fractional commission per fill. It is derived once
	// from the configured percentage (0.1 means 0.1%, so feeRate 0.001)
	// and reused everywhere so reservations and refunds agree exactly.
	feeRate decimal.Decimal
}

// NewEngine returns an engine holding startingBalance in cash and
// charging commissionPct percent of notional on every fill.
func NewEngine(startingBalance, commissionPct decimal.Decimal) *Engine {
	return &Engine{
		balance: startingBalance,
		feeRate: commissionPct.Div(hundred),
	}
}

// SubmitOrder validates and applies one order command. Market orders
// fill immediately at req.Price and then give resting limit orders for
// the same symbol a chance to trigger at that price. Limit orders rest
// in the pending queue until a later price update resolves them.
//
// On success the post-operation account snapshot is returned. On
// rejection the account is unchanged and the error wraps one of the
// sentinel errors in this package.
func (e *Engine) SubmitOrder(req OrderRequest) (Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Time.IsZero() {
		req.Time = time.Now()
	}
	if !req.Quantity.IsPositive() {
		return Account{}, fmt.Errorf("submit %s %s: %w", req.Side, req.Symbol, ErrInvalidQuantity)
	}

	switch req.Kind {
	case KindMarket:
		if err := e.executeLocked(req.Symbol, req.Side, req.Price, req.Quantity, req.Strategy, req.Time, KindMarket); err != nil {
			return Account{}, err
		}
		// A fill is also a price observation for the symbol.
		e.resolveLocked(req.Symbol, req.Price, req.Time)
		return e.snapshotLocked(), nil

	case KindLimit:
		if req.LimitPrice == nil {
			return Account{}, fmt.Errorf("submit %s %s: %w", req.Side, req.Symbol, ErrMissingLimitPrice)
		}
		if err := e.restLimitLocked(req); err != nil {
			return Account{}, err
		}
		return e.snapshotLocked(), nil

	default:
		return Account{}, fmt.Errorf("submit %s %s: unknown order kind %q", req.Side, req.Symbol, req.Kind)
	}
}

// executeLocked settles one fill against the account: a buy debits cash
// and opens a lot, a sell matches a single lot, credits cash, and
// shrinks or removes the lot. Both append a Trade tagged with kind.
func (e *Engine) executeLocked(symbol string, side Side, price, qty decimal.Decimal, strategy string, at time.Time, kind OrderKind) error {
	fee := e.commission(price, qty)

	switch side {
	case SideBuy:
		cost := price.Mul(qty).Add(fee)
		if e.balance.LessThan(cost) {
			return fmt.Errorf("buy %s %s @ %s: %w", qty, symbol, price, ErrInsufficientBalance)
		}
		e.balance = e.balance.Sub(cost)
		e.positions = append(e.positions, Position{
			Symbol:     symbol,
			EntryPrice: price,
			Quantity:   qty,
			OpenedAt:   at,
			Strategy:   strategy,
		})

	case SideSell:
		i := e.matchLotLocked(symbol, qty)
		if i < 0 {
			return fmt.Errorf("sell %s %s: %w", qty, symbol, ErrNoMatchingPosition)
		}
		e.balance = e.balance.Add(price.Mul(qty).Sub(fee))
		if e.positions[i].Quantity.Equal(qty) {
			e.positions = append(e.positions[:i], e.positions[i+1:]...)
		} else {
			e.positions[i].Quantity = e.positions[i].Quantity.Sub(qty)
		}

	default:
		return fmt.Errorf("execute %s %s: unknown side %q", kind, symbol, side)
	}

	e.trades = append(e.trades, Trade{
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Quantity:   qty,
		ExecutedAt: at,
		Strategy:   strategy,
		Commission: fee,
		OrderKind:  kind,
	})
	return nil
}

// matchLotLocked returns the index of the first lot (insertion order)
// for symbol holding at least qty, or -1. A sell must be covered by one
// lot; holdings are never aggregated across lots of the same symbol.
func (e *Engine) matchLotLocked(symbol string, qty decimal.Decimal) int {
	for i, p := range e.positions {
		if p.Symbol == symbol && p.Quantity.GreaterThanOrEqual(qty) {
			return i
		}
	}
	return -1
}

// CancelOrder removes the pending order with the given id, releasing
// any cash reserved for it. It reports whether an order was removed;
// false means there was nothing to cancel, not a fault.
func (e *Engine) CancelOrder(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, o := range e.pending {
		if o.ID != orderID {
			continue
		}
		if o.Side == SideBuy {
			e.balance = e.balance.Add(e.reservation(o.LimitPrice, o.Quantity))
		}
		e.pending = append(e.pending[:i], e.pending[i+1:]...)
		return true
	}
	return false
}

// Account returns a snapshot of the full account state.
func (e *Engine) Account() Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// PendingOrders returns a copy of all resting orders, oldest first.
func (e *Engine) PendingOrders() []LimitOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LimitOrder(nil), e.pending...)
}

// ReservedFunds returns the cash currently withheld for resting buy
// orders. It equals exactly what would flow back to the balance if
// every pending buy were cancelled right now.
func (e *Engine) ReservedFunds() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total decimal.Decimal
	for _, o := range e.pending {
		if o.Side == SideBuy {
			total = total.Add(e.reservation(o.LimitPrice, o.Quantity))
		}
	}
	return total
}

// PendingOrdersBySymbol returns a copy of the resting orders for one
// symbol, oldest first.
func (e *Engine) PendingOrdersBySymbol(symbol string) []LimitOrder {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []LimitOrder
	for _, o := range e.pending {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) snapshotLocked() Account {
	return Account{
		Balance:       e.balance,
		Positions:     append([]Position(nil), e.positions...),
		Trades:        append([]Trade(nil), e.trades...),
		PendingOrders: append([]LimitOrder(nil), e.pending...),
	}
}

// commission is the fee charged on a fill: price * qty * rate, with the
// rate already divided down from its configured percentage.
func (e *Engine) commission(price, qty decimal.Decimal) decimal.Decimal {
	return price.Mul(qty).Mul(e.feeRate)
}

// reservation is the cash set aside for a resting buy: notional at the
// limit price plus the commission a fill at that price would charge.
// Creation, cancellation, and fill settlement all go through here so
// the amounts cancel exactly.
func (e *Engine) reservation(limitPrice, qty decimal.Decimal) decimal.Decimal {
	cost := limitPrice.Mul(qty)
	return cost.Add(cost.Mul(e.feeRate))
}
