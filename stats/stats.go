// Package stats computes realized performance metrics from a trade log.
//
// Sells are paired against earlier buys of the same symbol first-in
// first-out. Pairing is a reporting convention over the flat log and is
// independent of how the engine matched lots when it filled the sell.
package stats

import (
	"github.com/shopspring/decimal"

	"papertrade/ledger"
)

// Report aggregates realized round trips over a trade log.
//
// A round trip is one SELL fill that consumed at least some buy quantity.
// Commissions are prorated onto the quantity each round trip consumed, so
// NetPL is net of costs. ProfitFactor is zero when there are no losing
// round trips, WinRate is a 0..1 fraction.
type Report struct {
	Fills           int                      `json:"fills"`
	RoundTrips      int                      `json:"round_trips"`
	Wins            int                      `json:"wins"`
	Losses          int                      `json:"losses"`
	WinRate         decimal.Decimal          `json:"win_rate"`
	GrossProfit     decimal.Decimal          `json:"gross_profit"`
	GrossLoss       decimal.Decimal          `json:"gross_loss"`
	NetPL           decimal.Decimal          `json:"net_pl"`
	ProfitFactor    decimal.Decimal          `json:"profit_factor"`
	TotalCommission decimal.Decimal          `json:"total_commission"`
	Symbols         map[string]*SymbolReport `json:"symbols"`
}

// SymbolReport holds the per-symbol slice of the same numbers.
type SymbolReport struct {
	Symbol     string          `json:"symbol"`
	RoundTrips int             `json:"round_trips"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	NetPL      decimal.Decimal `json:"net_pl"`
}

// buyLot is an open cost basis waiting for a sell to consume it.
type buyLot struct {
	price      decimal.Decimal
	qty        decimal.Decimal
	commission decimal.Decimal
}

// Compute builds a Report from trades in execution order.
//
// A sell that finds no open buy quantity (log started mid-session) is
// skipped for P/L; its commission still counts toward TotalCommission.
func Compute(trades []ledger.Trade) Report {
	r := Report{
		WinRate:         decimal.Zero,
		GrossProfit:     decimal.Zero,
		GrossLoss:       decimal.Zero,
		NetPL:           decimal.Zero,
		ProfitFactor:    decimal.Zero,
		TotalCommission: decimal.Zero,
		Symbols:         make(map[string]*SymbolReport),
	}
	lots := make(map[string][]buyLot)

	for _, t := range trades {
		r.Fills++
		r.TotalCommission = r.TotalCommission.Add(t.Commission)

		switch t.Side {
		case ledger.SideBuy:
			lots[t.Symbol] = append(lots[t.Symbol], buyLot{
				price:      t.Price,
				qty:        t.Quantity,
				commission: t.Commission,
			})
		case ledger.SideSell:
			pl, matched := consume(lots, t)
			if !matched.IsPositive() {
				continue
			}
			r.record(t.Symbol, pl)
		}
	}

	if r.RoundTrips > 0 {
		r.WinRate = decimal.NewFromInt(int64(r.Wins)).
			Div(decimal.NewFromInt(int64(r.RoundTrips)))
	}
	if r.GrossLoss.IsPositive() {
		r.ProfitFactor = r.GrossProfit.Div(r.GrossLoss)
	}
	return r
}

// consume eats open lots front to back and returns the realized P/L of
// the matched quantity, net of both sides' prorated commissions.
func consume(lots map[string][]buyLot, t ledger.Trade) (pl, matched decimal.Decimal) {
	pl = decimal.Zero
	matched = decimal.Zero
	remaining := t.Quantity
	queue := lots[t.Symbol]

	for remaining.IsPositive() && len(queue) > 0 {
		lot := &queue[0]
		take := decimal.Min(remaining, lot.qty)

		pl = pl.Add(t.Price.Sub(lot.price).Mul(take))

		buyShare := lot.commission.Mul(take).Div(lot.qty)
		pl = pl.Sub(buyShare)
		lot.commission = lot.commission.Sub(buyShare)
		lot.qty = lot.qty.Sub(take)

		remaining = remaining.Sub(take)
		matched = matched.Add(take)
		if lot.qty.IsZero() {
			queue = queue[1:]
		}
	}
	lots[t.Symbol] = queue

	if matched.IsPositive() {
		sellShare := t.Commission.Mul(matched).Div(t.Quantity)
		pl = pl.Sub(sellShare)
	}
	return pl, matched
}

// record books one round trip into the totals and the symbol breakdown.
func (r *Report) record(symbol string, pl decimal.Decimal) {
	r.RoundTrips++
	r.NetPL = r.NetPL.Add(pl)

	sym := r.Symbols[symbol]
	if sym == nil {
		sym = &SymbolReport{Symbol: symbol, NetPL: decimal.Zero}
		r.Symbols[symbol] = sym
	}
	sym.RoundTrips++
	sym.NetPL = sym.NetPL.Add(pl)

	switch {
	case pl.IsPositive():
		r.Wins++
		sym.Wins++
		r.GrossProfit = r.GrossProfit.Add(pl)
	case pl.IsNegative():
		r.Losses++
		sym.Losses++
		r.GrossLoss = r.GrossLoss.Add(pl.Neg())
	}
}
