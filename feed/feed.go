// Package feed drives limit-order resolution from public market data.
//
// Two modes exist: polling a Binance-style REST ticker endpoint, and
// subscribing to a miniTicker websocket stream. Both push every price
// observation into a Ticker and treat failures as transient: a feed
// never submits orders and never stops the process.
package feed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/ledger"
)

// Ticker consumes price observations. The server's engine wrapper
// implements it, so feed-driven fills share the journaling path of the
// HTTP handlers.
type Ticker interface {
	ApplyTick(symbol string, price decimal.Decimal) ledger.Resolution
}

func apply(sink Ticker, log *logrus.Entry, symbol string, price decimal.Decimal) {
	res := sink.ApplyTick(symbol, price)
	if res.Executed > 0 {
		log.WithFields(logrus.Fields{
			"symbol":    symbol,
			"price":     price.String(),
			"executed":  res.Executed,
			"remaining": res.Remaining,
		}).Info("resting orders filled")
	}
}

// sleepCtx waits d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
