package feed

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/logging"
)

const (
	defaultPollEndpoint = "https://api.binance.com"
	defaultPollInterval = 5 * time.Second
)

// Poller fetches spot prices for a fixed symbol set on an interval.
type Poller struct {
	client   *resty.Client
	symbols  []string
	interval time.Duration
	sink     Ticker
	log      *logrus.Entry
}

// NewPoller builds a poller against a Binance-style REST API. An empty
// endpoint targets the public Binance spot API; a non-positive interval
// falls back to the default cadence.
func NewPoller(endpoint string, symbols []string, interval time.Duration, sink Ticker) *Poller {
	if endpoint == "" {
		endpoint = defaultPollEndpoint
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		client:   resty.New().SetBaseURL(endpoint).SetTimeout(10 * time.Second),
		symbols:  symbols,
		interval: interval,
		sink:     sink,
		log:      logging.WithField("component", "feed.poll"),
	}
}

// Run polls until the context ends. The first pass happens immediately
// so resting orders do not wait a full interval after startup.
func (p *Poller) Run(ctx context.Context) {
	p.log.WithFields(logrus.Fields{
		"symbols":  p.symbols,
		"interval": p.interval.String(),
	}).Info("price polling started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

type priceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (p *Poller) pollOnce(ctx context.Context) {
	for _, sym := range p.symbols {
		var out priceTicker
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParam("symbol", sym).
			SetResult(&out).
			Get("/api/v3/ticker/price")
		if err != nil {
			p.log.WithError(err).WithField("symbol", sym).Warn("price poll failed")
			continue
		}
		if resp.IsError() {
			p.log.WithFields(logrus.Fields{
				"symbol": sym,
				"status": resp.StatusCode(),
			}).Warn("price poll rejected")
			continue
		}

		price, err := decimal.NewFromString(out.Price)
		if err != nil || !price.IsPositive() {
			p.log.WithField("symbol", sym).Warn("price poll returned no usable price")
			continue
		}
		apply(p.sink, p.log, sym, price)
	}
}
