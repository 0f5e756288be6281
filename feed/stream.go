package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/logging"
)

const (
	defaultStreamEndpoint = "wss://stream.binance.com:9443"
	streamReadTimeout     = 60 * time.Second
	redialWait            = 2 * time.Second
)

// Stream subscribes to miniTicker events over a combined websocket
// stream and reconnects until its context ends.
type Stream struct {
	endpoint string
	symbols  []string
	sink     Ticker
	dialer   websocket.Dialer
	log      *logrus.Entry
}

// NewStream builds a stream against a Binance-style websocket API. An
// empty endpoint targets the public Binance spot stream.
func NewStream(endpoint string, symbols []string, sink Ticker) *Stream {
	if endpoint == "" {
		endpoint = defaultStreamEndpoint
	}
	return &Stream{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		symbols:  symbols,
		sink:     sink,
		dialer:   websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		log:      logging.WithField("component", "feed.stream"),
	}
}

// Run dials, reads until the connection drops, and redials. It returns
// only when the context ends.
func (s *Stream) Run(ctx context.Context) {
	wsURL := s.streamURL()
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			s.log.WithError(err).Warn("stream dial failed")
			if !sleepCtx(ctx, redialWait) {
				return
			}
			continue
		}
		s.log.WithField("url", wsURL).Info("stream connected")

		if err := s.readLoop(ctx, conn); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("stream read ended")
		}
		_ = conn.Close()

		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func (s *Stream) streamURL() string {
	names := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		names[i] = strings.ToLower(strings.TrimSpace(sym)) + "@miniTicker"
	}
	return s.endpoint + "/stream?streams=" + strings.Join(names, "/")
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// ReadMessage only honors deadlines, so a watcher closes the
	// connection when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			return err
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		symbol, price, err := parseMiniTicker(msg)
		if err != nil {
			continue
		}
		apply(s.sink, s.log, symbol, price)
	}
}

// miniTickerEvent is the Binance 24hrMiniTicker payload; c is the
// latest close price as a decimal string.
type miniTickerEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// parseMiniTicker extracts symbol and price from one stream message.
// Combined streams wrap the event in a {stream, data} envelope; events
// arriving bare are accepted too.
func parseMiniTicker(msg []byte) (string, decimal.Decimal, error) {
	var envelope struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	body := msg
	if err := json.Unmarshal(msg, &envelope); err == nil && len(envelope.Data) > 0 {
		body = envelope.Data
	}

	var ev miniTickerEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", decimal.Decimal{}, err
	}
	if ev.EventType != "24hrMiniTicker" {
		return "", decimal.Decimal{}, errors.New("not a miniTicker event")
	}

	price, err := decimal.NewFromString(ev.Close)
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	if !price.IsPositive() {
		return "", decimal.Decimal{}, errors.New("non-positive price")
	}
	return strings.ToUpper(ev.Symbol), price, nil
}
