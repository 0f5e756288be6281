// Package server exposes the ledger engine over HTTP: a webhook endpoint
// for external trade signals plus a small REST API for orders, price
// ticks, account state, and trade exports.
//
// The engine stays pure. Every mutating handler runs the engine call
// first, then journals whatever the call appended through a trade-count
// cursor, so fills land in the journal exactly once and in order.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/logging"
)

// Server wires the HTTP surface to one engine and one journal.
type Server struct {
	engine  *ledger.Engine
	journal journal.Journal
	token   string
	log     *logrus.Entry

	mu        sync.Mutex
	journaled int // engine trades already written to the journal
}

// New builds a Server. A nil journal records nothing. webhookToken
// empty means /webhook accepts unauthenticated alerts.
func New(engine *ledger.Engine, jnl journal.Journal, webhookToken string) *Server {
	if jnl == nil {
		jnl = journal.Discard
	}
	return &Server{
		engine:  engine,
		journal: jnl,
		token:   webhookToken,
		log:     logging.WithField("component", "server"),
	}
}

// Router builds the gin handler tree.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/webhook", s.handleWebhook)

	api := r.Group("/api")
	api.POST("/orders", s.handleSubmitOrder)
	api.GET("/orders", s.handleListOrders)
	api.DELETE("/orders/:id", s.handleCancelOrder)
	api.POST("/ticks", s.handleTick)
	api.GET("/account", s.handleAccount)
	api.GET("/trades", s.handleTrades)
	api.GET("/stats", s.handleStats)

	return r
}

// ApplyTick resolves resting orders against a price observation. Price
// feeds call this directly so their fills take the same journaling path
// as the HTTP handlers. Per-order failures were already absorbed by the
// engine; they are logged here and dropped.
func (s *Server) ApplyTick(symbol string, price decimal.Decimal) ledger.Resolution {
	res := s.engine.ResolvePendingOrders(symbol, price)
	for _, f := range res.Failed {
		s.log.WithFields(logrus.Fields{
			"order_id": f.ID,
			"symbol":   f.Symbol,
		}).WithError(f.Err).Warn("resting order dropped")
	}
	if res.Executed > 0 || len(res.Failed) > 0 {
		s.journalTail()
	}
	return res
}

// journalTail records engine trades the journal has not seen yet, then a
// balance snapshot. The cursor keeps concurrent mutations from writing
// the same fill twice; the trade log is append-only, so its length fully
// identifies what is new.
func (s *Server) journalTail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.engine.Account()
	if err := journal.RecordFills(s.journal, snap.Trades[s.journaled:]); err != nil {
		s.log.WithError(err).Warn("journal fill failed")
	}
	s.journaled = len(snap.Trades)

	b := journal.SnapshotBalance(snap, s.engine.ReservedFunds(), time.Now().UTC())
	if err := s.journal.RecordBalance(b); err != nil {
		s.log.WithError(err).Warn("journal balance failed")
	}
}
