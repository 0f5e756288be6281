package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"papertrade/ledger"
	"papertrade/stats"
)

// orderPayload is the JSON body for order submission, shared by the
// webhook and the REST endpoint. Charting platforms send lowercase
// action names and can only put the shared secret in the body, so both
// spellings and both token positions are accepted.
type orderPayload struct {
	Token      string           `json:"token,omitempty"`
	Symbol     string           `json:"symbol"`
	Side       string           `json:"side"`
	Action     string           `json:"action"`     // webhook alias for side
	Kind       string           `json:"kind"`       // MARKET (default) or LIMIT
	OrderType  string           `json:"order_type"` // webhook alias for kind
	Price      decimal.Decimal  `json:"price"`
	Quantity   decimal.Decimal  `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	Strategy   string           `json:"strategy,omitempty"`
}

type submitResponse struct {
	Account ledger.Account `json:"account"`
	// OrderID is set when the order rests instead of filling.
	OrderID string `json:"order_id,omitempty"`
}

type tickPayload struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type tickResponse struct {
	Executed  int           `json:"executed"`
	Remaining int           `json:"remaining"`
	Failed    []failedOrder `json:"failed,omitempty"`
}

type failedOrder struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

func (s *Server) handleWebhook(c *gin.Context) {
	var p orderPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	if !s.authorized(c, p) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	s.submit(c, p)
}

func (s *Server) handleSubmitOrder(c *gin.Context) {
	var p orderPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	s.submit(c, p)
}

func (s *Server) submit(c *gin.Context, p orderPayload) {
	req, err := p.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := s.engine.SubmitOrder(req)
	if err != nil {
		c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.journalTail()

	resp := submitResponse{Account: snap}
	if req.Kind == ledger.KindLimit && len(snap.PendingOrders) > 0 {
		// The snapshot was taken inside the engine's critical section,
		// so the last pending order is the one this request created.
		resp.OrderID = snap.PendingOrders[len(snap.PendingOrders)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	orderID := c.Param("id")
	if !s.engine.CancelOrder(orderID) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("order %s not found", orderID)})
		return
	}
	s.journalTail()
	c.JSON(http.StatusOK, gin.H{"canceled": orderID})
}

func (s *Server) handleListOrders(c *gin.Context) {
	var orders []ledger.LimitOrder
	if symbol := c.Query("symbol"); symbol != "" {
		orders = s.engine.PendingOrdersBySymbol(strings.ToUpper(strings.TrimSpace(symbol)))
	} else {
		orders = s.engine.PendingOrders()
	}
	if orders == nil {
		orders = []ledger.LimitOrder{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleTick(c *gin.Context) {
	var p tickPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	if !p.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	res := s.ApplyTick(symbol, p.Price)
	c.JSON(http.StatusOK, tickResponse{
		Executed:  res.Executed,
		Remaining: res.Remaining,
		Failed:    failedOrders(res.Failed),
	})
}

func (s *Server) handleAccount(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Account())
}

func (s *Server) handleTrades(c *gin.Context) {
	trades := s.engine.Account().Trades
	if c.Query("format") == "csv" {
		s.writeTradesCSV(c, trades)
		return
	}
	if trades == nil {
		trades = []ledger.Trade{}
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Compute(s.engine.Account().Trades))
}

func (s *Server) writeTradesCSV(c *gin.Context, trades []ledger.Trade) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="trades.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"symbol", "side", "price", "quantity", "commission", "order_kind", "strategy", "executed_at"})
	for _, t := range trades {
		_ = w.Write([]string{
			t.Symbol,
			string(t.Side),
			t.Price.String(),
			t.Quantity.String(),
			t.Commission.String(),
			string(t.OrderKind),
			t.Strategy,
			t.ExecutedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.log.WithError(err).Warn("trade export truncated")
	}
}

func (s *Server) authorized(c *gin.Context, p orderPayload) bool {
	if s.token == "" {
		return true
	}
	return p.Token == s.token || bearerToken(c) == s.token
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}

// toRequest shapes the loose external payload into the engine's narrow
// command. Price sanity lives here; the engine enforces the rest.
func (p orderPayload) toRequest() (ledger.OrderRequest, error) {
	var req ledger.OrderRequest

	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return req, errors.New("symbol is required")
	}

	action := strings.ToUpper(firstOf(p.Side, p.Action))
	kind := strings.ToUpper(firstOf(p.Kind, p.OrderType))

	switch action {
	case string(ledger.SideBuy):
		req.Side = ledger.SideBuy
	case string(ledger.SideSell):
		req.Side = ledger.SideSell
	case "LIMIT_BUY":
		req.Side = ledger.SideBuy
		kind = string(ledger.KindLimit)
	case "LIMIT_SELL":
		req.Side = ledger.SideSell
		kind = string(ledger.KindLimit)
	default:
		return req, fmt.Errorf("unknown side %q", action)
	}

	if kind == "" {
		kind = string(ledger.KindMarket)
	}
	switch kind {
	case string(ledger.KindMarket):
		req.Kind = ledger.KindMarket
	case string(ledger.KindLimit):
		req.Kind = ledger.KindLimit
	default:
		return req, fmt.Errorf("unknown order kind %q", kind)
	}

	if req.Kind == ledger.KindMarket && !p.Price.IsPositive() {
		return req, errors.New("market orders need a positive price")
	}
	if p.LimitPrice != nil && !p.LimitPrice.IsPositive() {
		return req, errors.New("limit_price must be positive")
	}

	req.Symbol = symbol
	req.Price = p.Price
	req.Quantity = p.Quantity
	req.LimitPrice = p.LimitPrice
	req.Strategy = p.Strategy
	return req, nil
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func failedOrders(fs []ledger.FailedOrder) []failedOrder {
	if len(fs) == 0 {
		return nil
	}
	out := make([]failedOrder, len(fs))
	for i, f := range fs {
		out[i] = failedOrder{ID: f.ID, Symbol: f.Symbol, Error: f.Err.Error()}
	}
	return out
}

// rejectionStatus maps engine rejections to 400 and anything
// unexpected to 500.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrMissingLimitPrice),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientPosition),
		errors.Is(err, ledger.ErrNoMatchingPosition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
