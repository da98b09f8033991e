// Package server is the HTTP edge: a thin gin layer that translates requests
// into calls on the market data service and the trade executor, and trade
// rejections into status codes.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trading/internal/analytics"
	"paper_trading/internal/marketdata"
	"paper_trading/internal/models"
	"paper_trading/internal/storage"
	"paper_trading/internal/trading"
)

// Server owns the route handlers and their collaborators.
type Server struct {
	quotes  *marketdata.Service
	exec    *trading.Executor
	store   storage.Store
	advisor analytics.Advisor
	log     *zap.SugaredLogger
}

func New(quotes *marketdata.Service, exec *trading.Executor, store storage.Store, advisor analytics.Advisor, log *zap.SugaredLogger) *Server {
	return &Server{quotes: quotes, exec: exec, store: store, advisor: advisor, log: log}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/quotes/:symbol", s.getQuote)
		api.GET("/quotes/:symbol/history", s.getHistory)
		api.GET("/search", s.search)
		api.GET("/movers", s.getMovers)

		api.POST("/trades", s.postTrade)
		api.POST("/transactions/:id/cancel", s.cancelTransaction)
		api.POST("/transactions/:id/settle", s.settleTransaction)

		api.POST("/portfolios", s.createPortfolio)
		api.GET("/portfolios/:id", s.getPortfolio)
		api.GET("/portfolios/:id/trades", s.portfolioTrades)
		api.GET("/portfolios/:id/insights", s.portfolioInsights)
		api.GET("/users/:id/trades", s.userTrades)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getQuote(c *gin.Context) {
	q, err := s.quotes.GetQuote(c.Request.Context(), c.Param("symbol")).Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) getHistory(c *gin.Context) {
	period := c.DefaultQuery("period", "1M")
	candles, err := s.quotes.Historical(c.Request.Context(), c.Param("symbol"), period).Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "period": period, "candles": candles})
}

func (s *Server) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	matches, err := s.quotes.Search(c.Request.Context(), query).Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "matches": matches})
}

func (s *Server) getMovers(c *gin.Context) {
	c.JSON(http.StatusOK, s.quotes.Movers())
}

type tradePayload struct {
	UserID      uint            `json:"user_id" binding:"required"`
	PortfolioID uint            `json:"portfolio_id" binding:"required"`
	Symbol      string          `json:"symbol" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	OrderKind   string          `json:"order_kind"`
	Deferred    bool            `json:"deferred"`
}

func (s *Server) postTrade(c *gin.Context) {
	var payload tradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.OrderKind == "" {
		payload.OrderKind = "MARKET"
	}

	txn, err := s.exec.ExecuteTrade(c.Request.Context(), trading.TradeRequest{
		UserID:      payload.UserID,
		PortfolioID: payload.PortfolioID,
		Symbol:      payload.Symbol,
		Quantity:    payload.Quantity,
		OrderKind:   payload.OrderKind,
		Deferred:    payload.Deferred,
	}).Wait(c.Request.Context())
	if err != nil {
		s.tradeFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

type transactionAction struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (s *Server) cancelTransaction(c *gin.Context) {
	s.transitionTransaction(c, s.exec.CancelTransaction)
}

func (s *Server) settleTransaction(c *gin.Context) {
	s.transitionTransaction(c, s.exec.SettleTransaction)
}

func (s *Server) transitionTransaction(c *gin.Context, fn func(id, userID uint) (*models.Transaction, error)) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var action transactionAction
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txn, err := fn(id, action.UserID)
	if err != nil {
		s.tradeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

type portfolioPayload struct {
	UserID uint   `json:"user_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

func (s *Server) createPortfolio(c *gin.Context) {
	var payload portfolioPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Portfolio{UserID: payload.UserID, Name: payload.Name}
	if err := s.store.CreatePortfolio(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getPortfolio(c *gin.Context) {
	p, positions, ok := s.loadPortfolio(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": p, "positions": positions})
}

func (s *Server) portfolioInsights(c *gin.Context) {
	p, positions, ok := s.loadPortfolio(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.advisor.Advise(p, positions))
}

func (s *Server) loadPortfolio(c *gin.Context) (*models.Portfolio, []models.Position, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, nil, false
	}
	p, err := s.store.PortfolioByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
		return nil, nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	positions, err := s.store.PositionsByPortfolio(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return p, positions, true
}

func (s *Server) portfolioTrades(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	txns, err := s.exec.TradesByPortfolio(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (s *Server) userTrades(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	txns, err := s.exec.TradesByUser(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, txns)
}

// tradeFailure maps executor rejections onto status codes.
func (s *Server) tradeFailure(c *gin.Context, err error) {
	var te *trading.TradeError
	if !errors.As(err, &te) {
		s.log.Errorw("trade failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch te.Reason {
	case trading.ReasonUnauthorized:
		status = http.StatusForbidden
	case trading.ReasonInvalidQuantity, trading.ReasonInsufficientPosition:
		status = http.StatusUnprocessableEntity
	case trading.ReasonNotCancellable:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": te.Error(), "reason": te.Reason})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}
