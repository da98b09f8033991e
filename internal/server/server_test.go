package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alitto/pond"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper_trading/internal/analytics"
	"paper_trading/internal/marketdata"
	"paper_trading/internal/models"
	"paper_trading/internal/storage"
	"paper_trading/internal/trading"
)

type fixedProvider struct {
	prices map[string]decimal.Decimal
}

func (p *fixedProvider) Name() string { return "fixed" }

func (p *fixedProvider) Quote(_ context.Context, symbol string) (models.Quote, error) {
	price, ok := p.prices[symbol]
	if !ok {
		return models.Quote{}, marketdata.ErrNoQuote
	}
	return models.Quote{Symbol: symbol, Price: price, Timestamp: time.Now(), Source: "fixed"}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := pond.New(4, 32)
	t.Cleanup(pool.StopAndWait)

	store := storage.NewMemoryStore()
	provider := &fixedProvider{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(150)}}
	limiter := marketdata.NewPermitPool(100, time.Minute)
	log := zap.NewNop().Sugar()
	quotes := marketdata.NewService([]marketdata.Provider{provider}, limiter, pool, store, log)
	exec := trading.NewExecutor(store, quotes, pool, log)

	srv := New(quotes, exec, store, analytics.NewHeuristicAdvisor(), log)
	return srv.Router(), store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createPortfolio(t *testing.T, router *gin.Engine) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/portfolios", gin.H{"user_id": 1, "name": "growth"})
	require.Equal(t, http.StatusCreated, w.Code)
	var p models.Portfolio
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p.ID
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetQuote(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/quotes/AAPL", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var q models.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "AAPL", q.Symbol)
	assert.False(t, q.Synthetic)
}

func TestGetQuoteUnknownSymbolSynthesized(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/quotes/ZZZZ", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var q models.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.True(t, q.Synthetic)
}

func TestGetHistory(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/quotes/AAPL/history?period=1M", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Period  string                   `json:"period"`
		Candles []models.HistoricalPrice `json:"candles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1M", resp.Period)
	assert.NotEmpty(t, resp.Candles)
}

func TestSearchRequiresQuery(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTradeLifecycleOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	portfolioID := createPortfolio(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 1, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var txn models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txn))
	assert.Equal(t, models.StatusCompleted, txn.Status)
	assert.Equal(t, models.SideBuy, txn.Side)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%d", portfolioID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Portfolio models.Portfolio  `json:"portfolio"`
		Positions []models.Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Positions, 1)
	assert.True(t, detail.Portfolio.TotalValue.Equal(decimal.NewFromInt(1500)))

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%d/trades", portfolioID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	assert.Len(t, txns, 1)

	w = doJSON(t, router, http.MethodGet, "/api/users/1/trades", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTradeRejectionStatusCodes(t *testing.T) {
	router, _ := newTestRouter(t)
	portfolioID := createPortfolio(t, router)

	// Oversell: no position at all.
	w := doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 1, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "-5",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Foreign portfolio.
	w = doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 9, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "5",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Zero quantity.
	w = doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 1, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "0",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeferredSettleAndCancelOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	portfolioID := createPortfolio(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 1, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "10", "deferred": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var pending models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Equal(t, models.StatusPending, pending.Status)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/transactions/%d/settle", pending.ID), gin.H{"user_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Terminal now: cancelling must conflict.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/transactions/%d/cancel", pending.ID), gin.H{"user_id": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPortfolioInsights(t *testing.T) {
	router, _ := newTestRouter(t)
	portfolioID := createPortfolio(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/trades", gin.H{
		"user_id": 1, "portfolio_id": portfolioID, "symbol": "AAPL", "quantity": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%d/insights", portfolioID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var insight analytics.Insight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &insight))
	assert.NotEmpty(t, insight.Recommendation)
	assert.NotEmpty(t, insight.Summary)
}

func TestPortfolioNotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/portfolios/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
