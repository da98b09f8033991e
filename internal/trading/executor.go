package trading

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trading/internal/marketdata"
	"paper_trading/internal/models"
	"paper_trading/internal/storage"
)

// TradeRequest is one requested trade. Quantity is signed: positive buys,
// negative sells.
type TradeRequest struct {
	UserID      uint
	PortfolioID uint
	Symbol      string
	Quantity    decimal.Decimal
	OrderKind   string
	Deferred    bool
}

// TradeFuture is the async handle for a submitted trade.
type TradeFuture struct {
	done chan struct{}
	txn  *models.Transaction
	err  error
}

func newTradeFuture() *TradeFuture {
	return &TradeFuture{done: make(chan struct{})}
}

func (f *TradeFuture) complete(txn *models.Transaction, err error) {
	f.txn = txn
	f.err = err
	close(f.done)
}

// Wait blocks until the trade settled or ctx ends.
func (f *TradeFuture) Wait(ctx context.Context) (*models.Transaction, error) {
	select {
	case <-f.done:
		return f.txn, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Executor runs trades: market price resolution, validation, position
// reconciliation and portfolio aggregation, then the transaction record.
// The transaction is persisted last so a failed trade leaves no record.
type Executor struct {
	store  storage.Store
	quotes *marketdata.Service
	pool   *pond.WorkerPool
	log    *zap.SugaredLogger
	locks  *portfolioLocks
}

func NewExecutor(store storage.Store, quotes *marketdata.Service, pool *pond.WorkerPool, log *zap.SugaredLogger) *Executor {
	return &Executor{
		store:  store,
		quotes: quotes,
		pool:   pool,
		log:    log,
		locks:  newPortfolioLocks(),
	}
}

// ExecuteTrade submits the trade to the worker pool and returns immediately.
func (e *Executor) ExecuteTrade(ctx context.Context, req TradeRequest) *TradeFuture {
	f := newTradeFuture()
	e.pool.Submit(func() {
		f.complete(e.executeSync(ctx, req))
	})
	return f
}

func (e *Executor) executeSync(ctx context.Context, req TradeRequest) (*models.Transaction, error) {
	if req.Quantity.IsZero() {
		return nil, rejectf(ReasonInvalidQuantity, "quantity must be non-zero")
	}

	portfolio, err := e.store.PortfolioByID(req.PortfolioID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, rejectf(ReasonUnauthorized, "portfolio %d not found", req.PortfolioID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if portfolio.UserID != req.UserID {
		return nil, rejectf(ReasonUnauthorized, "portfolio %d does not belong to user %d", req.PortfolioID, req.UserID)
	}

	// Price resolution happens outside the portfolio lock: the chain may take
	// seconds and quotes are total, so only a dead context can fail here.
	quote, err := e.quotes.GetQuote(ctx, req.Symbol).Wait(ctx)
	if err != nil {
		return nil, err
	}

	lock := e.locks.get(req.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	side := models.SideBuy
	if req.Quantity.Sign() < 0 {
		side = models.SideSell
		if err := e.checkSellable(req.PortfolioID, quote.Symbol, req.Quantity.Abs()); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	txn := &models.Transaction{
		Ref:         uuid.NewString(),
		UserID:      req.UserID,
		PortfolioID: req.PortfolioID,
		Symbol:      quote.Symbol,
		Side:        side,
		OrderKind:   req.OrderKind,
		Quantity:    req.Quantity.Abs(),
		Price:       quote.Price,
		TotalAmount: req.Quantity.Abs().Mul(quote.Price),
		Status:      models.StatusCompleted,
		Timestamp:   now,
	}

	if req.Deferred {
		txn.Status = models.StatusPending
	} else {
		if err := e.applyPosition(req.PortfolioID, quote.Symbol, req.Quantity, quote.Price, now); err != nil {
			return nil, storageErr(err)
		}
		if err := e.recomputePortfolio(portfolio, now); err != nil {
			return nil, storageErr(err)
		}
	}

	if err := e.store.SaveTransaction(txn); err != nil {
		return nil, storageErr(err)
	}

	e.log.Infow("trade executed",
		"ref", txn.Ref, "portfolio", txn.PortfolioID, "symbol", txn.Symbol,
		"side", txn.Side, "qty", txn.Quantity, "price", txn.Price, "status", txn.Status)
	return txn, nil
}

// checkSellable rejects sells that exceed the currently held quantity.
// Must be called with the portfolio lock held.
func (e *Executor) checkSellable(portfolioID uint, symbol string, qty decimal.Decimal) error {
	pos, err := e.store.PositionBySymbol(portfolioID, symbol)
	if errors.Is(err, storage.ErrNotFound) {
		return rejectf(ReasonInsufficientPosition, "no position in %s", symbol)
	}
	if err != nil {
		return storageErr(err)
	}
	if pos.Quantity.LessThan(qty) {
		return rejectf(ReasonInsufficientPosition,
			"hold %s of %s, tried to sell %s", pos.Quantity, symbol, qty)
	}
	return nil
}

// SettleTransaction applies a deferred (pending) transaction at its recorded
// price and completes it. Only pending transactions can settle.
func (e *Executor) SettleTransaction(id, userID uint) (*models.Transaction, error) {
	txn, err := e.loadOwnedTransaction(id, userID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusPending {
		return nil, rejectf(ReasonNotCancellable, "transaction %d is %s, not pending", id, txn.Status)
	}

	portfolio, err := e.store.PortfolioByID(txn.PortfolioID)
	if err != nil {
		return nil, storageErr(err)
	}

	lock := e.locks.get(txn.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	// Holdings may have changed since the trade was deferred.
	if txn.Side == models.SideSell {
		if err := e.checkSellable(txn.PortfolioID, txn.Symbol, txn.Quantity); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := e.applyPosition(txn.PortfolioID, txn.Symbol, txn.SignedQuantity(), txn.Price, now); err != nil {
		return nil, storageErr(err)
	}
	if err := e.recomputePortfolio(portfolio, now); err != nil {
		return nil, storageErr(err)
	}

	txn.Status = models.StatusCompleted
	if err := e.store.UpdateTransaction(txn); err != nil {
		return nil, storageErr(err)
	}
	e.log.Infow("deferred trade settled", "ref", txn.Ref, "portfolio", txn.PortfolioID)
	return txn, nil
}

// CancelTransaction moves a pending transaction to cancelled. Completed and
// cancelled transactions are terminal.
func (e *Executor) CancelTransaction(id, userID uint) (*models.Transaction, error) {
	txn, err := e.loadOwnedTransaction(id, userID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusPending {
		return nil, rejectf(ReasonNotCancellable, "transaction %d is %s, not pending", id, txn.Status)
	}

	txn.Status = models.StatusCancelled
	if err := e.store.UpdateTransaction(txn); err != nil {
		return nil, storageErr(err)
	}
	e.log.Infow("trade cancelled", "ref", txn.Ref, "portfolio", txn.PortfolioID)
	return txn, nil
}

func (e *Executor) loadOwnedTransaction(id, userID uint) (*models.Transaction, error) {
	txn, err := e.store.TransactionByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, rejectf(ReasonUnauthorized, "transaction %d not found", id)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if txn.UserID != userID {
		return nil, rejectf(ReasonUnauthorized, "transaction %d does not belong to user %d", id, userID)
	}
	return txn, nil
}

// TradesByPortfolio lists a portfolio's transactions, newest first.
func (e *Executor) TradesByPortfolio(portfolioID uint) ([]models.Transaction, error) {
	return e.store.TransactionsByPortfolio(portfolioID)
}

// TradesByUser lists a user's transactions across portfolios, newest first.
func (e *Executor) TradesByUser(userID uint) ([]models.Transaction, error) {
	return e.store.TransactionsByUser(userID)
}
