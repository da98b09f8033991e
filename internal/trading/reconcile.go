package trading

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
	"paper_trading/internal/storage"
)

// applyPosition folds one fill into the portfolio's holding of symbol.
// Must be called with the portfolio lock held.
//
// Buys move the average cost to the quantity-weighted average of the old lot
// and the new fill. Sells never touch the average cost; a sell that empties
// the position deletes the row.
func (e *Executor) applyPosition(portfolioID uint, symbol string, signedQty, price decimal.Decimal, now time.Time) error {
	pos, err := e.store.PositionBySymbol(portfolioID, symbol)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		pos = &models.Position{PortfolioID: portfolioID, Symbol: symbol}
	case err != nil:
		return err
	}

	oldQty := pos.Quantity
	newQty := oldQty.Add(signedQty)

	if newQty.Sign() <= 0 {
		if pos.ID == 0 {
			return nil
		}
		return e.store.DeletePosition(pos.ID)
	}

	if signedQty.Sign() > 0 {
		// newAvg = (oldQty*oldAvg + buyQty*price) / newQty
		openCost := oldQty.Mul(pos.AverageCost)
		addedCost := signedQty.Mul(price)
		pos.AverageCost = openCost.Add(addedCost).Div(newQty)
	}

	pos.Quantity = newQty
	pos.CurrentPrice = price
	pos.TotalValue = newQty.Mul(price)
	pos.LastUpdated = now
	return e.store.SavePosition(pos)
}

// recomputePortfolio rebuilds the derived totals from the surviving positions.
// Must be called with the portfolio lock held.
func (e *Executor) recomputePortfolio(p *models.Portfolio, now time.Time) error {
	positions, err := e.store.PositionsByPortfolio(p.ID)
	if err != nil {
		return err
	}

	value := decimal.Zero
	cost := decimal.Zero
	for _, pos := range positions {
		value = value.Add(pos.TotalValue)
		cost = cost.Add(pos.CostBasis())
	}

	p.TotalValue = value
	p.TotalCostBasis = cost
	p.TotalPnL = value.Sub(cost)
	p.UpdatedAt = now
	return e.store.UpdatePortfolio(p)
}
