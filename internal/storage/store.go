// Package storage is the narrow persistence surface the trading core and the
// market data refresher are allowed to touch. The core never issues storage
// queries beyond this interface; implementations are injected, never looked
// up globally.
package storage

import (
	"errors"

	"paper_trading/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the CRUD collaborator for portfolios, positions, transactions and
// persisted latest prices.
type Store interface {
	CreatePortfolio(p *models.Portfolio) error
	PortfolioByID(id uint) (*models.Portfolio, error)
	UpdatePortfolio(p *models.Portfolio) error

	PositionsByPortfolio(portfolioID uint) ([]models.Position, error)
	PositionBySymbol(portfolioID uint, symbol string) (*models.Position, error)
	SavePosition(p *models.Position) error
	DeletePosition(id uint) error

	SaveTransaction(t *models.Transaction) error
	UpdateTransaction(t *models.Transaction) error
	TransactionByID(id uint) (*models.Transaction, error)
	TransactionsByPortfolio(portfolioID uint) ([]models.Transaction, error)
	TransactionsByUser(userID uint) ([]models.Transaction, error)

	UpsertStockPrice(q models.Quote) error
	StockPriceBySymbol(symbol string) (*models.StockPrice, error)
	SearchSymbols(query string, limit int) ([]string, error)
}
