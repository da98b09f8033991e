package storage

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"paper_trading/internal/models"
)

// GormStore is the durable Store, backed by a single sqlite file.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens (creating if needed) the sqlite database at path and runs
// the schema migration.
func OpenGorm(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(
		&models.Portfolio{},
		&models.Position{},
		&models.Transaction{},
		&models.StockPrice{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreatePortfolio(p *models.Portfolio) error {
	return s.db.Create(p).Error
}

func (s *GormStore) PortfolioByID(id uint) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) UpdatePortfolio(p *models.Portfolio) error {
	return s.db.Save(p).Error
}

func (s *GormStore) PositionsByPortfolio(portfolioID uint) ([]models.Position, error) {
	var out []models.Position
	err := s.db.Where("portfolio_id = ?", portfolioID).Order("id").Find(&out).Error
	return out, err
}

func (s *GormStore) PositionBySymbol(portfolioID uint, symbol string) (*models.Position, error) {
	var p models.Position
	err := s.db.Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SavePosition(p *models.Position) error {
	return s.db.Save(p).Error
}

func (s *GormStore) DeletePosition(id uint) error {
	res := s.db.Delete(&models.Position{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SaveTransaction(t *models.Transaction) error {
	return s.db.Create(t).Error
}

func (s *GormStore) UpdateTransaction(t *models.Transaction) error {
	return s.db.Save(t).Error
}

func (s *GormStore) TransactionByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) TransactionsByPortfolio(portfolioID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("timestamp DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) TransactionsByUser(userID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) UpsertStockPrice(q models.Quote) error {
	var existing models.StockPrice
	err := s.db.Where("symbol = ?", q.Symbol).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry := models.StockPrice{
			Symbol:    q.Symbol,
			Price:     q.Price,
			Synthetic: q.Synthetic,
			Timestamp: q.Timestamp,
		}
		return s.db.Create(&entry).Error
	case err != nil:
		return err
	}
	existing.Price = q.Price
	existing.Synthetic = q.Synthetic
	existing.Timestamp = q.Timestamp
	return s.db.Save(&existing).Error
}

func (s *GormStore) StockPriceBySymbol(symbol string) (*models.StockPrice, error) {
	var p models.StockPrice
	if err := s.db.Where("symbol = ?", symbol).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SearchSymbols(query string, limit int) ([]string, error) {
	pattern := "%" + strings.ToUpper(strings.TrimSpace(query)) + "%"
	var out []string
	err := s.db.Model(&models.StockPrice{}).
		Where("symbol LIKE ?", pattern).
		Order("symbol").Limit(limit).
		Pluck("symbol", &out).Error
	return out, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
