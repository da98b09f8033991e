package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper_trading/internal/models"
)

func TestMemoryStore_PortfolioLifecycle(t *testing.T) {
	s := NewMemoryStore()

	pf := &models.Portfolio{UserID: 7, Name: "Growth"}
	require.NoError(t, s.CreatePortfolio(pf))
	require.NotZero(t, pf.ID)

	got, err := s.PortfolioByID(pf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Growth", got.Name)

	got.TotalValue = decimal.NewFromInt(1000)
	require.NoError(t, s.UpdatePortfolio(got))

	again, err := s.PortfolioByID(pf.ID)
	require.NoError(t, err)
	assert.True(t, again.TotalValue.Equal(decimal.NewFromInt(1000)))

	_, err = s.PortfolioByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Positions(t *testing.T) {
	s := NewMemoryStore()

	pos := &models.Position{
		PortfolioID: 1,
		Symbol:      "AAPL",
		Quantity:    decimal.NewFromInt(10),
		AverageCost: decimal.NewFromInt(150),
	}
	require.NoError(t, s.SavePosition(pos))
	require.NotZero(t, pos.ID)

	byID, err := s.PositionBySymbol(1, "AAPL")
	require.NoError(t, err)
	assert.True(t, byID.Quantity.Equal(decimal.NewFromInt(10)))

	_, err = s.PositionBySymbol(1, "MSFT")
	assert.ErrorIs(t, err, ErrNotFound)

	// Updates go through the same save path.
	byID.Quantity = decimal.NewFromInt(20)
	require.NoError(t, s.SavePosition(byID))
	list, err := s.PositionsByPortfolio(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Quantity.Equal(decimal.NewFromInt(20)))

	require.NoError(t, s.DeletePosition(pos.ID))
	assert.ErrorIs(t, s.DeletePosition(pos.ID), ErrNotFound)
}

func TestMemoryStore_TransactionsOrderedNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()

	for i := 0; i < 3; i++ {
		tx := &models.Transaction{
			UserID:      1,
			PortfolioID: 2,
			Symbol:      "TSLA",
			Side:        models.SideBuy,
			Status:      models.StatusCompleted,
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.SaveTransaction(tx))
	}

	byPortfolio, err := s.TransactionsByPortfolio(2)
	require.NoError(t, err)
	require.Len(t, byPortfolio, 3)
	assert.True(t, byPortfolio[0].Timestamp.After(byPortfolio[2].Timestamp))

	byUser, err := s.TransactionsByUser(1)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
}

func TestMemoryStore_StockPricesAndSearch(t *testing.T) {
	s := NewMemoryStore()

	for _, sym := range []string{"AAPL", "AMZN", "MSFT"} {
		q := models.Quote{Symbol: sym, Price: decimal.NewFromInt(100), Timestamp: time.Now()}
		require.NoError(t, s.UpsertStockPrice(q))
	}

	// Upsert overwrites in place.
	require.NoError(t, s.UpsertStockPrice(models.Quote{
		Symbol: "AAPL", Price: decimal.NewFromInt(123), Synthetic: true, Timestamp: time.Now(),
	}))
	p, err := s.StockPriceBySymbol("AAPL")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(123)))
	assert.True(t, p.Synthetic)

	matches, err := s.SearchSymbols("a", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "AMZN"}, matches)

	limited, err := s.SearchSymbols("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
