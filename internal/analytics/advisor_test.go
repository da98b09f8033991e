package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"paper_trading/internal/models"
)

func position(symbol string, value int64) models.Position {
	return models.Position{
		Symbol:     symbol,
		Quantity:   decimal.NewFromInt(10),
		TotalValue: decimal.NewFromInt(value),
	}
}

func TestAdviseEmptyPortfolio(t *testing.T) {
	a := NewHeuristicAdvisor()
	insight := a.Advise(&models.Portfolio{ID: 1}, nil)

	assert.Equal(t, RecommendAccumulate, insight.Recommendation)
	assert.Equal(t, RiskLow, insight.Risk)
}

func TestAdviseFlagsConcentration(t *testing.T) {
	a := NewHeuristicAdvisor()
	p := &models.Portfolio{
		ID:             1,
		TotalValue:     decimal.NewFromInt(1000),
		TotalCostBasis: decimal.NewFromInt(1000),
	}
	positions := []models.Position{
		position("AAPL", 800),
		position("MSFT", 100),
		position("GOOG", 100),
	}

	insight := a.Advise(p, positions)
	assert.Equal(t, RiskHigh, insight.Risk)
	assert.Equal(t, RecommendDiversify, insight.Recommendation)
	assert.Contains(t, insight.Summary, "AAPL")
}

func TestAdviseBalancedPortfolioHolds(t *testing.T) {
	a := NewHeuristicAdvisor()
	p := &models.Portfolio{
		ID:             1,
		TotalValue:     decimal.NewFromInt(1000),
		TotalCostBasis: decimal.NewFromInt(950),
		TotalPnL:       decimal.NewFromInt(50),
	}
	positions := []models.Position{
		position("AAPL", 250), position("MSFT", 250),
		position("GOOG", 250), position("AMZN", 250),
	}

	insight := a.Advise(p, positions)
	assert.Equal(t, RiskLow, insight.Risk)
	assert.Equal(t, RecommendHold, insight.Recommendation)
	assert.GreaterOrEqual(t, insight.Confidence, 0.5)
	assert.LessOrEqual(t, insight.Confidence, 0.95)
}

func TestAdviseDeterministicForSameState(t *testing.T) {
	a := NewHeuristicAdvisor()
	p := &models.Portfolio{ID: 7, TotalValue: decimal.NewFromInt(500), TotalCostBasis: decimal.NewFromInt(400)}
	positions := []models.Position{position("TSLA", 500)}

	first := a.Advise(p, positions)
	second := a.Advise(p, positions)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Recommendation, second.Recommendation)
}
