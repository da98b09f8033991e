// Package analytics produces portfolio insights for the dashboard. The
// current advisor is heuristic: it scores concentration and unrealized
// performance rather than calling out to a model.
package analytics

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
)

// Recommendation values carried by an Insight.
const (
	RecommendHold       = "HOLD"
	RecommendDiversify  = "DIVERSIFY"
	RecommendTrim       = "TRIM"
	RecommendAccumulate = "ACCUMULATE"
)

// Risk levels carried by an Insight.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Insight is one piece of advice about a portfolio's current state.
type Insight struct {
	Summary        string    `json:"summary"`
	Recommendation string    `json:"recommendation"`
	Risk           string    `json:"risk"`
	Confidence     float64   `json:"confidence"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Advisor turns a portfolio and its positions into an Insight.
type Advisor interface {
	Advise(p *models.Portfolio, positions []models.Position) Insight
}

// HeuristicAdvisor scores concentration and unrealized PnL. The confidence
// figure is seeded from the portfolio state, so repeated calls over unchanged
// holdings return the same insight.
type HeuristicAdvisor struct{}

func NewHeuristicAdvisor() *HeuristicAdvisor { return &HeuristicAdvisor{} }

func (a *HeuristicAdvisor) Advise(p *models.Portfolio, positions []models.Position) Insight {
	now := time.Now()
	if len(positions) == 0 {
		return Insight{
			Summary:        "Portfolio holds no positions.",
			Recommendation: RecommendAccumulate,
			Risk:           RiskLow,
			Confidence:     0.9,
			GeneratedAt:    now,
		}
	}

	top, topShare := concentration(p, positions)
	pnlPct := pnlPercent(p)

	risk := RiskLow
	switch {
	case topShare >= 0.5:
		risk = RiskHigh
	case topShare >= 0.3 || len(positions) < 3:
		risk = RiskMedium
	}

	recommendation := RecommendHold
	summary := fmt.Sprintf("%d positions, top holding %s at %.0f%% of value, unrealized PnL %.1f%%.",
		len(positions), top, topShare*100, pnlPct)
	switch {
	case risk == RiskHigh:
		recommendation = RecommendDiversify
		summary += fmt.Sprintf(" Exposure is concentrated in %s.", top)
	case pnlPct >= 25:
		recommendation = RecommendTrim
		summary += " Consider locking in part of the gain."
	case pnlPct <= -15:
		recommendation = RecommendAccumulate
		summary += " Averaging down would lower the cost basis."
	}

	return Insight{
		Summary:        summary,
		Recommendation: recommendation,
		Risk:           risk,
		Confidence:     confidenceFor(p, positions),
		GeneratedAt:    now,
	}
}

// concentration returns the symbol holding the largest share of total value
// and that share as a fraction.
func concentration(p *models.Portfolio, positions []models.Position) (string, float64) {
	if p.TotalValue.IsZero() {
		return positions[0].Symbol, 0
	}
	top := positions[0]
	for _, pos := range positions[1:] {
		if pos.TotalValue.GreaterThan(top.TotalValue) {
			top = pos
		}
	}
	share, _ := top.TotalValue.Div(p.TotalValue).Float64()
	return top.Symbol, share
}

func pnlPercent(p *models.Portfolio) float64 {
	if p.TotalCostBasis.IsZero() {
		return 0
	}
	pct, _ := p.TotalPnL.Div(p.TotalCostBasis).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// confidenceFor is bounded to [0.5, 0.95] and deterministic for a given
// portfolio state.
func confidenceFor(p *models.Portfolio, positions []models.Position) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s", p.ID, p.TotalValue.String())
	for _, pos := range positions {
		fmt.Fprintf(h, "|%s:%s", pos.Symbol, pos.Quantity.String())
	}
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return 0.5 + rng.Float64()*0.45
}
