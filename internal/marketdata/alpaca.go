package marketdata

import (
	"context"
	"time"

	alpacamd "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
)

// AlpacaProvider is the primary, credentialed tier. The SDK client reads
// APCA_API_KEY_ID / APCA_API_SECRET_KEY from the environment, so this
// provider is only placed in the chain when both are set.
type AlpacaProvider struct {
	md *alpacamd.Client
}

func NewAlpacaProvider() *AlpacaProvider {
	return &AlpacaProvider{md: alpacamd.NewClient(alpacamd.ClientOpts{})}
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

// Quote maps a snapshot onto the quote shape. The SDK does not thread a
// context through its calls; the chain's bounded HTTP timeouts are the
// effective deadline.
func (p *AlpacaProvider) Quote(_ context.Context, symbol string) (models.Quote, error) {
	snap, err := p.md.GetSnapshot(symbol, alpacamd.GetSnapshotRequest{})
	if err != nil {
		return models.Quote{}, err
	}
	if snap == nil || snap.LatestTrade == nil || snap.LatestTrade.Price <= 0 {
		return models.Quote{}, ErrNoQuote
	}

	q := models.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(snap.LatestTrade.Price).Round(4),
		Timestamp: time.Now(),
		Source:    p.Name(),
	}
	if snap.DailyBar != nil {
		q.Volume = int64(snap.DailyBar.Volume)
	}
	if snap.PrevDailyBar != nil && snap.PrevDailyBar.Close > 0 {
		q.PreviousClose = decimal.NewFromFloat(snap.PrevDailyBar.Close).Round(4)
		q.Change = q.Price.Sub(q.PreviousClose)
		q.ChangePercent = q.Change.Div(q.PreviousClose).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return q, nil
}
