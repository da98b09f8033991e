package marketdata

import (
	"context"
	"errors"

	"paper_trading/internal/models"
)

// Fetch failures are recovered by falling through the provider chain, so
// these sentinels exist mostly for logs and tests.
var (
	ErrNoQuote     = errors.New("marketdata: no quote data available")
	ErrRateLimited = errors.New("marketdata: provider rate limited")
)

// Provider fetches a single quote from one external tier. Any error means
// "this tier failed, try the next one"; providers never synthesize data.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// HistoricalProvider is implemented by tiers that can serve daily/intraday
// candles.
type HistoricalProvider interface {
	Historical(ctx context.Context, symbol, period string) ([]models.HistoricalPrice, error)
}

// SearchProvider is implemented by tiers that can search symbols.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]models.SymbolMatch, error)
}
