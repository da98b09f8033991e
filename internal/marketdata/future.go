package marketdata

import (
	"context"

	"paper_trading/internal/models"
)

// QuoteFuture is the async handle returned by Service.GetQuote. The quote
// itself is total (a synthesized fallback exists for every symbol); the only
// error Wait can surface is the caller's own context ending.
type QuoteFuture struct {
	done  chan struct{}
	quote models.Quote
}

func newQuoteFuture() *QuoteFuture {
	return &QuoteFuture{done: make(chan struct{})}
}

func (f *QuoteFuture) complete(q models.Quote) {
	f.quote = q
	close(f.done)
}

// Wait blocks until the fetch finished or ctx ends.
func (f *QuoteFuture) Wait(ctx context.Context) (models.Quote, error) {
	select {
	case <-f.done:
		return f.quote, nil
	case <-ctx.Done():
		return models.Quote{}, ctx.Err()
	}
}

// HistoryFuture is the async handle for Service.Historical.
type HistoryFuture struct {
	done    chan struct{}
	candles []models.HistoricalPrice
}

func newHistoryFuture() *HistoryFuture {
	return &HistoryFuture{done: make(chan struct{})}
}

func (f *HistoryFuture) complete(candles []models.HistoricalPrice) {
	f.candles = candles
	close(f.done)
}

func (f *HistoryFuture) Wait(ctx context.Context) ([]models.HistoricalPrice, error) {
	select {
	case <-f.done:
		return f.candles, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SearchFuture is the async handle for Service.Search.
type SearchFuture struct {
	done    chan struct{}
	matches []models.SymbolMatch
}

func newSearchFuture() *SearchFuture {
	return &SearchFuture{done: make(chan struct{})}
}

func (f *SearchFuture) complete(matches []models.SymbolMatch) {
	f.matches = matches
	close(f.done)
}

func (f *SearchFuture) Wait(ctx context.Context) ([]models.SymbolMatch, error) {
	select {
	case <-f.done:
		return f.matches, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
