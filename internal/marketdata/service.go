package marketdata

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trading/internal/models"
	"paper_trading/internal/storage"
)

// MarketMovers groups the cached quotes into gainers, losers and
// most-active, each capped at ten entries.
type MarketMovers struct {
	Gainers    []models.Quote `json:"gainers"`
	Losers     []models.Quote `json:"losers"`
	MostActive []models.Quote `json:"most_active"`
}

// Service is the quote acquisition layer: an ordered provider chain behind a
// shared permit pool, a worker pool for asynchronous execution, and a shared
// last-write-wins quote cache.
//
// GetQuote is total: when every tier fails the service synthesizes a flagged
// fallback quote, so consumers never observe an error.
type Service struct {
	providers []Provider
	limiter   *PermitPool
	pool      *pond.WorkerPool
	store     storage.Store
	log       *zap.SugaredLogger

	mu    sync.RWMutex
	cache map[string]models.Quote
}

// NewService wires the chain. Providers are tried in slice order; pass them
// highest-priority first.
func NewService(providers []Provider, limiter *PermitPool, pool *pond.WorkerPool, store storage.Store, log *zap.SugaredLogger) *Service {
	return &Service{
		providers: providers,
		limiter:   limiter,
		pool:      pool,
		store:     store,
		log:       log,
		cache:     make(map[string]models.Quote),
	}
}

// GetQuote resolves a quote asynchronously on the worker pool.
func (s *Service) GetQuote(ctx context.Context, symbol string) *QuoteFuture {
	symbol = normalizeSymbol(symbol)
	f := newQuoteFuture()
	s.pool.Submit(func() {
		f.complete(s.fetchQuote(ctx, symbol))
	})
	return f
}

// fetchQuote walks the provider chain. Every attempt is gated by the permit
// pool; a denied permit counts as a failed attempt for that tier. Chain
// exhaustion degrades to the synthesized quote.
func (s *Service) fetchQuote(ctx context.Context, symbol string) models.Quote {
	for _, p := range s.providers {
		if err := s.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			s.log.Warnw("quote attempt throttled", "provider", p.Name(), "symbol", symbol, "err", err)
			continue
		}
		q, err := p.Quote(ctx, symbol)
		if err != nil {
			s.log.Debugw("quote tier failed", "provider", p.Name(), "symbol", symbol, "err", err)
			continue
		}
		s.setCached(q)
		return q
	}

	q := SyntheticQuote(symbol, time.Now())
	s.log.Infow("serving synthesized quote", "symbol", symbol, "price", q.Price)
	s.setCached(q)
	return q
}

// CachedQuote returns the most recent quote seen for symbol, if any.
func (s *Service) CachedQuote(symbol string) (models.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.cache[normalizeSymbol(symbol)]
	return q, ok
}

func (s *Service) setCached(q models.Quote) {
	s.mu.Lock()
	s.cache[q.Symbol] = q
	s.mu.Unlock()
}

// Historical resolves candles asynchronously: the first capable tier wins,
// otherwise a deterministic simulated series is served.
func (s *Service) Historical(ctx context.Context, symbol, period string) *HistoryFuture {
	symbol = normalizeSymbol(symbol)
	f := newHistoryFuture()
	s.pool.Submit(func() {
		for _, p := range s.providers {
			hp, ok := p.(HistoricalProvider)
			if !ok {
				continue
			}
			if err := s.limiter.Acquire(ctx); err != nil {
				continue
			}
			candles, err := hp.Historical(ctx, symbol, period)
			if err != nil {
				s.log.Debugw("history tier failed", "provider", p.Name(), "symbol", symbol, "err", err)
				continue
			}
			f.complete(candles)
			return
		}
		f.complete(SyntheticHistory(symbol, period, time.Now()))
	})
	return f
}

// Search resolves symbol matches asynchronously, degrading to a search over
// locally known symbols when no provider tier can serve the query.
func (s *Service) Search(ctx context.Context, query string) *SearchFuture {
	f := newSearchFuture()
	s.pool.Submit(func() {
		for _, p := range s.providers {
			sp, ok := p.(SearchProvider)
			if !ok {
				continue
			}
			if err := s.limiter.Acquire(ctx); err != nil {
				continue
			}
			matches, err := sp.Search(ctx, query)
			if err != nil {
				s.log.Debugw("search tier failed", "provider", p.Name(), "query", query, "err", err)
				continue
			}
			f.complete(matches)
			return
		}
		f.complete(s.localSearch(query))
	})
	return f
}

func (s *Service) localSearch(query string) []models.SymbolMatch {
	symbols, err := s.store.SearchSymbols(query, 10)
	if err != nil {
		s.log.Warnw("local symbol search failed", "query", query, "err", err)
		return nil
	}
	out := make([]models.SymbolMatch, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, models.SymbolMatch{Symbol: sym, Region: "local", Currency: "USD"})
	}
	return out
}

// Movers derives market movers from the shared cache. Thresholds follow the
// usual dashboard convention: ±2% for gainers/losers, 5M volume for
// most-active.
func (s *Service) Movers() MarketMovers {
	s.mu.RLock()
	quotes := make([]models.Quote, 0, len(s.cache))
	for _, q := range s.cache {
		quotes = append(quotes, q)
	}
	s.mu.RUnlock()

	two := decimal.NewFromInt(2)
	var movers MarketMovers
	for _, q := range quotes {
		switch {
		case q.ChangePercent.GreaterThan(two):
			movers.Gainers = append(movers.Gainers, q)
		case q.ChangePercent.LessThan(two.Neg()):
			movers.Losers = append(movers.Losers, q)
		}
		if q.Volume > 5_000_000 {
			movers.MostActive = append(movers.MostActive, q)
		}
	}

	sort.Slice(movers.Gainers, func(i, j int) bool {
		return movers.Gainers[i].ChangePercent.GreaterThan(movers.Gainers[j].ChangePercent)
	})
	sort.Slice(movers.Losers, func(i, j int) bool {
		return movers.Losers[i].ChangePercent.LessThan(movers.Losers[j].ChangePercent)
	})
	sort.Slice(movers.MostActive, func(i, j int) bool {
		return movers.MostActive[i].Volume > movers.MostActive[j].Volume
	})

	movers.Gainers = capQuotes(movers.Gainers, 10)
	movers.Losers = capQuotes(movers.Losers, 10)
	movers.MostActive = capQuotes(movers.MostActive, 10)
	return movers
}

func capQuotes(qs []models.Quote, n int) []models.Quote {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
