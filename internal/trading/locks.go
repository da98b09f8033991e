package trading

import "sync"

// portfolioLocks hands out one mutex per portfolio. Reconciliation and
// aggregate recomputation for a portfolio run under its lock, so concurrent
// trades against the same portfolio apply one at a time while different
// portfolios proceed in parallel.
type portfolioLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newPortfolioLocks() *portfolioLocks {
	return &portfolioLocks{locks: make(map[uint]*sync.Mutex)}
}

func (pl *portfolioLocks) get(portfolioID uint) *sync.Mutex {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	m, ok := pl.locks[portfolioID]
	if !ok {
		m = &sync.Mutex{}
		pl.locks[portfolioID] = m
	}
	return m
}
