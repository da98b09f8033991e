package storage

import (
	"sort"
	"strings"
	"sync"

	"paper_trading/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and is the
// zero-configuration default when no DB_PATH is set.
type MemoryStore struct {
	mu sync.RWMutex

	portfolios   map[uint]models.Portfolio
	positions    map[uint]models.Position
	transactions map[uint]models.Transaction
	prices       map[string]models.StockPrice

	nextPortfolioID   uint
	nextPositionID    uint
	nextTransactionID uint
	nextPriceID       uint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		portfolios:   make(map[uint]models.Portfolio),
		positions:    make(map[uint]models.Position),
		transactions: make(map[uint]models.Transaction),
		prices:       make(map[string]models.StockPrice),
	}
}

func (s *MemoryStore) CreatePortfolio(p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPortfolioID++
	p.ID = s.nextPortfolioID
	s.portfolios[p.ID] = *p
	return nil
}

func (s *MemoryStore) PortfolioByID(id uint) (*models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) UpdatePortfolio(p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.portfolios[p.ID]; !ok {
		return ErrNotFound
	}
	s.portfolios[p.ID] = *p
	return nil
}

func (s *MemoryStore) PositionsByPortfolio(portfolioID uint) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Position
	for _, pos := range s.positions {
		if pos.PortfolioID == portfolioID {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) PositionBySymbol(portfolioID uint, symbol string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pos := range s.positions {
		if pos.PortfolioID == portfolioID && pos.Symbol == symbol {
			cp := pos
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SavePosition(p *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextPositionID++
		p.ID = s.nextPositionID
	}
	s.positions[p.ID] = *p
	return nil
}

func (s *MemoryStore) DeletePosition(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[id]; !ok {
		return ErrNotFound
	}
	delete(s.positions, id)
	return nil
}

func (s *MemoryStore) SaveTransaction(t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextTransactionID++
		t.ID = s.nextTransactionID
	}
	s.transactions[t.ID] = *t
	return nil
}

func (s *MemoryStore) UpdateTransaction(t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return ErrNotFound
	}
	s.transactions[t.ID] = *t
	return nil
}

func (s *MemoryStore) TransactionByID(id uint) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (s *MemoryStore) TransactionsByPortfolio(portfolioID uint) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *MemoryStore) TransactionsByUser(userID uint) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *MemoryStore) UpsertStockPrice(q models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.prices[q.Symbol]
	if !ok {
		s.nextPriceID++
		entry = models.StockPrice{ID: s.nextPriceID, Symbol: q.Symbol}
	}
	entry.Price = q.Price
	entry.Synthetic = q.Synthetic
	entry.Timestamp = q.Timestamp
	s.prices[q.Symbol] = entry
	return nil
}

func (s *MemoryStore) StockPriceBySymbol(symbol string) (*models.StockPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) SearchSymbols(query string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToUpper(strings.TrimSpace(query))
	var out []string
	for sym := range s.prices {
		if strings.Contains(sym, q) {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// newest first, matching the durable store's ordering
func sortTransactions(ts []models.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Timestamp.Equal(ts[j].Timestamp) {
			return ts[i].ID > ts[j].ID
		}
		return ts[i].Timestamp.After(ts[j].Timestamp)
	})
}
