package marketdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"paper_trading/internal/storage"
)

// Refresher keeps a watchlist warm: every interval it fans out one quote
// request per symbol and persists what comes back. A run that overlaps a
// slow predecessor is skipped rather than queued.
type Refresher struct {
	quotes   *Service
	store    storage.Store
	symbols  []string
	interval time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRefresher(quotes *Service, store storage.Store, symbols []string, interval time.Duration, log *zap.SugaredLogger) *Refresher {
	return &Refresher{
		quotes:   quotes,
		store:    store,
		symbols:  symbols,
		interval: interval,
		log:      log,
	}
}

// Start launches the refresh loop. The first cycle runs immediately; later
// cycles fire on the ticker. Calling Start on a running refresher is a no-op.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx)
	r.log.Infow("refresh scheduler started", "symbols", len(r.symbols), "interval", r.interval)
}

// Stop halts scheduling. Fetches already in flight run to completion; Stop
// returns once the loop has exited.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	r.log.Info("refresh scheduler stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	inFlight := make(chan struct{}, 1)
	r.runOnce(inFlight)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(inFlight)
		}
	}
}

// runOnce refreshes every watched symbol. Each symbol is fetched and persisted
// independently, so one failing symbol never poisons the rest of the cycle.
// Fetch contexts come from Background on purpose: stopping the scheduler must
// not abort work already submitted.
func (r *Refresher) runOnce(inFlight chan struct{}) {
	select {
	case inFlight <- struct{}{}:
	default:
		r.log.Warn("refresh cycle still running, skipping this tick")
		return
	}

	go func() {
		defer func() { <-inFlight }()
		start := time.Now()

		ctx, cancel := context.WithTimeout(context.Background(), r.interval)
		defer cancel()

		var wg sync.WaitGroup
		for _, symbol := range r.symbols {
			wg.Add(1)
			future := r.quotes.GetQuote(ctx, symbol)
			go func(symbol string) {
				defer wg.Done()
				q, err := future.Wait(ctx)
				if err != nil {
					r.log.Warnw("refresh fetch timed out", "symbol", symbol, "err", err)
					return
				}
				if err := r.store.UpsertStockPrice(q); err != nil {
					r.log.Errorw("refresh persist failed", "symbol", symbol, "err", err)
				}
			}(symbol)
		}
		wg.Wait()

		r.log.Debugw("refresh cycle complete", "symbols", len(r.symbols), "elapsed", time.Since(start))
	}()
}
