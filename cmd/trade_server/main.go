package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alitto/pond"

	"paper_trading/internal/analytics"
	"paper_trading/internal/config"
	"paper_trading/internal/logger"
	"paper_trading/internal/marketdata"
	"paper_trading/internal/server"
	"paper_trading/internal/storage"
	"paper_trading/internal/trading"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)
	defer log.Sync()

	// 2. Storage
	var store storage.Store
	if cfg.DBPath != "" {
		gs, err := storage.OpenGorm(cfg.DBPath)
		if err != nil {
			log.Fatalw("opening database", "path", cfg.DBPath, "err", err)
		}
		defer gs.Close()
		store = gs
		log.Infow("using sqlite store", "path", cfg.DBPath)
	} else {
		store = storage.NewMemoryStore()
		log.Info("using in-memory store, state is lost on exit")
	}

	// 3. Market data: provider chain, permit pool, worker pool
	var providers []marketdata.Provider
	if cfg.HasAlpaca() {
		providers = append(providers, marketdata.NewAlpacaProvider())
	}
	if cfg.HasAlphaVantage() {
		providers = append(providers, marketdata.NewAlphaVantageProvider(cfg.AlphaVantageKey))
	}
	providers = append(providers, marketdata.NewYahooProvider())
	log.Infow("provider chain ready", "chain", cfg.ProviderSummary())

	limiter := marketdata.NewPermitPool(cfg.RateLimitPermits, cfg.RateLimitWindow)
	pool := pond.New(cfg.PoolWorkers, cfg.PoolCapacity,
		pond.MinWorkers(1),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(p any) {
			log.Errorw("worker panic recovered", "panic", p)
		}))

	quotes := marketdata.NewService(providers, limiter, pool, store, log)

	// 4. Background refresh
	refresher := marketdata.NewRefresher(quotes, store, cfg.Watchlist, cfg.RefreshInterval, log)
	refresher.Start()

	// 5. Trading core and HTTP edge
	exec := trading.NewExecutor(store, quotes, pool, log)
	srv := server.New(quotes, exec, store, analytics.NewHeuristicAdvisor(), log)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}
	go func() {
		log.Infow("http server listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "err", err)
		}
	}()

	// 6. Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "err", err)
	}

	refresher.Stop()
	pool.StopAndWait()
	log.Info("trade server stopped")
}
