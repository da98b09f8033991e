package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultWatchlist is the watch-set the background refresher keeps warm when
// no REFRESH_WATCHLIST override is configured.
var DefaultWatchlist = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX", "ORCL", "CRM",
	"AMD", "INTC", "CSCO", "ADBE", "PYPL", "UBER", "SPOT", "SHOP", "COIN", "PLTR",
}

// Config holds everything the server needs at startup. Provider credentials
// are optional: a missing key disables that provider tier and the quote chain
// degrades to the credential-free tier, never to a startup failure.
type Config struct {
	ListenAddr string
	DBPath     string // empty selects the in-memory store

	AlpacaKeyID     string
	AlpacaSecretKey string
	AlphaVantageKey string

	RateLimitPermits int
	RateLimitWindow  time.Duration

	RefreshInterval time.Duration
	Watchlist       []string

	PoolWorkers  int
	PoolCapacity int

	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int
}

// Load reads a .env file when present and assembles the configuration from
// the process environment. It never fails: every value has a default.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("DB_PATH", ""),

		AlpacaKeyID:     os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecretKey: os.Getenv("APCA_API_SECRET_KEY"),
		AlphaVantageKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),

		RateLimitPermits: getEnvAsInt("RATE_LIMIT_PER_WINDOW", 60),
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		Watchlist:       getEnvAsList("REFRESH_WATCHLIST", DefaultWatchlist),

		PoolWorkers:  getEnvAsInt("POOL_WORKERS", 8),
		PoolCapacity: getEnvAsInt("POOL_CAPACITY", 128),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFile:       getEnv("LOG_FILE", "trade_server.log"),
		MaxLogSizeMB:  getEnvAsInt64("MAX_LOG_SIZE_MB", 10),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),
	}

	return cfg
}

// HasAlpaca reports whether the credentialed Alpaca tier is configured.
// The SDK needs both the key id and the secret.
func (c *Config) HasAlpaca() bool {
	return c.AlpacaKeyID != "" && c.AlpacaSecretKey != ""
}

// HasAlphaVantage reports whether the Alpha Vantage tier is configured.
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantageKey != ""
}

// ProviderSummary describes the enabled quote tiers for startup logging,
// with credentials left out.
func (c *Config) ProviderSummary() string {
	tiers := []string{}
	if c.HasAlpaca() {
		tiers = append(tiers, "alpaca")
	}
	if c.HasAlphaVantage() {
		tiers = append(tiers, "alphavantage")
	}
	tiers = append(tiers, "yahoo", "synthetic")
	return strings.Join(tiers, " > ")
}
