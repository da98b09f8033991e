package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure optional envs are unset so defaults apply.
	optionals := []string{
		"LISTEN_ADDR", "DB_PATH",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "ALPHA_VANTAGE_API_KEY",
		"RATE_LIMIT_PER_WINDOW", "RATE_LIMIT_WINDOW",
		"REFRESH_INTERVAL", "REFRESH_WATCHLIST",
		"POOL_WORKERS", "POOL_CAPACITY", "LOG_LEVEL",
	}
	for _, k := range optionals {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, 60, cfg.RateLimitPermits)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, DefaultWatchlist, cfg.Watchlist)
	assert.Equal(t, "INFO", cfg.LogLevel)

	// No credentials configured: only the free tiers remain.
	assert.False(t, cfg.HasAlpaca())
	assert.False(t, cfg.HasAlphaVantage())
	assert.Equal(t, "yahoo > synthetic", cfg.ProviderSummary())
}

func TestLoadConfig_CredentialTiers(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "av_key")

	cfg := Load()

	require.True(t, cfg.HasAlpaca())
	require.True(t, cfg.HasAlphaVantage())
	assert.Equal(t, "alpaca > alphavantage > yahoo > synthetic", cfg.ProviderSummary())

	// A key id without its secret must not enable the Alpaca tier.
	t.Setenv("APCA_API_SECRET_KEY", "")
	cfg = Load()
	assert.False(t, cfg.HasAlpaca())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_WINDOW", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "250ms")
	t.Setenv("REFRESH_INTERVAL", "2s")
	t.Setenv("REFRESH_WATCHLIST", " aapl, msft ,,tsla ")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimitPermits)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitWindow)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, cfg.Watchlist)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_WINDOW", "not-a-number")
	t.Setenv("REFRESH_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 60, cfg.RateLimitPermits)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
}
