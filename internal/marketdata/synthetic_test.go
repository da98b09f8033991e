package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSyntheticQuoteDeterministic(t *testing.T) {
	now := time.Now()
	a := SyntheticQuote("ZZZZ", now)
	b := SyntheticQuote("ZZZZ", now)

	assert.True(t, a.Price.Equal(b.Price), "same symbol must yield the same price")
	assert.True(t, a.Change.Equal(b.Change))
	assert.Equal(t, a.Volume, b.Volume)

	c := SyntheticQuote("YYYY", now)
	assert.False(t, a.Price.Equal(c.Price), "different symbols should diverge")
}

func TestSyntheticQuoteBounds(t *testing.T) {
	now := time.Now()
	for _, symbol := range []string{"AAPL", "ZZZZ", "FAKE", "X", "LONGSYMBOL"} {
		q := SyntheticQuote(symbol, now)

		assert.True(t, q.Synthetic)
		assert.Equal(t, syntheticSource, q.Source)
		assert.True(t, q.Price.GreaterThanOrEqual(decimal.NewFromInt(100)), "price floor for %s", symbol)
		assert.True(t, q.Price.LessThanOrEqual(decimal.NewFromInt(500)), "price ceiling for %s", symbol)
		assert.True(t, q.ChangePercent.Abs().LessThanOrEqual(decimal.NewFromInt(5)), "change bound for %s", symbol)
		assert.GreaterOrEqual(t, q.Volume, int64(1_000_000))
		assert.LessOrEqual(t, q.Volume, int64(10_000_000))
	}
}

func TestSyntheticHistoryShape(t *testing.T) {
	now := time.Now()
	candles := SyntheticHistory("ZZZZ", "1M", now)
	assert.Len(t, candles, 31)

	for _, c := range candles {
		assert.True(t, c.High.GreaterThanOrEqual(c.Low))
		assert.True(t, c.High.GreaterThanOrEqual(c.Close))
		assert.True(t, c.Low.LessThanOrEqual(c.Close))
		assert.Positive(t, c.Volume)
	}

	again := SyntheticHistory("ZZZZ", "1M", now)
	assert.True(t, candles[0].Close.Equal(again[0].Close), "series must be reproducible")
}
