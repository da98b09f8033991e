package marketdata

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
)

const syntheticSource = "synthetic"

// SyntheticQuote is the last-resort quote when every provider tier failed.
// It is derived deterministically from the symbol (same symbol, same price)
// and bounded to plausible ranges: price 100-500, change within ±5%, volume
// 1M-10M. Synthetic is set so consumers can mark it non-authoritative.
func SyntheticQuote(symbol string, now time.Time) models.Quote {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := 100 + rng.Float64()*400
	change := (rng.Float64() - 0.5) * price * 0.05
	prevClose := price - change
	changePct := change / prevClose * 100
	volume := 1_000_000 + rng.Int63n(9_000_000)

	return models.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(price).Round(2),
		PreviousClose: decimal.NewFromFloat(prevClose).Round(2),
		Change:        decimal.NewFromFloat(change).Round(2),
		ChangePercent: decimal.NewFromFloat(changePct).Round(2),
		Volume:        volume,
		Timestamp:     now,
		Source:        syntheticSource,
		Synthetic:     true,
	}
}

// SyntheticHistory builds a deterministic random-walk candle series for a
// symbol when no historical tier is available. Period "1M" gives 30 days,
// "3M" 90, anything else a year.
func SyntheticHistory(symbol, period string, now time.Time) []models.HistoricalPrice {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol) + "|" + period))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	days := 365
	switch period {
	case "1M":
		days = 30
	case "3M":
		days = 90
	}

	base := 100 + rng.Float64()*400
	out := make([]models.HistoricalPrice, 0, days+1)
	for i := days; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)

		open := base + rng.NormFloat64()*base*0.02
		closePx := open + rng.NormFloat64()*open*0.03
		span := closePx - open
		if span < 0 {
			span = -span
		}
		high := open + rng.Float64()*span
		if closePx > high {
			high = closePx
		}
		low := open - rng.Float64()*span
		if closePx < low {
			low = closePx
		}
		volume := 500_000 + rng.Int63n(5_000_000)

		out = append(out, models.HistoricalPrice{
			Timestamp: date,
			Open:      decimal.NewFromFloat(open).Round(2),
			High:      decimal.NewFromFloat(high).Round(2),
			Low:       decimal.NewFromFloat(low).Round(2),
			Close:     decimal.NewFromFloat(closePx).Round(2),
			Volume:    volume,
		})

		base = closePx
	}
	return out
}
