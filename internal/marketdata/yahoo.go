package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider is the credential-free HTTP tier, reading the chart v8 meta
// block. It is the floor of the real-provider chain; below it only the
// synthesized quote remains.
type YahooProvider struct {
	cli *jsonClient
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{cli: newJSONClient(10 * time.Second)}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	u := fmt.Sprintf("%s/%s?interval=1m&range=1d", yahooChartBaseURL, url.PathEscape(symbol))

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice  float64 `json:"regularMarketPrice"`
					RegularMarketVolume int64   `json:"regularMarketVolume"`
					RegularMarketTime   int64   `json:"regularMarketTime"`
					PreviousClose       float64 `json:"previousClose"`
					ChartPreviousClose  float64 `json:"chartPreviousClose"`
				} `json:"meta"`
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error any `json:"error"`
		} `json:"chart"`
	}
	if err := p.cli.getJSON(ctx, u, &raw); err != nil {
		return models.Quote{}, err
	}
	if len(raw.Chart.Result) == 0 {
		return models.Quote{}, ErrNoQuote
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice

	// Some off-hours payloads omit the market price; scan the candles for the
	// last non-zero close instead.
	if price <= 0 && len(r.Timestamp) > 0 && len(r.Indicators.Quote) > 0 &&
		len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		for i := len(r.Timestamp) - 1; i >= 0; i-- {
			if c := r.Indicators.Quote[0].Close[i]; c > 0 {
				price = c
				break
			}
		}
	}
	if price <= 0 {
		return models.Quote{}, ErrNoQuote
	}

	prevClose := r.Meta.PreviousClose
	if prevClose <= 0 {
		prevClose = r.Meta.ChartPreviousClose
	}

	q := models.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price).Round(4),
		Volume:    r.Meta.RegularMarketVolume,
		Timestamp: time.Now(),
		Source:    p.Name(),
	}
	if prevClose > 0 {
		q.PreviousClose = decimal.NewFromFloat(prevClose).Round(4)
		q.Change = q.Price.Sub(q.PreviousClose)
		q.ChangePercent = q.Change.Div(q.PreviousClose).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return q, nil
}
