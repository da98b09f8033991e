package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paper_trading/internal/models"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider is the keyed HTTP tier. All payload fields are parsed
// defensively: a missing or malformed required field is a fetch failure, not
// a crash.
type AlphaVantageProvider struct {
	apiKey string
	cli    *jsonClient
}

func NewAlphaVantageProvider(apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey: apiKey,
		cli:    newJSONClient(10 * time.Second),
	}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

func (p *AlphaVantageProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var raw struct {
		Note        string            `json:"Note"`
		Information string            `json:"Information"`
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := p.cli.getJSON(ctx, p.endpoint("GLOBAL_QUOTE", symbol, nil), &raw); err != nil {
		return models.Quote{}, err
	}
	// The API reports quota exhaustion as a 200 with a prose payload.
	if raw.Note != "" || raw.Information != "" {
		return models.Quote{}, ErrRateLimited
	}
	if len(raw.GlobalQuote) == 0 {
		return models.Quote{}, ErrNoQuote
	}

	price, err := parseDecimalField(raw.GlobalQuote, "05. price")
	if err != nil || !price.IsPositive() {
		return models.Quote{}, ErrNoQuote
	}
	prevClose, _ := parseDecimalField(raw.GlobalQuote, "08. previous close")
	change, _ := parseDecimalField(raw.GlobalQuote, "09. change")
	changePct, _ := parseDecimalField(raw.GlobalQuote, "10. change percent")
	volume, _ := strconv.ParseInt(raw.GlobalQuote["06. volume"], 10, 64)

	return models.Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prevClose,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		Timestamp:     time.Now(),
		Source:        p.Name(),
	}, nil
}

// Historical fetches daily candles, or 5-minute candles for period
// "intraday". Candles come back oldest first.
func (p *AlphaVantageProvider) Historical(ctx context.Context, symbol, period string) ([]models.HistoricalPrice, error) {
	function := "TIME_SERIES_DAILY"
	seriesKey := "Time Series (Daily)"
	timeLayout := "2006-01-02"
	var extra url.Values
	if period == "intraday" {
		function = "TIME_SERIES_INTRADAY"
		seriesKey = "Time Series (5min)"
		timeLayout = "2006-01-02 15:04:05"
		extra = url.Values{"interval": []string{"5min"}}
	}

	var raw map[string]json.RawMessage
	if err := p.cli.getJSON(ctx, p.endpoint(function, symbol, extra), &raw); err != nil {
		return nil, err
	}
	seriesRaw, ok := raw[seriesKey]
	if !ok {
		return nil, ErrNoQuote
	}
	var series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	}
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, err
	}

	out := make([]models.HistoricalPrice, 0, len(series))
	for stamp, candle := range series {
		ts, err := time.Parse(timeLayout, stamp)
		if err != nil {
			continue
		}
		closePx, err := decimal.NewFromString(candle.Close)
		if err != nil {
			continue
		}
		open, _ := decimal.NewFromString(candle.Open)
		high, _ := decimal.NewFromString(candle.High)
		low, _ := decimal.NewFromString(candle.Low)
		volume, _ := strconv.ParseInt(candle.Volume, 10, 64)
		out = append(out, models.HistoricalPrice{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoQuote
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Search runs a SYMBOL_SEARCH keyword query.
func (p *AlphaVantageProvider) Search(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	u := fmt.Sprintf("%s?function=SYMBOL_SEARCH&keywords=%s&apikey=%s",
		alphaVantageBaseURL, url.QueryEscape(query), p.apiKey)

	var raw struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := p.cli.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	out := make([]models.SymbolMatch, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		if m["1. symbol"] == "" {
			continue
		}
		out = append(out, models.SymbolMatch{
			Symbol:   m["1. symbol"],
			Name:     m["2. name"],
			Region:   m["4. region"],
			Currency: m["8. currency"],
		})
	}
	return out, nil
}

func (p *AlphaVantageProvider) endpoint(function, symbol string, extra url.Values) string {
	u := fmt.Sprintf("%s?function=%s&symbol=%s&apikey=%s",
		alphaVantageBaseURL, function, url.QueryEscape(symbol), p.apiKey)
	if len(extra) > 0 {
		u += "&" + extra.Encode()
	}
	return u
}

func parseDecimalField(fields map[string]string, key string) (decimal.Decimal, error) {
	v := strings.TrimSuffix(strings.TrimSpace(fields[key]), "%")
	if v == "" {
		return decimal.Zero, ErrNoQuote
	}
	return decimal.NewFromString(v)
}
