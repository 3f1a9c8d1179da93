package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"GridSentinel/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	limiter   *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. ratePerSec <= 0 disables throttling.
func NewYahooFetcher(proxyURL string, ratePerSec float64) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooQuote struct {
	QuoteResponse struct {
		Result []struct {
			Symbol            string   `json:"symbol"`
			TrailingPE        *float64 `json:"trailingPE"`
			MarketCap         *float64 `json:"marketCap"`
			SharesOutstanding *float64 `json:"sharesOutstanding"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func (f *YahooFetcher) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("yahoo rate limit: %w", err)
	}

	u := f.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	var chart yahooChart
	path := "/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol))
	if err := f.get(ctx, path, url.Values{"interval": {interval}, "range": {rng}}, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	// ranges are calendar time, days are trading days
	rng := "2y"
	if days <= 20 {
		rng = "1mo"
	} else if days <= 60 {
		rng = "3mo"
	} else if days <= 120 {
		rng = "6mo"
	} else if days <= 250 {
		rng = "1y"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	// Trim to requested count
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// FetchFundamentals reads trailing PE, market cap and share count from the quote endpoint.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	var q yahooQuote
	if err := f.get(ctx, "/v7/finance/quote", url.Values{"symbols": {f.yahooSymbol(symbol)}}, &q); err != nil {
		return model.Fundamentals{}, err
	}
	if q.QuoteResponse.Error != nil {
		return model.Fundamentals{}, fmt.Errorf("yahoo api error: %s", q.QuoteResponse.Error.Description)
	}
	if len(q.QuoteResponse.Result) == 0 {
		return model.Fundamentals{}, nil
	}
	r := q.QuoteResponse.Result[0]
	return model.Fundamentals{
		PE:                r.TrailingPE,
		MarketCap:         r.MarketCap,
		SharesOutstanding: r.SharesOutstanding,
	}, nil
}
