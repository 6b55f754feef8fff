package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"stockai/internal/config"
	"stockai/internal/logger"
)

const dateLayout = "2006-01-02"

// Client fetches bars, fundamentals and insider trades from the data API.
// Bar responses are cached per symbol for one cycle interval so the
// preprocessor and the technicals agent share one fetch.
type Client struct {
	http  *resty.Client
	retry RetryConfig

	mu       sync.Mutex
	barCache map[string]cachedBars
	maxBars  int
	cacheTTL time.Duration
}

type cachedBars struct {
	bars      []Bar
	fetchedAt time.Time
	rangeKey  string
}

func NewClient(cfg config.MarketConfig, apiKey string) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		http.SetHeader("APCA-API-KEY-ID", apiKey)
	}
	return &Client{
		http:     http,
		retry:    DefaultRetryConfig(),
		barCache: make(map[string]cachedBars),
		maxBars:  cfg.CacheBars,
		cacheTTL: time.Minute,
	}
}

type barsResponse struct {
	Bars []struct {
		T time.Time `json:"t"`
		O float64   `json:"o"`
		H float64   `json:"h"`
		L float64   `json:"l"`
		C float64   `json:"c"`
		V float64   `json:"v"`
	} `json:"bars"`
	NextPageToken string `json:"next_page_token"`
}

// GetBars returns ascending daily bars for [start, end].
func (c *Client) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rangeKey := start.Format(dateLayout) + ":" + end.Format(dateLayout)
	if bars, ok := c.cachedBarsFor(symbol, rangeKey); ok {
		return bars, nil
	}

	var out []Bar
	pageToken := ""
	err := WithRetry(ctx, c.retry, func() error {
		out = out[:0]
		pageToken = ""
		for {
			var body barsResponse
			req := c.http.R().
				SetContext(ctx).
				SetResult(&body).
				SetQueryParams(map[string]string{
					"timeframe": "1Day",
					"start":     start.Format(dateLayout),
					"end":       end.Format(dateLayout),
					"limit":     "1000",
				})
			if pageToken != "" {
				req.SetQueryParam("page_token", pageToken)
			}
			resp, err := req.Get(fmt.Sprintf("/stocks/%s/bars", symbol))
			if err != nil {
				return fmt.Errorf("fetch bars for %s: %w", symbol, err)
			}
			if resp.IsError() {
				return statusError(resp.StatusCode(), "fetch bars for %s", symbol)
			}
			for _, b := range body.Bars {
				out = append(out, Bar{Timestamp: b.T, Open: b.O, High: b.H, Low: b.L, Close: b.C, Volume: b.V})
			}
			if body.NextPageToken == "" {
				return nil
			}
			pageToken = body.NextPageToken
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	out = dedupeBars(out)
	c.storeBars(symbol, rangeKey, out)
	return out, nil
}

// GetFundamentals returns the latest fundamentals snapshot as of a date.
// A 404 from upstream is treated as an empty record, not an error.
func (c *Client) GetFundamentals(ctx context.Context, symbol string, asOf time.Time) (Fundamentals, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var out Fundamentals
	err := WithRetry(ctx, c.retry, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"as_of":  asOf.Format(dateLayout),
				"period": "ttm",
			}).
			Get("/fundamentals")
		if err != nil {
			return fmt.Errorf("fetch fundamentals for %s: %w", symbol, err)
		}
		if resp.StatusCode() == 404 {
			out = Fundamentals{}
			return nil
		}
		if resp.IsError() {
			return statusError(resp.StatusCode(), "fetch fundamentals for %s", symbol)
		}
		return nil
	})
	return out, err
}

// GetInsiderTrades returns reported insider transactions up to asOf. Empty
// responses are normal for thinly covered names.
func (c *Client) GetInsiderTrades(ctx context.Context, symbol string, asOf time.Time) ([]InsiderTrade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var body struct {
		Trades []InsiderTrade `json:"insider_trades"`
	}
	err := WithRetry(ctx, c.retry, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&body).
			SetQueryParams(map[string]string{
				"symbol":   symbol,
				"end_date": asOf.Format(dateLayout),
				"limit":    "1000",
			}).
			Get("/insider-trades")
		if err != nil {
			return fmt.Errorf("fetch insider trades for %s: %w", symbol, err)
		}
		if resp.StatusCode() == 404 {
			body.Trades = nil
			return nil
		}
		if resp.IsError() {
			return statusError(resp.StatusCode(), "fetch insider trades for %s", symbol)
		}
		return nil
	})
	return body.Trades, err
}

func (c *Client) cachedBarsFor(symbol, rangeKey string) ([]Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.barCache[symbol]
	if !ok || entry.rangeKey != rangeKey {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > c.cacheTTL {
		delete(c.barCache, symbol)
		return nil, false
	}
	return entry.bars, true
}

func (c *Client) storeBars(symbol, rangeKey string, bars []Bar) {
	if c.maxBars > 0 && len(bars) > c.maxBars {
		bars = bars[len(bars)-c.maxBars:]
	}
	c.mu.Lock()
	c.barCache[symbol] = cachedBars{bars: bars, fetchedAt: time.Now(), rangeKey: rangeKey}
	c.mu.Unlock()
}

// statusError turns a non-2xx status into an error, marked permanent
// when retrying cannot help (4xx other than 429).
func statusError(code int, format string, args ...any) error {
	err := fmt.Errorf(format+": status=%d", append(args, code)...)
	if PermanentStatus(code) {
		return Permanent(err)
	}
	return err
}

func dedupeBars(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Timestamp.Equal(out[len(out)-1].Timestamp) {
			logger.Debugf("dropping duplicate bar at %s", b.Timestamp.Format(dateLayout))
			continue
		}
		out = append(out, b)
	}
	return out
}
