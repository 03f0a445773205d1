package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	xhttp "MemePulse/pkg/http"
)

const (
	defaultOptionsURL = "https://query2.finance.yahoo.com/v7/finance/options"
	defaultChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"

	// Yahoo rejects the Go default UA
	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"
)

// YahooClient fetches option chains and daily history from the public Yahoo
// Finance endpoints. One client serves both provider interfaces.
type YahooClient struct {
	optionsURL string
	chartURL   string
	client     *xhttp.Client
}

var (
	_ drepo.OptionsProvider = (*YahooClient)(nil)
	_ drepo.HistoryProvider = (*YahooClient)(nil)
)

// YahooOption configures YahooClient.
type YahooOption func(*YahooClient)

// WithOptionsURL overrides the options endpoint base.
func WithOptionsURL(u string) YahooOption {
	return func(c *YahooClient) {
		c.optionsURL = strings.TrimRight(u, "/")
	}
}

// WithChartURL overrides the chart endpoint base.
func WithChartURL(u string) YahooOption {
	return func(c *YahooClient) {
		c.chartURL = strings.TrimRight(u, "/")
	}
}

// NewYahooClient creates a Yahoo Finance client.
func NewYahooClient(timeout time.Duration, opts ...YahooOption) *YahooClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &YahooClient{
		optionsURL: defaultOptionsURL,
		chartURL:   defaultChartURL,
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithDefaultHeader("User-Agent", browserUA),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type yahooContract struct {
	Strike       *float64 `json:"strike"`
	Volume       *float64 `json:"volume"`
	OpenInterest *float64 `json:"openInterest"`
}

type yahooOptionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []yahooContract `json:"calls"`
				Puts           []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

// Expirations lists available option expiration dates, soonest first.
func (c *YahooClient) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	resp, err := c.fetchOptions(ctx, ticker, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, nil
	}
	dates := resp.OptionChain.Result[0].ExpirationDates
	out := make([]time.Time, 0, len(dates))
	for _, ts := range dates {
		out = append(out, time.Unix(ts, 0).UTC())
	}
	return out, nil
}

// Chain fetches the calls/puts for one expiration.
func (c *YahooClient) Chain(ctx context.Context, ticker string, expiration time.Time) (*models.OptionChain, error) {
	unix := expiration.Unix()
	resp, err := c.fetchOptions(ctx, ticker, map[string][]string{
		"date": {strconv.FormatInt(unix, 10)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.OptionChain.Result) == 0 || len(resp.OptionChain.Result[0].Options) == 0 {
		return nil, fmt.Errorf("no chain for %s at %s", ticker, expiration.Format("2006-01-02"))
	}

	raw := resp.OptionChain.Result[0].Options[0]
	chain := &models.OptionChain{
		Expiration: expiration,
		Calls:      convertContracts(raw.Calls),
		Puts:       convertContracts(raw.Puts),
	}
	return chain, nil
}

func (c *YahooClient) fetchOptions(ctx context.Context, ticker string, params map[string][]string) (*yahooOptionsResponse, error) {
	var resp yahooOptionsResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/%s", c.optionsURL, ticker),
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo options %s: %w", ticker, err)
	}
	if e := resp.OptionChain.Error; e != nil {
		return nil, fmt.Errorf("yahoo options %s: %s", ticker, e.Description)
	}
	return &resp, nil
}

func convertContracts(raw []yahooContract) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(raw))
	for _, r := range raw {
		// missing per-contract fields are zero
		c := models.OptionContract{}
		if r.Strike != nil {
			c.Strike = *r.Strike
		}
		if r.Volume != nil {
			c.Volume = *r.Volume
		}
		if r.OpenInterest != nil {
			c.OpenInterest = *r.OpenInterest
		}
		out = append(out, c)
	}
	return out
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyHistory returns up to days daily bars in chronological order.
// Days with null closes (halts, listing gaps) are skipped.
func (c *YahooClient) DailyHistory(ctx context.Context, ticker string, days int) ([]models.DailyBar, error) {
	if days <= 0 {
		days = 60
	}

	var resp yahooChartResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%s", c.chartURL, ticker),
		QueryParams: map[string][]string{
			"range":    {fmt.Sprintf("%dd", days)},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", ticker, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]models.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.DailyBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
