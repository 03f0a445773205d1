package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	xhttp "MemePulse/pkg/http"
	"MemePulse/pkg/util"
)

const defaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches company news headlines for the hype pipeline.
type FinnhubClient struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

var _ drepo.NewsProvider = (*FinnhubClient)(nil)

// NewFinnhubClient creates a Finnhub REST client.
func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) *FinnhubClient {
	if baseURL == "" {
		baseURL = defaultFinnhubURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FinnhubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type finnhubArticle struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

// CompanyNews returns articles for ticker in the [from, to] day window.
func (c *FinnhubClient) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}

	var raw []finnhubArticle
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/company-news",
		QueryParams: map[string][]string{
			"symbol": {strings.ToUpper(ticker)},
			"from":   {util.FormatDay(from)},
			"to":     {util.FormatDay(to)},
			"token":  {c.apiKey},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("finnhub company-news %s: %w", ticker, err)
	}

	out := make([]models.NewsArticle, 0, len(raw))
	for _, a := range raw {
		out = append(out, models.NewsArticle{Headline: a.Headline, Summary: a.Summary})
	}
	return out, nil
}
