package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	xhttp "MemePulse/pkg/http"
)

const defaultApeWisdomURL = "https://apewisdom.io/api/v1.0/filter/all-stocks"

// ApeWisdomClient fetches the shared social trending list. One request
// covers every ticker; callers cache the whole list.
type ApeWisdomClient struct {
	url    string
	client *xhttp.Client
}

var _ drepo.TrendingProvider = (*ApeWisdomClient)(nil)

// NewApeWisdomClient creates an ApeWisdom client. An empty url uses the
// public all-stocks filter.
func NewApeWisdomClient(url string, timeout time.Duration) *ApeWisdomClient {
	if url == "" {
		url = defaultApeWisdomURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ApeWisdomClient{
		url:    url,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type apeWisdomResponse struct {
	Results []struct {
		Ticker   string `json:"ticker"`
		Name     string `json:"name"`
		Mentions int    `json:"mentions"`
		Upvotes  int    `json:"upvotes"`
		Rank     int    `json:"rank"`
	} `json:"results"`
}

// Trending returns the current trending list in provider rank order.
func (c *ApeWisdomClient) Trending(ctx context.Context) ([]models.TrendingEntry, error) {
	var resp apeWisdomResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("apewisdom trending: %w", err)
	}

	out := make([]models.TrendingEntry, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, models.TrendingEntry{
			Ticker:   strings.ToUpper(r.Ticker),
			Name:     r.Name,
			Mentions: r.Mentions,
			Upvotes:  r.Upvotes,
			Rank:     r.Rank,
		})
	}
	return out, nil
}
