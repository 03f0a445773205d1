package analytics

import (
	"context"
	"fmt"
	"time"

	drepo "MemePulse/internal/domain/repository"
	xhttp "MemePulse/pkg/http"
)

// HTTPSentimentScorer calls an external analytics HTTP service that rates
// text polarity. The service exposes POST /sentiment taking {"text": ...}
// and returning {"polarity": ...} in [-1, 1].
type HTTPSentimentScorer struct {
	baseURL string
	client  *xhttp.Client
}

var _ drepo.SentimentScorer = (*HTTPSentimentScorer)(nil)

// NewHTTPSentimentScorer builds the scorer. An empty baseURL is allowed;
// Polarity then fails and callers degrade to neutral sentiment.
func NewHTTPSentimentScorer(baseURL string, timeout time.Duration) *HTTPSentimentScorer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPSentimentScorer{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Polarity float64 `json:"polarity"`
}

// Polarity rates text in [-1, 1]. Empty text is neutral.
func (s *HTTPSentimentScorer) Polarity(ctx context.Context, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	if s.baseURL == "" {
		return 0, fmt.Errorf("sentiment service not configured")
	}

	var resp sentimentResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    s.baseURL + "/sentiment",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: sentimentRequest{Text: text},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("post /sentiment: %w", err)
	}
	return resp.Polarity, nil
}
