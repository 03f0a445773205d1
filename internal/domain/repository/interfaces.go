package repository

import (
	"context"
	"time"

	"MemePulse/internal/domain/models"
)

// OptionsProvider serves option-chain data for a ticker.
type OptionsProvider interface {
	// Expirations lists available expiration dates, soonest first.
	Expirations(ctx context.Context, ticker string) ([]time.Time, error)
	// Chain fetches the calls/puts for one expiration.
	Chain(ctx context.Context, ticker string, expiration time.Time) (*models.OptionChain, error)
}

// HistoryProvider serves daily price/volume history.
type HistoryProvider interface {
	// DailyHistory returns up to days bars in chronological order.
	DailyHistory(ctx context.Context, ticker string, days int) ([]models.DailyBar, error)
}

// TrendingProvider serves the shared social trending list.
type TrendingProvider interface {
	Trending(ctx context.Context) ([]models.TrendingEntry, error)
}

// NewsProvider serves recent company news headlines.
type NewsProvider interface {
	CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.NewsArticle, error)
}

// SentimentScorer rates text polarity in [-1, 1].
type SentimentScorer interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// AlertStore persists composite alert snapshots.
type AlertStore interface {
	UpsertAlerts(ctx context.Context, alerts []models.CompositeResult) error
	LatestAlerts(ctx context.Context, limit int) ([]models.CompositeResult, error)
	Health(ctx context.Context) error
	Close() error
}

// HypeStore persists hype scores.
type HypeStore interface {
	UpsertHype(ctx context.Context, scores []models.HypeScore) error
	LatestHype(ctx context.Context) ([]models.HypeScore, error)
}

// AlertPublisher publishes composite alerts to a message broker.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *models.CompositeResult) error
	PublishAlerts(ctx context.Context, alerts []models.CompositeResult) error
	Close() error
}

// Metrics abstracts metric recording.
type Metrics interface {
	RecordMessageSent(backend, ticker string)
	RecordError(kind string)
	RecordAlert(level string)
	RecordCacheLookup(cache string, hit bool)
	RecordScore(ticker string, score float64)
	RecordLatency(op string, seconds float64)
}
