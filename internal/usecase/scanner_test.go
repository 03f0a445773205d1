package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MemePulse/internal/domain/models"
	"MemePulse/internal/service/ratelimit"
	"MemePulse/pkg/logger"
	"MemePulse/pkg/metrics"
)

type panickyHistoryProvider struct {
	panicOn string
	bars    []models.DailyBar
}

func (p *panickyHistoryProvider) DailyHistory(ctx context.Context, ticker string, days int) ([]models.DailyBar, error) {
	if ticker == p.panicOn {
		panic("provider went sideways")
	}
	return p.bars, nil
}

func newTestScanner(trend *stubTrendingProvider, hist *stubHistoryProvider) *Scanner {
	d := newTestDetector(&stubOptionsProvider{}, hist, trend, newFakeClock())
	return NewScanner(d, ratelimit.New(), 10000, logger.NewNop(), metrics.Nop{})
}

func TestScanWatchlistSortsByScoreDescending(t *testing.T) {
	// only the social signal differentiates the tickers
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{
		{Ticker: "AMC", Rank: 40, Mentions: 5},
		{Ticker: "GME", Rank: 1, Mentions: 500},
		{Ticker: "PLTR", Rank: 10, Mentions: 60},
	}}
	s := newTestScanner(trend, &stubHistoryProvider{bars: volumeBars(100, 100, 100)})

	results := s.ScanWatchlist(context.Background(), []string{"AMC", "GME", "PLTR"})

	assert.Len(t, results, 3)
	assert.Equal(t, "GME", results[0].Ticker)
	assert.Equal(t, "PLTR", results[1].Ticker)
	assert.Equal(t, "AMC", results[2].Ticker)
	assert.True(t, results[0].EarlyWarningScore >= results[1].EarlyWarningScore)
	assert.True(t, results[1].EarlyWarningScore >= results[2].EarlyWarningScore)
}

func TestScanWatchlistSkipsPanickingTicker(t *testing.T) {
	trend := &stubTrendingProvider{}
	hist := &panickyHistoryProvider{panicOn: "BAD", bars: volumeBars(100, 100, 100)}
	d := NewDetector(&stubOptionsProvider{}, hist, trend, DetectorConfig{Clock: newFakeClock()}, logger.NewNop(), metrics.Nop{})
	s := NewScanner(d, ratelimit.New(), 10000, logger.NewNop(), metrics.Nop{})

	results := s.ScanWatchlist(context.Background(), []string{"GME", "BAD", "AMC"})

	assert.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "BAD", r.Ticker)
	}
}

func TestScanWatchlistEmpty(t *testing.T) {
	s := newTestScanner(&stubTrendingProvider{}, &stubHistoryProvider{bars: volumeBars(100, 100, 100)})

	results := s.ScanWatchlist(context.Background(), nil)
	assert.Empty(t, results)
}

func TestScanWatchlistStopsWhenContextExpires(t *testing.T) {
	trend := &stubTrendingProvider{}
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)}
	d := newTestDetector(&stubOptionsProvider{}, hist, trend, newFakeClock())
	// the bucket holds one initial token; at one refill per 1000s the third
	// ticker can never be paced in time
	s := NewScanner(d, ratelimit.New(), 0.001, logger.NewNop(), metrics.Nop{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results := s.ScanWatchlist(ctx, []string{"GME", "AMC", "PLTR"})
	assert.Len(t, results, 2)
	assert.Equal(t, "GME", results[0].Ticker)
	assert.Equal(t, "AMC", results[1].Ticker)
}

func TestNewScannerDefaultsRate(t *testing.T) {
	s := newTestScanner(&stubTrendingProvider{}, &stubHistoryProvider{})
	assert.Equal(t, 10000.0, s.rate)

	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())
	s = NewScanner(d, ratelimit.New(), 0, logger.NewNop(), metrics.Nop{})
	assert.Equal(t, defaultScanRate, s.rate)
}
