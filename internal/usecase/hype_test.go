package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MemePulse/internal/domain/models"
	"MemePulse/internal/service/ratelimit"
	pkgcache "MemePulse/pkg/cache"
	"MemePulse/pkg/logger"
	"MemePulse/pkg/metrics"
)

type stubNewsProvider struct {
	articles map[string][]models.NewsArticle
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
}

func (s *stubNewsProvider) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.NewsArticle, error) {
	s.calls++
	s.lastFrom, s.lastTo = from, to
	if s.err != nil {
		return nil, s.err
	}
	return s.articles[ticker], nil
}

type stubSentimentScorer struct {
	polarity float64
	err      error
	calls    int
	lastText string
}

func (s *stubSentimentScorer) Polarity(ctx context.Context, text string) (float64, error) {
	s.calls++
	s.lastText = text
	if s.err != nil {
		return 0, s.err
	}
	return s.polarity, nil
}

type recordingHypeStore struct {
	upserted []models.HypeScore
	latest   []models.HypeScore
	err      error
}

func (r *recordingHypeStore) UpsertHype(ctx context.Context, scores []models.HypeScore) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, scores...)
	return nil
}

func (r *recordingHypeStore) LatestHype(ctx context.Context) ([]models.HypeScore, error) {
	return r.latest, nil
}

func articles(n int) []models.NewsArticle {
	out := make([]models.NewsArticle, n)
	for i := range out {
		out[i] = models.NewsArticle{Headline: "big move coming", Summary: "retail is piling in"}
	}
	return out
}

func newTestHype(news *stubNewsProvider, sentiment *stubSentimentScorer, store *recordingHypeStore, cfg HypeConfig) *HypeUseCase {
	if cfg.Clock == nil {
		cfg.Clock = newFakeClock()
	}
	return NewHypeUseCase(news, sentiment, store, pkgcache.NewMemoryCache(), ratelimit.New(), cfg, logger.NewNop(), metrics.Nop{})
}

func TestTrendingHypeBlendsGroupZScores(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{
		"GME": articles(4),
	}}
	sentiment := &stubSentimentScorer{polarity: 0.5}
	store := &recordingHypeStore{}
	h := newTestHype(news, sentiment, store, HypeConfig{Stocks: []string{"GME", "AMC"}})

	scores, err := h.TrendingHype(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// within the stock group: GME z=+1 on both axes, AMC z=-1
	assert.Equal(t, "GME", scores[0].Ticker)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.Equal(t, 4.0, scores[0].NewsRaw)
	assert.Equal(t, 0.5, scores[0].SocialRaw)
	assert.Equal(t, "AMC", scores[1].Ticker)
	assert.Equal(t, -1.0, scores[1].Score)
}

func TestTrendingHypeGroupsNormalizedSeparately(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{
		"GME":  articles(10),
		"MSTR": articles(10),
	}}
	sentiment := &stubSentimentScorer{polarity: 0.9}
	store := &recordingHypeStore{}
	h := newTestHype(news, sentiment, store, HypeConfig{
		Stocks:  []string{"GME"},
		Cryptos: []string{"MSTR"},
	})

	scores, err := h.TrendingHype(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// single-member groups have zero spread, so both z-scores collapse to 0
	for _, s := range scores {
		assert.Equal(t, 0.0, s.Score)
	}
	groups := map[string]string{scores[0].Ticker: scores[0].Group, scores[1].Ticker: scores[1].Group}
	assert.Equal(t, "stock", groups["GME"])
	assert.Equal(t, "crypto", groups["MSTR"])
}

func TestTrendingHypeScoresOnePolarityPerTicker(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{
		"GME": {
			{Headline: "GameStop surges", Summary: "short interest climbs"},
			{Headline: "Options volume spikes"},
		},
	}}
	sentiment := &stubSentimentScorer{polarity: 0.5}
	h := newTestHype(news, sentiment, &recordingHypeStore{}, HypeConfig{Stocks: []string{"GME"}})

	_, err := h.TrendingHype(context.Background())
	require.NoError(t, err)

	// all article text goes to the scorer in a single call
	assert.Equal(t, 1, sentiment.calls)
	assert.Equal(t, "GameStop surges. short interest climbs. Options volume spikes", sentiment.lastText)
}

func TestTrendingHypeSentimentFailureIsNeutral(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{
		"GME": articles(3),
	}}
	sentiment := &stubSentimentScorer{err: errors.New("sentiment service down")}
	h := newTestHype(news, sentiment, &recordingHypeStore{}, HypeConfig{Stocks: []string{"GME", "AMC"}})

	scores, err := h.TrendingHype(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 2)

	for _, s := range scores {
		assert.Equal(t, 0.0, s.SocialRaw)
	}
}

func TestTrendingHypeNewsFailureScoresZeroRaw(t *testing.T) {
	news := &stubNewsProvider{err: errors.New("finnhub 429")}
	h := newTestHype(news, &stubSentimentScorer{}, &recordingHypeStore{}, HypeConfig{Stocks: []string{"GME", "AMC"}})

	scores, err := h.TrendingHype(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.Equal(t, 0.0, s.NewsRaw)
		assert.Equal(t, 0.0, s.Score)
	}
}

func TestTrendingHypeUsesSevenDayWindow(t *testing.T) {
	clock := newFakeClock()
	news := &stubNewsProvider{}
	h := newTestHype(news, &stubSentimentScorer{}, &recordingHypeStore{}, HypeConfig{
		Stocks: []string{"GME"},
		Clock:  clock,
	})

	_, err := h.TrendingHype(context.Background())
	require.NoError(t, err)

	assert.Equal(t, clock.Now().UTC(), news.lastTo)
	assert.Equal(t, clock.Now().UTC().AddDate(0, 0, -7), news.lastFrom)
}

func TestTrendingHypeCachesResponse(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{"GME": articles(2)}}
	h := newTestHype(news, &stubSentimentScorer{polarity: 0.2}, &recordingHypeStore{}, HypeConfig{Stocks: []string{"GME", "AMC"}})
	ctx := context.Background()

	first, err := h.TrendingHype(ctx)
	require.NoError(t, err)
	callsAfterFirst := news.calls

	second, err := h.TrendingHype(ctx)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, news.calls)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Ticker, second[i].Ticker)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestTrendingHypePersistsBestEffort(t *testing.T) {
	news := &stubNewsProvider{articles: map[string][]models.NewsArticle{"GME": articles(2)}}
	store := &recordingHypeStore{err: errors.New("clickhouse down")}
	h := newTestHype(news, &stubSentimentScorer{polarity: 0.2}, store, HypeConfig{Stocks: []string{"GME", "AMC"}})

	scores, err := h.TrendingHype(context.Background())
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestCachedHypeReadsStore(t *testing.T) {
	store := &recordingHypeStore{latest: []models.HypeScore{{Ticker: "GME", Score: 1.2}}}
	h := newTestHype(&stubNewsProvider{}, &stubSentimentScorer{}, store, HypeConfig{Stocks: []string{"GME"}})

	scores, err := h.CachedHype(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "GME", scores[0].Ticker)
}
