package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MemePulse/internal/domain/models"
	"MemePulse/internal/handler/ws"
	"MemePulse/internal/service/ratelimit"
	"MemePulse/internal/usecase"
	pkgcache "MemePulse/pkg/cache"
	pkgconfig "MemePulse/pkg/config"
	xlogger "MemePulse/pkg/logger"
	"MemePulse/pkg/metrics"
)

type fakeOptionsProvider struct{}

func (fakeOptionsProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	return nil, nil
}

func (fakeOptionsProvider) Chain(ctx context.Context, ticker string, exp time.Time) (*models.OptionChain, error) {
	return nil, nil
}

type fakeHistoryProvider struct{}

func (fakeHistoryProvider) DailyHistory(ctx context.Context, ticker string, days int) ([]models.DailyBar, error) {
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.DailyBar, 35)
	for i := range bars {
		bars[i] = models.DailyBar{Date: day.AddDate(0, 0, i), Close: 10, Volume: 100}
	}
	return bars, nil
}

type fakeTrendingProvider struct{}

func (fakeTrendingProvider) Trending(ctx context.Context) ([]models.TrendingEntry, error) {
	return []models.TrendingEntry{{Ticker: "GME", Rank: 1, Mentions: 500}}, nil
}

type fakeAlertStore struct {
	latest []models.CompositeResult
}

func (s *fakeAlertStore) UpsertAlerts(ctx context.Context, alerts []models.CompositeResult) error {
	return nil
}

func (s *fakeAlertStore) LatestAlerts(ctx context.Context, limit int) ([]models.CompositeResult, error) {
	if limit < len(s.latest) {
		return s.latest[:limit], nil
	}
	return s.latest, nil
}

func (s *fakeAlertStore) Health(ctx context.Context) error { return nil }
func (s *fakeAlertStore) Close() error                     { return nil }

type fakeAlertPublisher struct{}

func (fakeAlertPublisher) PublishAlert(ctx context.Context, alert *models.CompositeResult) error {
	return nil
}

func (fakeAlertPublisher) PublishAlerts(ctx context.Context, alerts []models.CompositeResult) error {
	return nil
}
func (fakeAlertPublisher) Close() error { return nil }

type fakeNewsProvider struct{}

func (fakeNewsProvider) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.NewsArticle, error) {
	return []models.NewsArticle{{Headline: "squeeze incoming"}}, nil
}

type fakeSentimentScorer struct{}

func (fakeSentimentScorer) Polarity(ctx context.Context, text string) (float64, error) {
	return 0.4, nil
}

type fakeHypeStore struct{}

func (fakeHypeStore) UpsertHype(ctx context.Context, scores []models.HypeScore) error { return nil }
func (fakeHypeStore) LatestHype(ctx context.Context) ([]models.HypeScore, error) {
	return []models.HypeScore{{Ticker: "GME", Score: 0.8}}, nil
}

func newTestServer(t *testing.T, store *fakeAlertStore) *echo.Echo {
	t.Helper()

	l := xlogger.NewNop()
	m := metrics.Nop{}
	limiter := ratelimit.New()

	detector := usecase.NewDetector(fakeOptionsProvider{}, fakeHistoryProvider{}, fakeTrendingProvider{}, usecase.DetectorConfig{}, l, m)
	scanner := usecase.NewScanner(detector, limiter, 10000, l, m)
	processor := usecase.NewAlertProcessor(fakeAlertPublisher{}, store, m, "clickhouse")
	hype := usecase.NewHypeUseCase(fakeNewsProvider{}, fakeSentimentScorer{}, fakeHypeStore{}, pkgcache.NewMemoryCache(), limiter, usecase.HypeConfig{
		Stocks: []string{"GME", "AMC"},
	}, l, m)

	cfg := &pkgconfig.Config{}
	cfg.Detector.Watchlist = []string{"GME", "AMC"}
	cfg.Thematic = map[string][]pkgconfig.ThematicHolding{
		"meme_revival": {{Symbol: "GME", Name: "GameStop", Weight: 1.0}},
	}

	h := NewAlertsHandler(l, detector, scanner, processor, hype, ws.NewHub(l), cfg)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doGET(t *testing.T, e *echo.Echo, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRootEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "memepulse", data["service"])
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/health")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestScanEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/api/alerts/scan")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["scanned"])
	alerts := data["alerts"].([]interface{})
	assert.Len(t, alerts, 2)

	// GME tops the list: rank 1 and 500 mentions score the social signal high
	top := alerts[0].(map[string]interface{})
	assert.Equal(t, "GME", top["ticker"])
}

func TestTickerAlertEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/api/alerts/GME")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "GME", data["ticker"])
	assert.NotEmpty(t, data["alert_level"])
}

func TestTickerAlertEndpointRejectsBadTicker(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	_, body := doGET(t, e, "/api/alerts/WAYTOOLONGTICKER")
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestCachedAlertsEndpointDefaultsLimit(t *testing.T) {
	store := &fakeAlertStore{latest: []models.CompositeResult{
		{Ticker: "GME", EarlyWarningScore: 7.9},
		{Ticker: "AMC", EarlyWarningScore: 3.2},
	}}
	e := newTestServer(t, store)

	code, body := doGET(t, e, "/api/alerts/cached")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	assert.Len(t, rows, 2)
	assert.Equal(t, 2.0, data["total"])
}

func TestCachedAlertsEndpointRejectsBadLimit(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	_, body := doGET(t, e, "/api/alerts/cached?limit=9999")
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestTrendingHypeEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/api/trending/hype")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	assert.Len(t, rows, 2)
}

func TestCachedHypeEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/api/trending/cached_hype")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "GME", rows[0].(map[string]interface{})["ticker"])
}

func TestThematicEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeAlertStore{})

	code, body := doGET(t, e, "/api/strategies/thematic")
	assert.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	basket := data["meme_revival"].([]interface{})
	require.Len(t, basket, 1)
	assert.Equal(t, "GME", basket[0].(map[string]interface{})["symbol"])
}
