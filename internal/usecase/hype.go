package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	svccache "MemePulse/internal/service/cache"
	"MemePulse/internal/service/features"
	"MemePulse/internal/service/ratelimit"
	pkgcache "MemePulse/pkg/cache"
	"MemePulse/pkg/logger"
)

const (
	hypeCacheKey    = "trending:hype"
	hypeLimiterKey  = "hype-news"
	defaultHypeTTL  = 5 * time.Minute
	defaultHypeRate = 2.0 // news requests per second
	newsWindowDays  = 7

	socialWeight = 0.7
	newsWeight   = 0.3
)

// HypeConfig tunes the hype pipeline.
type HypeConfig struct {
	Stocks     []string
	Cryptos    []string
	CacheTTL   time.Duration
	Rate       float64
	WindowDays int
	Clock      svccache.Clock
}

// HypeUseCase blends news sentiment and news volume into a single hype
// score per ticker. Z-scores are computed within each asset group, so a
// busy week for crypto does not drown out an unusual week for one stock.
type HypeUseCase struct {
	news       drepo.NewsProvider
	sentiment  drepo.SentimentScorer
	store      drepo.HypeStore
	cache      pkgcache.Service
	limiter    *ratelimit.Limiter
	clock      svccache.Clock
	stocks     []string
	cryptos    []string
	cacheTTL   time.Duration
	rate       float64
	windowDays int
	l          *logger.Logger
	metrics    drepo.Metrics
}

// NewHypeUseCase creates the hype pipeline. Zero-value config fields fall
// back to defaults.
func NewHypeUseCase(
	news drepo.NewsProvider,
	sentiment drepo.SentimentScorer,
	store drepo.HypeStore,
	cache pkgcache.Service,
	limiter *ratelimit.Limiter,
	cfg HypeConfig,
	l *logger.Logger,
	m drepo.Metrics,
) *HypeUseCase {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultHypeTTL
	}
	if cfg.Rate <= 0 {
		cfg.Rate = defaultHypeRate
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = newsWindowDays
	}
	if cfg.Clock == nil {
		cfg.Clock = svccache.SystemClock()
	}
	return &HypeUseCase{
		news:       news,
		sentiment:  sentiment,
		store:      store,
		cache:      cache,
		limiter:    limiter,
		clock:      cfg.Clock,
		stocks:     cfg.Stocks,
		cryptos:    cfg.Cryptos,
		cacheTTL:   cfg.CacheTTL,
		rate:       cfg.Rate,
		windowDays: cfg.WindowDays,
		l:          l,
		metrics:    m,
	}
}

// TrendingHype computes hype scores for both asset groups, sorted best
// first. Results are cached so the endpoint can be polled cheaply, and
// persisted best-effort for CachedHype.
func (u *HypeUseCase) TrendingHype(ctx context.Context) ([]models.HypeScore, error) {
	var cached []models.HypeScore
	if err := u.cache.Get(ctx, hypeCacheKey, &cached); err == nil {
		u.metrics.RecordCacheLookup("hype", true)
		return cached, nil
	}
	u.metrics.RecordCacheLookup("hype", false)

	start := time.Now()
	scores := u.scoreGroup(ctx, "stock", u.stocks)
	scores = append(scores, u.scoreGroup(ctx, "crypto", u.cryptos)...)

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if u.store != nil && len(scores) > 0 {
		if err := u.store.UpsertHype(ctx, scores); err != nil {
			u.l.Warn("hype persistence failed", logger.Error(err))
			u.metrics.RecordError("hype_store")
		}
	}
	if err := u.cache.Set(ctx, hypeCacheKey, scores, u.cacheTTL); err != nil {
		u.l.Warn("hype cache write failed", logger.Error(err))
	}

	u.metrics.RecordLatency("hype_refresh", time.Since(start).Seconds())
	u.l.Info("hype scores refreshed",
		logger.Int("tickers", len(scores)),
		logger.Duration("took_ms", time.Since(start)))

	return scores, nil
}

// CachedHype reads the last persisted hype snapshot without recomputing.
func (u *HypeUseCase) CachedHype(ctx context.Context) ([]models.HypeScore, error) {
	return u.store.LatestHype(ctx)
}

// scoreGroup fetches raw signals for every ticker in the group, then
// normalizes them against the group before blending.
func (u *HypeUseCase) scoreGroup(ctx context.Context, group string, tickers []string) []models.HypeScore {
	if len(tickers) == 0 {
		return nil
	}

	now := u.clock.Now().UTC()
	from := now.AddDate(0, 0, -u.windowDays)

	socialRaw := make([]float64, len(tickers))
	newsRaw := make([]float64, len(tickers))

	for i, ticker := range tickers {
		if i > 0 {
			if err := u.limiter.Wait(ctx, hypeLimiterKey, 1, u.rate); err != nil {
				u.l.Warn("hype pacing interrupted", logger.Error(err))
				break
			}
		}

		articles, err := u.news.CompanyNews(ctx, ticker, from, now)
		if err != nil {
			u.l.Warn("news fetch failed",
				logger.String("ticker", ticker), logger.Error(err))
			u.metrics.RecordError("hype_news")
			continue
		}

		newsRaw[i] = float64(len(articles))
		socialRaw[i] = u.newsPolarity(ctx, articles)
	}

	socialZ := features.ZScores(socialRaw)
	newsZ := features.ZScores(newsRaw)

	scores := make([]models.HypeScore, len(tickers))
	for i, ticker := range tickers {
		scores[i] = models.HypeScore{
			Ticker:    ticker,
			Group:     group,
			SocialRaw: features.Round2(socialRaw[i]),
			NewsRaw:   newsRaw[i],
			SocialZ:   features.Round2(socialZ[i]),
			NewsZ:     features.Round2(newsZ[i]),
			Score:     features.Round2(socialWeight*socialZ[i] + newsWeight*newsZ[i]),
			UpdatedAt: now,
		}
	}
	return scores
}

// newsPolarity scores one polarity over the concatenated headline and
// summary text of all articles. A failed call counts as neutral rather
// than failing the whole group.
func (u *HypeUseCase) newsPolarity(ctx context.Context, articles []models.NewsArticle) float64 {
	if len(articles) == 0 {
		return 0
	}

	var sb strings.Builder
	for _, a := range articles {
		if sb.Len() > 0 {
			sb.WriteString(". ")
		}
		sb.WriteString(a.Headline)
		if a.Summary != "" {
			sb.WriteString(". ")
			sb.WriteString(a.Summary)
		}
	}

	polarity, err := u.sentiment.Polarity(ctx, sb.String())
	if err != nil {
		u.metrics.RecordError("hype_sentiment")
		return 0
	}
	return polarity
}
