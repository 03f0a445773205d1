package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	scache "MemePulse/internal/service/cache"
	"MemePulse/internal/service/features"
	"MemePulse/pkg/logger"
)

const (
	defaultOptionsCacheTTL = 4 * time.Hour
	defaultSocialCacheTTL  = 10 * time.Minute

	trendingCacheKey = "all-stocks"

	historyLookbackDays = 60
	recentWindowDays    = 5
	baselineWindowDays  = 30
	nearExpirations     = 2

	// composite weights
	weightOptions = 0.40
	weightVolume  = 0.35
	weightSocial  = 0.25
)

// highDiscussionTickers are widely discussed names whose absence from the
// trending list usually means a provider hiccup, not silence.
var highDiscussionTickers = map[string]bool{
	"GME": true, "AMC": true, "TSLA": true, "NVDA": true,
	"AAPL": true, "COIN": true, "PLTR": true, "HOOD": true,
}

// DetectorConfig tunes caching behavior.
type DetectorConfig struct {
	OptionsCacheTTL time.Duration
	SocialCacheTTL  time.Duration
	Clock           scache.Clock
}

// Detector computes the three per-ticker signals and their weighted
// composite. Provider failures never escape a signal fetch; they degrade to
// NO_DATA or ERROR results.
type Detector struct {
	options  drepo.OptionsProvider
	history  drepo.HistoryProvider
	trending drepo.TrendingProvider

	optionsCache  *scache.TTLCache[models.SignalResult]
	trendingCache *scache.TTLCache[[]models.TrendingEntry]

	clock   scache.Clock
	l       *logger.Logger
	metrics drepo.Metrics
}

// NewDetector creates a detector. Zero TTLs fall back to the defaults
// (options 4h, social 10m); a nil Clock uses wall time.
func NewDetector(
	options drepo.OptionsProvider,
	history drepo.HistoryProvider,
	trending drepo.TrendingProvider,
	cfg DetectorConfig,
	l *logger.Logger,
	m drepo.Metrics,
) *Detector {
	if cfg.OptionsCacheTTL <= 0 {
		cfg.OptionsCacheTTL = defaultOptionsCacheTTL
	}
	if cfg.SocialCacheTTL <= 0 {
		cfg.SocialCacheTTL = defaultSocialCacheTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = scache.SystemClock()
	}
	return &Detector{
		options:       options,
		history:       history,
		trending:      trending,
		optionsCache:  scache.NewTTL[models.SignalResult](cfg.OptionsCacheTTL, clock),
		trendingCache: scache.NewTTL[[]models.TrendingEntry](cfg.SocialCacheTTL, clock),
		clock:         clock,
		l:             l,
		metrics:       m,
	}
}

// OptionsSignal scores unusual call buying. Results are cached per ticker.
func (d *Detector) OptionsSignal(ctx context.Context, ticker string) models.SignalResult {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if res, ok := d.optionsCache.Get(ticker); ok {
		d.metrics.RecordCacheLookup("options", true)
		return res
	}
	d.metrics.RecordCacheLookup("options", false)

	res := d.fetchOptionsSignal(ctx, ticker)
	d.optionsCache.Set(ticker, res)
	return res
}

func (d *Detector) fetchOptionsSignal(ctx context.Context, ticker string) models.SignalResult {
	start := time.Now()
	defer func() {
		d.metrics.RecordLatency("options_signal", time.Since(start).Seconds())
	}()

	expirations, err := d.options.Expirations(ctx, ticker)
	if err != nil {
		d.l.Error("options expirations fetch failed",
			logger.String("ticker", ticker), logger.Error(err))
		d.metrics.RecordError("provider_options")
		return models.ErrorSignal(err)
	}
	if len(expirations) == 0 {
		return models.NoDataSignal()
	}

	near := expirations
	if len(near) > nearExpirations {
		near = near[:nearExpirations]
	}

	var callVolume, putVolume, callOI, putOI float64
	for _, exp := range near {
		chain, err := d.options.Chain(ctx, ticker, exp)
		if err != nil {
			// tolerate partial chain failures; sums cover what succeeded
			d.l.Warn("option chain fetch failed",
				logger.String("ticker", ticker),
				logger.String("expiration", exp.Format("2006-01-02")),
				logger.Error(err))
			d.metrics.RecordError("provider_options")
			continue
		}
		for _, c := range chain.Calls {
			callVolume += c.Volume
			callOI += c.OpenInterest
		}
		for _, p := range chain.Puts {
			putVolume += p.Volume
			putOI += p.OpenInterest
		}
	}

	// +1 denominators avoid division by zero on dead chains
	callPutRatio := callVolume / (putVolume + 1)
	volumeOIRatio := callVolume / (callOI + 1)

	score := 0.0
	unusual := false

	if callPutRatio > 3.0 {
		score += 5
		unusual = true
	} else if callPutRatio > 2.0 {
		score += 3
	}

	if volumeOIRatio > 0.5 {
		score += 3
		unusual = true
	} else if volumeOIRatio > 0.3 {
		score += 2
	}

	score = math.Min(score, 10)

	return models.SignalResult{
		Score:   score,
		Label:   models.LabelForScore(score),
		Unusual: unusual,
		Metrics: map[string]float64{
			"call_put_ratio":    features.Round2(callPutRatio),
			"volume_oi_ratio":   features.Round2(volumeOIRatio),
			"total_call_volume": callVolume,
			"total_put_volume":  putVolume,
			"total_call_oi":     callOI,
			"total_put_oi":      putOI,
		},
	}
}

// VolumeSignal scores volume spikes against a 30-day baseline. Uncached:
// volume moves too fast for the options cadence.
func (d *Detector) VolumeSignal(ctx context.Context, ticker string) models.SignalResult {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	start := time.Now()
	defer func() {
		d.metrics.RecordLatency("volume_signal", time.Since(start).Seconds())
	}()

	bars, err := d.history.DailyHistory(ctx, ticker, historyLookbackDays)
	if err != nil {
		d.l.Error("daily history fetch failed",
			logger.String("ticker", ticker), logger.Error(err))
		d.metrics.RecordError("provider_history")
		return models.ErrorSignal(err)
	}
	if len(bars) < recentWindowDays {
		return models.NoDataSignal()
	}

	recent := bars[len(bars)-recentWindowDays:]
	baselineEnd := baselineWindowDays
	if baselineEnd > len(bars) {
		baselineEnd = len(bars)
	}
	// baseline is the oldest bars of the window, not the most recent
	baseline := bars[:baselineEnd]

	var recentVolumes, baselineVolumes, closes []float64
	for _, b := range recent {
		recentVolumes = append(recentVolumes, b.Volume)
	}
	for _, b := range baseline {
		baselineVolumes = append(baselineVolumes, b.Volume)
	}
	for _, b := range bars {
		closes = append(closes, b.Close)
	}

	avgBaseline := features.Mean(baselineVolumes)
	avgRecent := features.Mean(recentVolumes)
	todayVolume := bars[len(bars)-1].Volume

	ratioToday := todayVolume / (avgBaseline + 1)
	ratio5d := avgRecent / (avgBaseline + 1)

	// returns span the full window before slicing so the boundary return
	// between the baseline and recent partitions is kept
	returns := features.PctReturns(closes)
	recentReturns := returns
	if len(recentReturns) > recentWindowDays {
		recentReturns = recentReturns[len(recentReturns)-recentWindowDays:]
	}
	baselineReturns := returns
	if len(baselineReturns) > baselineWindowDays {
		baselineReturns = baselineReturns[:baselineWindowDays]
	}

	recentVolatility := features.StdDevSample(recentReturns)
	baselineVolatility := features.StdDevSample(baselineReturns)
	volatilityRatio := recentVolatility / (baselineVolatility + 0.0001)

	score := 0.0
	unusual := false

	if ratioToday > 3.0 {
		score += 5
		unusual = true
	} else if ratioToday > 2.0 {
		score += 3
	} else if ratioToday > 1.5 {
		score += 1
	}

	if ratio5d > 2.0 {
		score += 3
		unusual = true
	} else if ratio5d > 1.5 {
		score += 2
	}

	if volatilityRatio > 2.0 {
		score += 2
	}

	score = math.Min(score, 10)

	return models.SignalResult{
		Score:   score,
		Label:   models.LabelForScore(score),
		Unusual: unusual,
		Metrics: map[string]float64{
			"volume_ratio_today": features.Round2(ratioToday),
			"volume_ratio_5d":    features.Round2(ratio5d),
			"volatility_ratio":   features.Round2(volatilityRatio),
			"avg_volume_30d":     features.Round2(avgBaseline),
			"today_volume":       todayVolume,
		},
	}
}

// SocialSignal scores trending rank and mention counts. The trending list is
// shared across tickers and cached under a single key.
func (d *Detector) SocialSignal(ctx context.Context, ticker string) models.SignalResult {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	start := time.Now()
	defer func() {
		d.metrics.RecordLatency("social_signal", time.Since(start).Seconds())
	}()

	list := d.trendingList(ctx)

	var found *models.TrendingEntry
	for i := range list {
		if strings.EqualFold(list[i].Ticker, ticker) {
			found = &list[i]
			break
		}
	}
	if found == nil {
		if highDiscussionTickers[ticker] {
			d.l.Warn("high-discussion ticker missing from trending list",
				logger.String("ticker", ticker))
		}
		return models.NoDataSignal()
	}

	rank := found.Rank
	if rank <= 0 {
		// provider omits rank for long-tail tickers
		rank = 999
	}
	mentions := found.Mentions

	score := 0.0
	unusual := false

	switch {
	case rank <= 5:
		score += 5
		unusual = true
	case rank <= 15:
		score += 3
	case rank <= 30:
		score += 2
	case rank <= 50:
		score += 1
	}

	switch {
	case mentions >= 100:
		score += 4
		unusual = true
	case mentions >= 50:
		score += 3
	case mentions >= 20:
		score += 2
	case mentions >= 10:
		score += 1
	}

	score = math.Min(score, 10)

	return models.SignalResult{
		Score:   score,
		Label:   models.LabelForScore(score),
		Unusual: unusual,
		Metrics: map[string]float64{
			"mentions": float64(mentions),
			"rank":     float64(rank),
			"upvotes":  float64(found.Upvotes),
		},
	}
}

// trendingList returns the shared trending list, refreshing it when stale.
// On refresh failure the previous (stale) list is served when one exists.
func (d *Detector) trendingList(ctx context.Context) []models.TrendingEntry {
	if list, ok := d.trendingCache.Get(trendingCacheKey); ok {
		d.metrics.RecordCacheLookup("trending", true)
		return list
	}
	d.metrics.RecordCacheLookup("trending", false)

	list, err := d.trending.Trending(ctx)
	if err != nil {
		d.l.Error("trending list fetch failed", logger.Error(err))
		d.metrics.RecordError("provider_trending")
		if stale, ok := d.trendingCache.Peek(trendingCacheKey); ok {
			return stale
		}
		return nil
	}
	if len(list) == 0 {
		d.l.Warn("trending list empty")
	}
	d.trendingCache.Set(trendingCacheKey, list)
	return list
}

// alertLevel classifies a weighted composite. CRITICAL needs both a high
// score and at least two unusual signals; either condition alone caps at HIGH.
func alertLevel(weighted float64, triggered int) models.AlertLevel {
	switch {
	case weighted >= 7.5 && triggered >= 2:
		return models.AlertCritical
	case weighted >= 6.0 || triggered >= 2:
		return models.AlertHigh
	case weighted >= 4.0:
		return models.AlertMedium
	default:
		return models.AlertLow
	}
}

// EarlyWarningScore runs all three signals and blends them 0.40/0.35/0.25.
func (d *Detector) EarlyWarningScore(ctx context.Context, ticker string) (*models.CompositeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	opt := d.OptionsSignal(ctx, ticker)
	vol := d.VolumeSignal(ctx, ticker)
	soc := d.SocialSignal(ctx, ticker)

	weighted := features.Round2(weightOptions*opt.Score + weightVolume*vol.Score + weightSocial*soc.Score)

	triggered := 0
	for _, s := range []models.SignalResult{opt, vol, soc} {
		if s.Unusual {
			triggered++
		}
	}

	level := alertLevel(weighted, triggered)

	d.metrics.RecordScore(ticker, weighted)
	d.metrics.RecordAlert(string(level))

	return &models.CompositeResult{
		Ticker:            ticker,
		EarlyWarningScore: weighted,
		AlertLevel:        level,
		SignalsTriggered:  triggered,
		Options:           opt,
		Volume:            vol,
		Social:            soc,
		Timestamp:         d.clock.Now().UTC(),
	}, nil
}
