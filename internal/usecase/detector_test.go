package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MemePulse/internal/domain/models"
	"MemePulse/pkg/logger"
	"MemePulse/pkg/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubOptionsProvider struct {
	expirations []time.Time
	chains      map[time.Time]*models.OptionChain
	err         error
	calls       int
}

func (s *stubOptionsProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.expirations, nil
}

func (s *stubOptionsProvider) Chain(ctx context.Context, ticker string, exp time.Time) (*models.OptionChain, error) {
	chain, ok := s.chains[exp]
	if !ok {
		return nil, errors.New("no chain")
	}
	return chain, nil
}

type stubHistoryProvider struct {
	bars  []models.DailyBar
	err   error
	calls int
}

func (s *stubHistoryProvider) DailyHistory(ctx context.Context, ticker string, days int) ([]models.DailyBar, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

type stubTrendingProvider struct {
	entries []models.TrendingEntry
	err     error
	calls   int
}

func (s *stubTrendingProvider) Trending(ctx context.Context) ([]models.TrendingEntry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func newTestDetector(opt *stubOptionsProvider, hist *stubHistoryProvider, trend *stubTrendingProvider, clock *fakeClock) *Detector {
	return NewDetector(opt, hist, trend, DetectorConfig{Clock: clock}, logger.NewNop(), metrics.Nop{})
}

// volumeBars builds a 35-bar series: 30 baseline bars followed by 5 recent
// bars. Closes are flat so volatility stays out of the score.
func volumeBars(baselineVol, recentVol, todayVol float64) []models.DailyBar {
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	var bars []models.DailyBar
	for i := 0; i < 30; i++ {
		bars = append(bars, models.DailyBar{Date: day.AddDate(0, 0, i), Close: 10, Volume: baselineVol})
	}
	for i := 0; i < 4; i++ {
		bars = append(bars, models.DailyBar{Date: day.AddDate(0, 0, 30+i), Close: 10, Volume: recentVol})
	}
	bars = append(bars, models.DailyBar{Date: day.AddDate(0, 0, 34), Close: 10, Volume: todayVol})
	return bars
}

func TestOptionsSignalUnusualCallBuying(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {
				Calls: []models.OptionContract{{Volume: 400, OpenInterest: 100}},
				Puts:  []models.OptionContract{{Volume: 100, OpenInterest: 250}},
			},
		},
	}
	d := newTestDetector(opt, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())

	res := d.OptionsSignal(context.Background(), "gme")

	// call/put 400/101 > 3 gives 5, volume/OI 400/101 > 0.5 gives 3
	assert.Equal(t, 8.0, res.Score)
	assert.Equal(t, models.LabelStrong, res.Label)
	assert.True(t, res.Unusual)
	assert.InDelta(t, 3.96, res.Metrics["call_put_ratio"], 0.01)
	assert.Equal(t, 100.0, res.Metrics["total_call_oi"])
	assert.Equal(t, 250.0, res.Metrics["total_put_oi"])
}

func TestOptionsSignalThresholdBoundaries(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	// ratios land exactly on 3.0 and 0.3: strictly-greater means neither the
	// top tier nor, for OI, any tier fires
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {
				Calls: []models.OptionContract{{Volume: 300, OpenInterest: 999}},
				Puts:  []models.OptionContract{{Volume: 99}},
			},
		},
	}
	d := newTestDetector(opt, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())

	res := d.OptionsSignal(context.Background(), "GME")

	assert.Equal(t, 3.0, res.Score)
	assert.Equal(t, models.LabelWeak, res.Label)
	assert.False(t, res.Unusual)
}

func TestOptionsSignalNoExpirations(t *testing.T) {
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())

	res := d.OptionsSignal(context.Background(), "GME")

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, models.LabelNoData, res.Label)
	assert.False(t, res.Unusual)
}

func TestOptionsSignalProviderError(t *testing.T) {
	opt := &stubOptionsProvider{err: errors.New("rate limited")}
	d := newTestDetector(opt, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())

	res := d.OptionsSignal(context.Background(), "GME")

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, models.LabelError, res.Label)
	assert.Contains(t, res.Err, "rate limited")
}

func TestOptionsSignalCachedPerTicker(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {Calls: []models.OptionContract{{Volume: 400, OpenInterest: 100}}, Puts: []models.OptionContract{{Volume: 100}}},
		},
	}
	clock := newFakeClock()
	d := newTestDetector(opt, &stubHistoryProvider{}, &stubTrendingProvider{}, clock)
	ctx := context.Background()

	first := d.OptionsSignal(ctx, "GME")
	second := d.OptionsSignal(ctx, "GME")
	assert.Equal(t, 1, opt.calls)
	assert.Equal(t, first, second)

	// a different ticker misses the cache
	d.OptionsSignal(ctx, "AMC")
	assert.Equal(t, 2, opt.calls)

	// expiry forces a refetch
	clock.Advance(4 * time.Hour)
	d.OptionsSignal(ctx, "GME")
	assert.Equal(t, 3, opt.calls)
}

func TestVolumeSignalSpike(t *testing.T) {
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 400)}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res := d.VolumeSignal(context.Background(), "GME")

	// today 400/101 > 3 gives 5 and unusual, 5d avg 160/101 > 1.5 gives 2
	assert.Equal(t, 7.0, res.Score)
	assert.Equal(t, models.LabelStrong, res.Label)
	assert.True(t, res.Unusual)
	assert.Equal(t, 400.0, res.Metrics["today_volume"])
}

func TestVolumeSignalVolatilityAtPartitionBoundary(t *testing.T) {
	// flat volume, close jumps 10 -> 30 on the first of the last five bars:
	// the jump return belongs to the recent window even though its previous
	// close sits outside it
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	var bars []models.DailyBar
	for i := 0; i < 60; i++ {
		c := 10.0
		if i >= 55 {
			c = 30.0
		}
		bars = append(bars, models.DailyBar{Date: day.AddDate(0, 0, i), Close: c, Volume: 100})
	}
	hist := &stubHistoryProvider{bars: bars}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res := d.VolumeSignal(context.Background(), "GME")

	assert.Equal(t, 2.0, res.Score)
	assert.Greater(t, res.Metrics["volatility_ratio"], 2.0)
}

func TestVolumeSignalQuietTape(t *testing.T) {
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res := d.VolumeSignal(context.Background(), "GME")

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, models.LabelWeak, res.Label)
	assert.False(t, res.Unusual)
}

func TestVolumeSignalTooFewBars(t *testing.T) {
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)[:4]}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res := d.VolumeSignal(context.Background(), "GME")

	assert.Equal(t, models.LabelNoData, res.Label)
	assert.Equal(t, 0.0, res.Score)
}

func TestVolumeSignalNotCached(t *testing.T) {
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())
	ctx := context.Background()

	d.VolumeSignal(ctx, "GME")
	d.VolumeSignal(ctx, "GME")
	assert.Equal(t, 2, hist.calls)
}

func TestVolumeSignalProviderError(t *testing.T) {
	hist := &stubHistoryProvider{err: errors.New("upstream 500")}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res := d.VolumeSignal(context.Background(), "GME")
	assert.Equal(t, models.LabelError, res.Label)
}

func TestSocialSignalTopRankHighMentions(t *testing.T) {
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{
		{Ticker: "GME", Rank: 3, Mentions: 150},
	}}
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, newFakeClock())

	res := d.SocialSignal(context.Background(), "GME")

	assert.Equal(t, 9.0, res.Score)
	assert.Equal(t, models.LabelStrong, res.Label)
	assert.True(t, res.Unusual)
}

func TestSocialSignalMissingRankTreatedAsUnranked(t *testing.T) {
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{
		{Ticker: "XYZ", Rank: 0, Mentions: 15},
	}}
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, newFakeClock())

	res := d.SocialSignal(context.Background(), "XYZ")

	// rank 0 maps to 999: no rank points, mentions 15 gives 1
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 999.0, res.Metrics["rank"])
}

func TestSocialSignalNotTrending(t *testing.T) {
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{{Ticker: "AMC", Rank: 1, Mentions: 500}}}
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, newFakeClock())

	res := d.SocialSignal(context.Background(), "GME")
	assert.Equal(t, models.LabelNoData, res.Label)
}

func TestSocialSignalSharedCacheAcrossTickers(t *testing.T) {
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{
		{Ticker: "GME", Rank: 1, Mentions: 500},
		{Ticker: "AMC", Rank: 2, Mentions: 300},
	}}
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, newFakeClock())
	ctx := context.Background()

	d.SocialSignal(ctx, "GME")
	d.SocialSignal(ctx, "AMC")
	assert.Equal(t, 1, trend.calls)
}

func TestSocialSignalStaleFallback(t *testing.T) {
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{
		{Ticker: "GME", Rank: 3, Mentions: 150},
	}}
	clock := newFakeClock()
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, clock)
	ctx := context.Background()

	fresh := d.SocialSignal(ctx, "GME")
	require.Equal(t, 9.0, fresh.Score)

	// refresh fails after expiry: the stale list keeps serving
	clock.Advance(11 * time.Minute)
	trend.err = errors.New("apewisdom down")

	stale := d.SocialSignal(ctx, "GME")
	assert.Equal(t, fresh.Score, stale.Score)
	assert.Equal(t, 2, trend.calls)
}

func TestSocialSignalNoStaleDataOnError(t *testing.T) {
	trend := &stubTrendingProvider{err: errors.New("apewisdom down")}
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, trend, newFakeClock())

	res := d.SocialSignal(context.Background(), "GME")
	assert.Equal(t, models.LabelNoData, res.Label)
}

func TestEarlyWarningScoreCritical(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {Calls: []models.OptionContract{{Volume: 400, OpenInterest: 100}}, Puts: []models.OptionContract{{Volume: 100}}},
		},
	}
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 400)}
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{{Ticker: "GME", Rank: 3, Mentions: 150}}}
	clock := newFakeClock()
	d := newTestDetector(opt, hist, trend, clock)

	res, err := d.EarlyWarningScore(context.Background(), " gme ")
	require.NoError(t, err)

	// 0.40*8 + 0.35*7 + 0.25*9 = 7.9
	assert.Equal(t, "GME", res.Ticker)
	assert.Equal(t, 7.9, res.EarlyWarningScore)
	assert.Equal(t, models.AlertCritical, res.AlertLevel)
	assert.Equal(t, 3, res.SignalsTriggered)
	assert.Equal(t, clock.Now(), res.Timestamp)
}

func TestEarlyWarningScoreHighOnTwoTriggers(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	// options: call/put fires unusual but OI tier does not, score 5
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {Calls: []models.OptionContract{{Volume: 50, OpenInterest: 1000}}, Puts: nil},
		},
	}
	// volume: today spikes but the 5d average stays quiet, score 5
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 310)}
	trend := &stubTrendingProvider{}
	d := newTestDetector(opt, hist, trend, newFakeClock())

	res, err := d.EarlyWarningScore(context.Background(), "GME")
	require.NoError(t, err)

	// 0.40*5 + 0.35*5 = 3.75, below 7.5, but two unusual signals
	assert.Equal(t, 3.75, res.EarlyWarningScore)
	assert.Equal(t, 2, res.SignalsTriggered)
	assert.Equal(t, models.AlertHigh, res.AlertLevel)
}

func TestAlertLevelCriticalNeedsScoreAndTriggers(t *testing.T) {
	// a 7.5 score with only one unusual signal stays HIGH
	assert.Equal(t, models.AlertHigh, alertLevel(7.5, 1))
	assert.Equal(t, models.AlertCritical, alertLevel(7.5, 2))

	// two triggers alone also cap at HIGH below the score bar
	assert.Equal(t, models.AlertHigh, alertLevel(3.0, 2))
	assert.Equal(t, models.AlertMedium, alertLevel(5.9, 1))
	assert.Equal(t, models.AlertLow, alertLevel(3.9, 0))
}

func TestEarlyWarningScoreMediumSingleTrigger(t *testing.T) {
	exp := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	// options scores 8 with one unusual signal, others stay flat
	opt := &stubOptionsProvider{
		expirations: []time.Time{exp},
		chains: map[time.Time]*models.OptionChain{
			exp: {Calls: []models.OptionContract{{Volume: 400, OpenInterest: 100}}, Puts: []models.OptionContract{{Volume: 100}}},
		},
	}
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)}
	trend := &stubTrendingProvider{entries: []models.TrendingEntry{{Ticker: "GME", Rank: 20, Mentions: 60}}}
	d := newTestDetector(opt, hist, trend, newFakeClock())

	res, err := d.EarlyWarningScore(context.Background(), "GME")
	require.NoError(t, err)

	// 0.40*8 + 0.35*0 + 0.25*5 = 4.45
	assert.Equal(t, 4.45, res.EarlyWarningScore)
	assert.Equal(t, 1, res.SignalsTriggered)
	assert.Equal(t, models.AlertMedium, res.AlertLevel)
}

func TestEarlyWarningScoreLowOnAllQuiet(t *testing.T) {
	hist := &stubHistoryProvider{bars: volumeBars(100, 100, 100)}
	d := newTestDetector(&stubOptionsProvider{}, hist, &stubTrendingProvider{}, newFakeClock())

	res, err := d.EarlyWarningScore(context.Background(), "GME")
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.EarlyWarningScore)
	assert.Equal(t, models.AlertLow, res.AlertLevel)
	assert.Equal(t, models.LabelNoData, res.Options.Label)
	assert.Equal(t, models.LabelWeak, res.Volume.Label)
	assert.Equal(t, models.LabelNoData, res.Social.Label)
}

func TestEarlyWarningScoreCancelledContext(t *testing.T) {
	d := newTestDetector(&stubOptionsProvider{}, &stubHistoryProvider{}, &stubTrendingProvider{}, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := d.EarlyWarningScore(ctx, "GME")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEarlyWarningScoreErrorsScoreZero(t *testing.T) {
	opt := &stubOptionsProvider{err: errors.New("boom")}
	hist := &stubHistoryProvider{err: errors.New("boom")}
	trend := &stubTrendingProvider{err: errors.New("boom")}
	d := newTestDetector(opt, hist, trend, newFakeClock())

	res, err := d.EarlyWarningScore(context.Background(), "GME")
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.EarlyWarningScore)
	assert.Equal(t, models.AlertLow, res.AlertLevel)
	assert.Equal(t, models.LabelError, res.Options.Label)
	assert.Equal(t, models.LabelError, res.Volume.Label)
	assert.Equal(t, models.LabelNoData, res.Social.Label)
}
