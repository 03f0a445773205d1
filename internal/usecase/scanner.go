package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	"MemePulse/internal/service/ratelimit"
	"MemePulse/pkg/logger"
)

const (
	scanLimiterKey  = "watchlist-scan"
	defaultScanRate = 5.0 // tickers per second, ~200ms spacing
)

// Scanner runs the watchlist through the detector strictly sequentially,
// paced by a token bucket so the upstream providers are not hammered.
type Scanner struct {
	detector *Detector
	limiter  *ratelimit.Limiter
	rate     float64
	l        *logger.Logger
	metrics  drepo.Metrics
}

// NewScanner creates a scanner. A non-positive rate uses the default.
func NewScanner(detector *Detector, limiter *ratelimit.Limiter, rate float64, l *logger.Logger, m drepo.Metrics) *Scanner {
	if rate <= 0 {
		rate = defaultScanRate
	}
	return &Scanner{
		detector: detector,
		limiter:  limiter,
		rate:     rate,
		l:        l,
		metrics:  m,
	}
}

// ScanWatchlist scores every ticker in order and returns the successful
// results sorted by descending composite score. A failing ticker is logged
// and skipped; it never aborts the rest of the scan.
func (s *Scanner) ScanWatchlist(ctx context.Context, tickers []string) []models.CompositeResult {
	start := time.Now()
	results := make([]models.CompositeResult, 0, len(tickers))

	for i, ticker := range tickers {
		if i > 0 {
			if err := s.limiter.Wait(ctx, scanLimiterKey, 1, s.rate); err != nil {
				s.l.Warn("scan pacing interrupted", logger.Error(err))
				break
			}
		}

		res, err := s.scanOne(ctx, ticker)
		if err != nil {
			s.l.Error("ticker scan failed, skipping",
				logger.String("ticker", ticker), logger.Error(err))
			s.metrics.RecordError("scan_ticker")
			continue
		}
		results = append(results, *res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].EarlyWarningScore > results[j].EarlyWarningScore
	})

	s.metrics.RecordLatency("watchlist_scan", time.Since(start).Seconds())
	s.l.Info("watchlist scan complete",
		logger.Int("tickers", len(tickers)),
		logger.Int("scored", len(results)),
		logger.Duration("took_ms", time.Since(start)))

	return results
}

// scanOne isolates a single ticker so a panicking provider cannot take down
// the whole scan.
func (s *Scanner) scanOne(ctx context.Context, ticker string) (res *models.CompositeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("scan %s: panic: %v", ticker, r)
		}
	}()
	return s.detector.EarlyWarningScore(ctx, ticker)
}
