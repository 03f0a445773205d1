package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"MemePulse/internal/usecase"
	pkgconfig "MemePulse/pkg/config"
	"MemePulse/pkg/logger"
)

const (
	defaultScanInterval = 15 * time.Minute
	defaultHypeInterval = 5 * time.Minute
	jobTimeout          = 5 * time.Minute
)

// Scheduler drives periodic watchlist scans and hype refreshes so the
// cached endpoints stay warm without inbound traffic.
type Scheduler struct {
	cron      *gocron.Scheduler
	scanner   *usecase.Scanner
	processor *usecase.AlertProcessor
	hype      *usecase.HypeUseCase
	cfg       *pkgconfig.Config
	l         *logger.Logger
}

// New creates an unstarted scheduler.
func New(
	scanner *usecase.Scanner,
	processor *usecase.AlertProcessor,
	hype *usecase.HypeUseCase,
	cfg *pkgconfig.Config,
	l *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      gocron.NewScheduler(time.UTC),
		scanner:   scanner,
		processor: processor,
		hype:      hype,
		cfg:       cfg,
		l:         l,
	}
}

// Start registers the jobs and runs them asynchronously.
func (s *Scheduler) Start() error {
	scanEvery := s.cfg.Scheduler.ScanInterval.Std()
	if scanEvery <= 0 {
		scanEvery = defaultScanInterval
	}
	hypeEvery := s.cfg.Scheduler.HypeInterval.Std()
	if hypeEvery <= 0 {
		hypeEvery = defaultHypeInterval
	}

	if _, err := s.cron.Every(scanEvery).Do(s.runScan); err != nil {
		return err
	}
	if _, err := s.cron.Every(hypeEvery).Do(s.runHype); err != nil {
		return err
	}

	s.cron.StartAsync()
	s.l.Info("scheduler started",
		logger.Duration("scan_every_ms", scanEvery),
		logger.Duration("hype_every_ms", hypeEvery))
	return nil
}

// Stop halts all jobs; running jobs finish first.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.l.Info("scheduler stopped")
}

func (s *Scheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	results := s.scanner.ScanWatchlist(ctx, s.cfg.Detector.Watchlist)
	if err := s.processor.ProcessBatch(ctx, results); err != nil {
		s.l.Error("scheduled scan processing failed", logger.Error(err))
	}
}

func (s *Scheduler) runHype() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.hype.TrendingHype(ctx); err != nil {
		s.l.Error("scheduled hype refresh failed", logger.Error(err))
	}
}
