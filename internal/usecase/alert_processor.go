package usecase

import (
	"context"
	"fmt"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
)

// AlertProcessor routes composite alerts to the configured backend:
// published to Kafka or written straight to ClickHouse.
type AlertProcessor struct {
	pub     drepo.AlertPublisher
	store   drepo.AlertStore
	metrics drepo.Metrics
	backend string
}

// NewAlertProcessor creates a new AlertProcessor instance.
func NewAlertProcessor(
	pub drepo.AlertPublisher,
	store drepo.AlertStore,
	metrics drepo.Metrics,
	backend string,
) *AlertProcessor {
	return &AlertProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single alert to the configured backend.
func (p *AlertProcessor) Process(ctx context.Context, alert *models.CompositeResult) error {
	if alert == nil {
		return fmt.Errorf("alert is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishAlert(ctx, alert)
	case "clickhouse":
		err = p.store.UpsertAlerts(ctx, []models.CompositeResult{*alert})
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process alert: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, alert.Ticker)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes a full scan's results in one shot.
func (p *AlertProcessor) ProcessBatch(ctx context.Context, alerts []models.CompositeResult) error {
	if len(alerts) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishAlerts(ctx, alerts)
	case "clickhouse":
		err = p.store.UpsertAlerts(ctx, alerts)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for i := range alerts {
		p.metrics.RecordMessageSent(p.backend, alerts[i].Ticker)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// CachedAlerts reads the latest persisted snapshot per ticker.
func (p *AlertProcessor) CachedAlerts(ctx context.Context, limit int) ([]models.CompositeResult, error) {
	return p.store.LatestAlerts(ctx, limit)
}

// Health pings the alert store.
func (p *AlertProcessor) Health(ctx context.Context) error {
	return p.store.Health(ctx)
}

// Close closes underlying resources if available.
func (p *AlertProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
