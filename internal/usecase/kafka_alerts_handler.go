package usecase

import (
	"context"
	"encoding/json"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	pkgkafka "MemePulse/pkg/kafka"
)

// KafkaAlertsHandler consumes published alerts and persists them, so the
// kafka backend still ends up in ClickHouse for the cached endpoints.
type KafkaAlertsHandler struct {
	topic   string
	store   drepo.AlertStore
	metrics drepo.Metrics
}

func NewKafkaAlertsHandler(topic string, store drepo.AlertStore, metrics drepo.Metrics) *KafkaAlertsHandler {
	return &KafkaAlertsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaAlertsHandler) Topic() string { return h.topic }

func (h *KafkaAlertsHandler) Handle(ctx context.Context, b []byte) error {
	var alert models.CompositeResult
	if err := json.Unmarshal(b, &alert); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !alert.Timestamp.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(alert.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.store.UpsertAlerts(ctx, []models.CompositeResult{alert})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", alert.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaAlertsHandler)(nil)
