package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
	pkgkafka "MemePulse/pkg/kafka"
)

// ClickHouseAlertStore persists alert snapshots in a ReplacingMergeTree
// keyed by ticker; re-scans overwrite the previous row. The full composite
// payload rides along as JSON so reads reconstruct it losslessly.
type ClickHouseAlertStore struct {
	db    *sql.DB
	table string
}

var _ drepo.AlertStore = (*ClickHouseAlertStore)(nil)

// NewClickHouseAlertStore creates ClickHouse-backed alert storage.
func NewClickHouseAlertStore(db *sql.DB, table string) *ClickHouseAlertStore {
	return &ClickHouseAlertStore{db: db, table: table}
}

// AlertSchema returns the DDL for the alerts table (idempotent).
func AlertSchema(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ticker            String,
		updated_at        DateTime64(3, 'UTC'),
		score             Float64,
		alert_level       LowCardinality(String),
		signals_triggered UInt8,
		payload           String
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY ticker`, table)
}

func (s *ClickHouseAlertStore) UpsertAlerts(ctx context.Context, alerts []models.CompositeResult) error {
	if len(alerts) == 0 {
		return nil
	}

	values := make([]string, 0, len(alerts))
	args := make([]interface{}, 0, len(alerts)*6)
	for i := range alerts {
		a := &alerts[i]
		if a.Ticker == "" {
			continue
		}
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal alert %s: %w", a.Ticker, err)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args,
			a.Ticker,
			a.Timestamp,
			a.EarlyWarningScore,
			string(a.AlertLevel),
			uint8(a.SignalsTriggered),
			string(payload),
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ticker, updated_at, score, alert_level, signals_triggered, payload) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert alerts: %w", err)
	}
	return nil
}

// LatestAlerts returns the most recent snapshot per ticker, best score first.
// FINAL collapses replaced rows at read time.
func (s *ClickHouseAlertStore) LatestAlerts(ctx context.Context, limit int) ([]models.CompositeResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := fmt.Sprintf("SELECT payload FROM %s FINAL ORDER BY score DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.CompositeResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var alert models.CompositeResult
		if err := json.Unmarshal([]byte(payload), &alert); err != nil {
			// skip rows written by incompatible versions
			continue
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}

func (s *ClickHouseAlertStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAlertStore) Close() error {
	return nil // pool managed by pkg/clickhouse
}

// KafkaAlertPublisher implements AlertPublisher over the shared producer.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ drepo.AlertPublisher = (*KafkaAlertPublisher)(nil)

// NewKafkaAlertPublisher creates a Kafka alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, alert *models.CompositeResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(alert.Ticker), alert)
}

func (p *KafkaAlertPublisher) PublishAlerts(ctx context.Context, alerts []models.CompositeResult) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(alerts))
	for i := range alerts {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(alerts[i].Ticker),
			Value: &alerts[i],
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
