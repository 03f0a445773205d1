package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MemePulse/internal/domain/models"
	drepo "MemePulse/internal/domain/repository"
)

// ClickHouseHypeStore persists hype scores, one replacing row per ticker.
type ClickHouseHypeStore struct {
	db    *sql.DB
	table string
}

var _ drepo.HypeStore = (*ClickHouseHypeStore)(nil)

// NewClickHouseHypeStore creates ClickHouse-backed hype storage.
func NewClickHouseHypeStore(db *sql.DB, table string) *ClickHouseHypeStore {
	return &ClickHouseHypeStore{db: db, table: table}
}

// HypeSchema returns the DDL for the hype table (idempotent).
func HypeSchema(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ticker     String,
		grp        LowCardinality(String),
		updated_at DateTime64(3, 'UTC'),
		hype_score Float64,
		social_raw Float64,
		news_raw   Float64,
		social_z   Float64,
		news_z     Float64
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY ticker`, table)
}

func (s *ClickHouseHypeStore) UpsertHype(ctx context.Context, scores []models.HypeScore) error {
	if len(scores) == 0 {
		return nil
	}

	values := make([]string, 0, len(scores))
	args := make([]interface{}, 0, len(scores)*8)
	for i := range scores {
		h := &scores[i]
		if h.Ticker == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			h.Ticker, h.Group, h.UpdatedAt,
			h.Score, h.SocialRaw, h.NewsRaw, h.SocialZ, h.NewsZ,
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ticker, grp, updated_at, hype_score, social_raw, news_raw, social_z, news_z) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert hype: %w", err)
	}
	return nil
}

func (s *ClickHouseHypeStore) LatestHype(ctx context.Context) ([]models.HypeScore, error) {
	q := fmt.Sprintf(
		"SELECT ticker, grp, updated_at, hype_score, social_raw, news_raw, social_z, news_z FROM %s FINAL ORDER BY hype_score DESC",
		s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query hype: %w", err)
	}
	defer rows.Close()

	var out []models.HypeScore
	for rows.Next() {
		var h models.HypeScore
		var updated time.Time
		if err := rows.Scan(&h.Ticker, &h.Group, &updated, &h.Score, &h.SocialRaw, &h.NewsRaw, &h.SocialZ, &h.NewsZ); err != nil {
			return nil, err
		}
		h.UpdatedAt = updated
		out = append(out, h)
	}
	return out, rows.Err()
}
