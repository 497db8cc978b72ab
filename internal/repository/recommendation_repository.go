package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StockSage/internal/domain/models"
	"StockSage/internal/domain/repository"
	pkgkafka "StockSage/pkg/kafka"
)

// ClickHouseRecommendationStore persists issued recommendations for audit.
type ClickHouseRecommendationStore struct {
	db    *sql.DB
	table string
}

var (
	_ repository.RecommendationSink    = (*ClickHouseRecommendationStore)(nil)
	_ repository.RecommendationHistory = (*ClickHouseRecommendationStore)(nil)
)

// NewClickHouseRecommendationStore creates the audit store. It is both a
// sink for issued recommendations and the history behind the read endpoints.
func NewClickHouseRecommendationStore(db *sql.DB, table string) *ClickHouseRecommendationStore {
	return &ClickHouseRecommendationStore{db: db, table: table}
}

func (s *ClickHouseRecommendationStore) Record(ctx context.Context, rec models.Recommendation) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (issued_at, valid_until, symbol, action, risk_tier, confidence, reasoning) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table,
	)
	_, err := s.db.ExecContext(ctx, q,
		rec.IssuedAt,
		rec.ValidUntil,
		rec.Symbol,
		string(rec.Action),
		string(rec.RiskTier),
		rec.Confidence,
		rec.Reasoning,
	)
	return err
}

// Recent returns the latest recommendations for a symbol, newest first.
func (s *ClickHouseRecommendationStore) Recent(ctx context.Context, symbol string, limit int) ([]models.Recommendation, error) {
	q := fmt.Sprintf(
		"SELECT issued_at, valid_until, symbol, action, risk_tier, confidence, reasoning FROM %s WHERE symbol = ? ORDER BY issued_at DESC LIMIT ?",
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		var action, tier string
		if err := rows.Scan(&r.IssuedAt, &r.ValidUntil, &r.Symbol, &action, &tier, &r.Confidence, &r.Reasoning); err != nil {
			return nil, err
		}
		r.Action = models.Action(action)
		r.RiskTier = models.RiskTier(tier)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *ClickHouseRecommendationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseRecommendationStore) Close() error {
	return nil // Managed by pkg
}

// KafkaRecommendationPublisher streams issued recommendations to a topic,
// keyed by symbol so per-symbol ordering survives partitioning.
type KafkaRecommendationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecommendationPublisher creates the Kafka sink.
func NewKafkaRecommendationPublisher(producer *pkgkafka.Producer, topic string) repository.RecommendationSink {
	return &KafkaRecommendationPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecommendationPublisher) Record(ctx context.Context, rec models.Recommendation) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaRecommendationPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// MultiSink fans one recommendation out to several sinks. Errors are joined
// so a broken sink never hides the others.
type MultiSink struct {
	sinks []repository.RecommendationSink
}

// NewMultiSink combines sinks; nil entries are skipped.
func NewMultiSink(sinks ...repository.RecommendationSink) repository.RecommendationSink {
	kept := make([]repository.RecommendationSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiSink{sinks: kept}
}

func (m *MultiSink) Record(ctx context.Context, rec models.Recommendation) error {
	var errs []string
	for _, s := range m.sinks {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("record recommendation: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (m *MultiSink) Close() error {
	var errs []string
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close sinks: %s", strings.Join(errs, "; "))
	}
	return nil
}
