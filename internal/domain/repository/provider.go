package repository

import (
	"context"
	"fmt"
	"strings"

	"StockSage/internal/domain/models"
)

// Period is the lookback window requested from the price provider.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
)

// Interval is the bar granularity requested from the price provider.
type Interval string

const (
	Interval1Day  Interval = "1d"
	Interval1Hour Interval = "1h"
	Interval5Min  Interval = "5m"
)

// ParsePeriod normalizes a user-supplied period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Period1Month:
		return Period1Month, nil
	case Period3Months:
		return Period3Months, nil
	case Period6Months:
		return Period6Months, nil
	case Period1Year, "":
		return Period1Year, nil
	case Period2Years:
		return Period2Years, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// PriceProvider fetches historical bars and latest quotes for a symbol.
type PriceProvider interface {
	GetSeries(ctx context.Context, symbol string, period Period, interval Interval) (models.PriceSeries, error)
	GetLatest(ctx context.Context, symbol string) (models.PriceBar, error)
}

// RecommendationSink records issued recommendations for downstream consumers.
// Recording is best-effort; failures must never fail the analysis itself.
type RecommendationSink interface {
	Record(ctx context.Context, rec models.Recommendation) error
	Close() error
}

// RecommendationHistory reads back recorded recommendations and reports the
// health of the backing store.
type RecommendationHistory interface {
	Recent(ctx context.Context, symbol string, limit int) ([]models.Recommendation, error)
	Health(ctx context.Context) error
}

// Metrics abstracts operational metric recording.
type Metrics interface {
	RecordRecommendation(action, tier string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
