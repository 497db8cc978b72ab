package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
	"StockSage/internal/services/features"
	"StockSage/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	series map[string]models.PriceSeries
	errs   map[string]error
	latest models.PriceBar
}

func (f *fakeProvider) GetSeries(_ context.Context, symbol string, _ drepo.Period, _ drepo.Interval) (models.PriceSeries, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, dservice.NewExternalError("fetch_series", symbol, err)
	}
	return f.series[symbol], nil
}

func (f *fakeProvider) GetLatest(_ context.Context, symbol string) (models.PriceBar, error) {
	return f.latest, nil
}

type fakePredictor struct {
	result models.PredictionResult
	err    error
	widths []int
}

func (f *fakePredictor) Predict(_ context.Context, _ string, vector models.FeatureVector) (models.PredictionResult, error) {
	f.widths = append(f.widths, vector.Width())
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSink struct {
	recorded []models.Recommendation
	err      error
}

func (f *fakeSink) Record(_ context.Context, rec models.Recommendation) error {
	f.recorded = append(f.recorded, rec)
	return f.err
}

func (f *fakeSink) Close() error { return nil }

func testConfig(symbols ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Provider.Symbols = symbols
	cfg.Analysis.RiskFreeRate = 0.02
	cfg.Analysis.MarketReturn = 0.10
	cfg.Analysis.MarketVolatility = 0.16
	cfg.Analysis.MarketCorrelation = 0.7
	cfg.Analysis.ActionThreshold = 0.02
	cfg.Analysis.MismatchPenalty = 0.8
	cfg.Analysis.MaxBatchSymbols = 50
	cfg.Analysis.BatchWorkers = 4
	cfg.Analysis.Confidence.MATrend = 0.8
	cfg.Analysis.Confidence.RSI = 0.7
	cfg.Analysis.Confidence.MACD = 0.75
	cfg.Analysis.Confidence.Bollinger = 0.65
	cfg.Analysis.Confidence.Volume = 0.6
	return cfg
}

func trendSeries(n int, rising bool) models.PriceSeries {
	s := make(models.PriceSeries, n)
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range s {
		c := 100.0 + float64(i)
		if !rising {
			c = 200.0 - float64(i)
		}
		s[i] = models.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Symbol:    "TEST",
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return s
}

func newTestAdvisor(cfg *config.Config, p drepo.PriceProvider, pr dservice.Predictor, sink drepo.RecommendationSink) *Advisor {
	a := NewAdvisor(cfg, p, pr, sink, nil, nil)
	a.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestAnalyzeBullishTrendYieldsBuy(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(60, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	sink := &fakeSink{}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, sink)

	res, err := a.Analyze(context.Background(), "AAPL", models.TierConservative, drepo.Period1Year)
	require.NoError(t, err)

	rec := res.Recommendation
	assert.Equal(t, models.ActionBuy, rec.Action)
	assert.Equal(t, models.TierConservative, rec.RiskTier)
	// bullish weight 1.55 over 5 indicators at 80% model confidence.
	assert.InDelta(t, 24.8, rec.Confidence, 1e-9)
	assert.Contains(t, rec.Reasoning, "BUY")
	assert.Contains(t, rec.Reasoning, "Moving Average Trend")
	assert.Equal(t, rec.IssuedAt.Add(24*time.Hour), rec.ValidUntil)

	// Every analysis stage is populated.
	assert.Len(t, res.Indicators, 5)
	assert.Equal(t, features.VectorWidth, res.Features.Width())
	assert.False(t, res.Risk.Degraded)

	// The recommendation was recorded.
	require.Len(t, sink.recorded, 1)
	assert.Equal(t, rec, sink.recorded[0])
}

func TestAnalyzeToleranceMismatchDampensConfidence(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(60, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, nil)

	// The series classifies as conservative; a high-risk tolerance mismatches.
	res, err := a.Analyze(context.Background(), "AAPL", models.TierHighRisk, drepo.Period1Year)
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, res.Recommendation.Action)
	assert.InDelta(t, 24.8*0.8, res.Recommendation.Confidence, 1e-9)
}

func TestAnalyzeContradictionYieldsHold(t *testing.T) {
	// Bearish indicator consensus with a positive model forecast.
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(60, false),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 90},
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, nil)

	res, err := a.Analyze(context.Background(), "AAPL", models.TierRegular, drepo.Period1Year)
	require.NoError(t, err)
	assert.Equal(t, models.ActionHold, res.Recommendation.Action)
	assert.Equal(t, 50.0, res.Recommendation.Confidence)
	assert.Contains(t, res.Recommendation.Reasoning, "Mixed signals")
}

func TestAnalyzeSingleBarDegradesEverything(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"NEW": trendSeries(1, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{}}
	a := newTestAdvisor(testConfig("NEW"), provider, predictor, nil)

	res, err := a.Analyze(context.Background(), "NEW", models.TierRegular, drepo.Period1Year)
	require.NoError(t, err)

	assert.Empty(t, res.Indicators)
	assert.True(t, res.Risk.Degraded)
	assert.Equal(t, 0.2, res.Risk.Volatility)
	assert.Equal(t, features.VectorWidth, res.Features.Width())
	assert.NotEmpty(t, res.Features.Degraded)

	// Nothing actionable without signals; absent horizon defaults to HOLD.
	assert.Equal(t, models.ActionHold, res.Recommendation.Action)
	assert.Equal(t, 50.0, res.Recommendation.Confidence)
}

func TestAnalyzeProviderFailureIsTyped(t *testing.T) {
	provider := &fakeProvider{errs: map[string]error{
		"BAD": errors.New("upstream 503"),
	}}
	a := newTestAdvisor(testConfig("BAD"), provider, &fakePredictor{}, nil)

	_, err := a.Analyze(context.Background(), "BAD", models.TierRegular, drepo.Period1Year)
	require.Error(t, err)

	var extErr *dservice.ExternalError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "fetch_series", extErr.Op)
	assert.Equal(t, "BAD", extErr.Symbol)
}

func TestAnalyzePredictorFailureIsTyped(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(60, true),
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, &fakePredictor{err: errors.New("model down")}, nil)

	_, err := a.Analyze(context.Background(), "AAPL", models.TierRegular, drepo.Period1Year)
	require.Error(t, err)

	var extErr *dservice.ExternalError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "predict", extErr.Op)
}

func TestAnalyzeSinkFailureIsBestEffort(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(60, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	sink := &fakeSink{err: errors.New("broker down")}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, sink)

	res, err := a.Analyze(context.Background(), "AAPL", models.TierConservative, drepo.Period1Year)
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, res.Recommendation.Action)
}

func TestRecommendationsSkipAndContinue(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]models.PriceSeries{
			"AAA": trendSeries(60, true),
			"CCC": trendSeries(60, true),
		},
		errs: map[string]error{"BBB": errors.New("timeout")},
	}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	a := newTestAdvisor(testConfig("AAA", "BBB", "CCC"), provider, predictor, nil)

	res, err := a.Recommendations(context.Background(), models.TierConservative, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Scanned)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "BBB", res.Failures[0].Symbol)

	require.Len(t, res.Recommendations, 2)
	for _, rec := range res.Recommendations {
		assert.Equal(t, models.ActionBuy, rec.Action)
		assert.Equal(t, models.TierConservative, rec.RiskTier)
	}
	// Sorted by confidence descending.
	assert.GreaterOrEqual(t, res.Recommendations[0].Confidence, res.Recommendations[1].Confidence)
}

func TestRecommendationsFilterAndLimit(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAA": trendSeries(60, true),
		"BBB": trendSeries(60, true),
		"CCC": trendSeries(60, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	a := newTestAdvisor(testConfig("AAA", "BBB", "CCC"), provider, predictor, nil)

	res, err := a.Recommendations(context.Background(), models.TierConservative, 1, []string{"CCC"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Len(t, res.Recommendations, 1)

	// A mismatching tier filters everything out.
	res, err = a.Recommendations(context.Background(), models.TierHighRisk, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
}

func TestRecommendationsCapUniverse(t *testing.T) {
	symbols := make([]string, 60)
	series := make(map[string]models.PriceSeries, 60)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%02d", i)
		series[symbols[i]] = trendSeries(60, true)
	}
	provider := &fakeProvider{series: series}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.05, Confidence: 80},
	}}
	a := newTestAdvisor(testConfig(symbols...), provider, predictor, nil)

	res, err := a.Recommendations(context.Background(), models.TierConservative, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Scanned)
}

func TestRecommendationExpiry(t *testing.T) {
	issued := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	rec := models.Recommendation{IssuedAt: issued, ValidUntil: issued.Add(24 * time.Hour)}
	assert.False(t, rec.Expired(issued.Add(23*time.Hour)))
	assert.True(t, rec.Expired(issued.Add(25*time.Hour)))
}
