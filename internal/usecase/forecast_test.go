package usecase

import (
	"context"
	"math"
	"testing"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastHorizonsAndBounds(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(120, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1:  {PredictedChange: 0.01, Confidence: 80},
		5:  {PredictedChange: 0.03, Confidence: 70},
		22: {PredictedChange: 0.08, Confidence: 60},
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, nil)

	fc, err := a.Forecast(context.Background(), "AAPL", 0.95, drepo.Period1Year)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", fc.Symbol)
	assert.Equal(t, 0.95, fc.ConfidenceLevel)
	require.Len(t, fc.Horizons, 3)

	price := fc.CurrentPrice
	require.Greater(t, price, 0.0)

	for i, h := range fc.Horizons {
		assert.Equal(t, models.ForecastHorizons[i], h.HorizonDays)

		// Price target follows the predicted change.
		want := price * (1 + h.PredictedChange/100)
		assert.InDelta(t, want, h.PredictedPrice, 1e-9)

		// Bounds are symmetric around the target.
		assert.InDelta(t, h.PredictedPrice-h.LowerBound, h.UpperBound-h.PredictedPrice, 1e-9)
		assert.Greater(t, h.UpperBound, h.LowerBound)
		assert.GreaterOrEqual(t, h.LowerBound, 0.0)
	}

	// Longer horizons with weaker model confidence are more uncertain.
	assert.Less(t, fc.Horizons[0].Uncertainty, fc.Horizons[1].Uncertainty)
	assert.Less(t, fc.Horizons[1].Uncertainty, fc.Horizons[2].Uncertainty)
}

func TestForecastBoundWidthScalesWithZScore(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(120, true),
	}}
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.01, Confidence: 80},
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, nil)

	fc95, err := a.Forecast(context.Background(), "AAPL", 0.95, drepo.Period1Year)
	require.NoError(t, err)
	fc99, err := a.Forecast(context.Background(), "AAPL", 0.99, drepo.Period1Year)
	require.NoError(t, err)

	width95 := fc95.Horizons[0].UpperBound - fc95.Horizons[0].LowerBound
	width99 := fc99.Horizons[0].UpperBound - fc99.Horizons[0].LowerBound
	require.Greater(t, width95, 0.0)
	assert.InDelta(t, 2.58/1.96, width99/width95, 1e-9)
}

func TestForecastMissingHorizonDefaults(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAPL": trendSeries(120, true),
	}}
	// Only the 1-day horizon is predicted; the rest fall back to no move at
	// 50% confidence.
	predictor := &fakePredictor{result: models.PredictionResult{
		1: {PredictedChange: 0.02, Confidence: 75},
	}}
	a := newTestAdvisor(testConfig("AAPL"), provider, predictor, nil)

	fc, err := a.Forecast(context.Background(), "AAPL", 0.95, drepo.Period1Year)
	require.NoError(t, err)
	require.Len(t, fc.Horizons, 3)

	week := fc.Horizons[1]
	assert.Equal(t, 5, week.HorizonDays)
	assert.Equal(t, 0.0, week.PredictedChange)
	assert.Equal(t, 50.0, week.Confidence)
	assert.InDelta(t, fc.CurrentPrice, week.PredictedPrice, 1e-9)

	// Uncertainty stays finite and positive with real volatility.
	assert.False(t, math.IsNaN(week.Uncertainty))
	assert.Greater(t, week.Uncertainty, 0.0)
}
