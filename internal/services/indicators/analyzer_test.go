package indicators

import (
	"testing"

	"StockSage/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromCloses(closes []float64, volume float64) models.PriceSeries {
	s := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = models.PriceBar{
			Symbol: "TEST",
			Open:   c * 0.995,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: volume,
		}
	}
	return s
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func fallingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 200 - float64(i)
	}
	return out
}

func TestAnalyzeRisingTrend(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	inds := a.Analyze(seriesFromCloses(risingCloses(60), 1000))
	require.Len(t, inds, 5)

	byName := map[string]models.TechnicalIndicator{}
	for _, ind := range inds {
		byName[ind.Name] = ind
	}

	ma := byName["Moving Average Trend"]
	assert.Equal(t, models.SignalBullish, ma.Signal)
	assert.Equal(t, 0.8, ma.Confidence)
	assert.Greater(t, ma.Value, 0.0)

	macd := byName["MACD"]
	assert.Equal(t, models.SignalBullish, macd.Signal)
	assert.Equal(t, 0.75, macd.Confidence)

	rsi := byName["RSI"]
	assert.Equal(t, models.SignalBearish, rsi.Signal, "monotonic rise saturates RSI")
	assert.Equal(t, 100.0, rsi.Value)
}

func TestAnalyzeFallingTrend(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	inds := a.Analyze(seriesFromCloses(fallingCloses(60), 1000))
	require.Len(t, inds, 5)

	for _, ind := range inds {
		if ind.Name == "Moving Average Trend" {
			assert.Equal(t, models.SignalBearish, ind.Signal)
			assert.Equal(t, 0.8, ind.Confidence)
		}
		if ind.Name == "MACD" {
			assert.Equal(t, models.SignalBearish, ind.Signal)
		}
	}
}

func TestAnalyzeOmitsBelowWindow(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// 10 bars satisfy no indicator window.
	inds := a.Analyze(seriesFromCloses(risingCloses(10), 1000))
	assert.Empty(t, inds)

	// 30 bars satisfy RSI, MACD, Bollinger and volume, not the MA trend.
	inds = a.Analyze(seriesFromCloses(risingCloses(30), 1000))
	require.Len(t, inds, 4)
	for _, ind := range inds {
		assert.NotEqual(t, "Moving Average Trend", ind.Name)
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	s := seriesFromCloses(risingCloses(80), 5000)
	first := a.Analyze(s)
	second := a.Analyze(s)
	assert.Equal(t, first, second)
}

func TestVolumeSpikeConfirmsMove(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	s := seriesFromCloses(risingCloses(60), 1000)
	s[len(s)-1].Volume = 5000 // 5x the 20-day average

	inds := a.Analyze(s)
	var vol models.TechnicalIndicator
	for _, ind := range inds {
		if ind.Name == "Volume Analysis" {
			vol = ind
		}
	}
	require.NotZero(t, vol.Name)
	assert.Equal(t, models.SignalBullish, vol.Signal)
	assert.Equal(t, 0.6, vol.Confidence)
	assert.Greater(t, vol.Value, 1.5)
}

func TestConfidencesWithinUnitInterval(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	inds := a.Analyze(seriesFromCloses(risingCloses(100), 1000))
	for _, ind := range inds {
		assert.GreaterOrEqual(t, ind.Confidence, 0.0, ind.Name)
		assert.LessOrEqual(t, ind.Confidence, 1.0, ind.Name)
	}
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105, 95, 106, 94, 107, 93, 108}
	rsi, ok := RSI(closes, 14)
	require.True(t, ok)
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)

	// Flat window resolves to the midpoint.
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 50
	}
	rsi, ok = RSI(flat, 14)
	require.True(t, ok)
	assert.Equal(t, 50.0, rsi)
}

func TestSMAWindow(t *testing.T) {
	_, ok := SMA([]float64{1, 2, 3}, 5)
	assert.False(t, ok)

	avg, ok := SMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.True(t, ok)
	assert.Equal(t, 5.0, avg)
}
