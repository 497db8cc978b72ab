package features

import (
	"testing"
	"time"

	"StockSage/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barSeries(n int, volume float64, withTime bool) models.PriceSeries {
	s := make(models.PriceSeries, n)
	base := time.Date(2025, 3, 3, 15, 30, 0, 0, time.UTC)
	for i := range s {
		c := 100 + float64(i%7) + float64(i)*0.1
		s[i] = models.PriceBar{
			Symbol: "TEST",
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
		if withTime {
			s[i].Timestamp = base.AddDate(0, 0, i)
		}
	}
	return s
}

func TestVectorWidthIsInvariant(t *testing.T) {
	e := NewEngineer()

	for _, tc := range []struct {
		name   string
		series models.PriceSeries
	}{
		{"long history", barSeries(300, 1000, true)},
		{"single bar", barSeries(1, 1000, true)},
		{"zero volume", barSeries(120, 0, true)},
		{"no timestamps", barSeries(60, 1000, false)},
		{"empty", nil},
	} {
		v := e.Vector(tc.series, "TEST")
		assert.Equal(t, VectorWidth, v.Width(), tc.name)
		assert.Equal(t, 68, v.Width(), tc.name)
	}
}

func TestVectorLongHistoryNotDegraded(t *testing.T) {
	e := NewEngineer()
	v := e.Vector(barSeries(300, 1000, true), "TEST")
	assert.Empty(t, v.Degraded)
	assert.Equal(t, "TEST", v.Symbol)
}

func TestVectorSingleBarDegradesEveryGroup(t *testing.T) {
	e := NewEngineer()
	v := e.Vector(barSeries(1, 1000, false), "TEST")

	for _, g := range []models.FeatureGroup{
		models.GroupPrice, models.GroupTechnical, models.GroupVolume,
		models.GroupVolatility, models.GroupMomentum, models.GroupPattern,
		models.GroupStructure, models.GroupTime,
	} {
		assert.True(t, v.IsDegraded(g), string(g))
	}

	// Degraded groups carry their neutral fill: zeros everywhere, 0.5 in the
	// trailing time block.
	for i := 0; i < VectorWidth-WidthTime; i++ {
		assert.Equal(t, 0.0, v.Values[i], "index %d", i)
	}
	for i := VectorWidth - WidthTime; i < VectorWidth; i++ {
		assert.Equal(t, 0.5, v.Values[i], "index %d", i)
	}
}

func TestVectorPartialHistoryDegradesLongGroups(t *testing.T) {
	e := NewEngineer()
	// 30 bars: enough for price, volume, volatility, momentum, pattern,
	// structure and time, but not for the 50-bar technical block.
	v := e.Vector(barSeries(30, 1000, true), "TEST")

	assert.True(t, v.IsDegraded(models.GroupTechnical))
	assert.False(t, v.IsDegraded(models.GroupPrice))
	assert.False(t, v.IsDegraded(models.GroupMomentum))
	assert.False(t, v.IsDegraded(models.GroupTime))
	assert.Equal(t, VectorWidth, v.Width())
}

func TestVectorIsPure(t *testing.T) {
	e := NewEngineer()
	s := barSeries(150, 2500, true)
	first := e.Vector(s, "TEST")
	second := e.Vector(s, "TEST")
	assert.Equal(t, first, second)
}

func TestVectorValuesAreFinite(t *testing.T) {
	e := NewEngineer()
	// Zero prices would otherwise produce NaN/Inf intermediate values.
	s := make(models.PriceSeries, 60)
	for i := range s {
		s[i] = models.PriceBar{Symbol: "TEST"}
	}
	v := e.Vector(s, "TEST")
	require.Equal(t, VectorWidth, v.Width())
	for i, val := range v.Values {
		assert.False(t, val != val, "NaN at %d", i)
	}
}

func TestPatternFeaturesEngulfingAndGaps(t *testing.T) {
	series := func(prev, last models.PriceBar) models.PriceSeries {
		return models.PriceSeries{prev, last}
	}

	t.Run("bearish engulfing", func(t *testing.T) {
		vals, ok := patternFeatures(series(
			models.PriceBar{Open: 100, High: 101.5, Low: 99.8, Close: 101},
			models.PriceBar{Open: 101.5, High: 102, Low: 99, Close: 99.5},
		))
		require.True(t, ok)
		assert.Equal(t, 1.0, vals[2])
		// Opened above the previous close.
		assert.Equal(t, 1.0, vals[3])
		assert.Equal(t, 0.0, vals[4])
	})

	t.Run("bullish engulfing", func(t *testing.T) {
		vals, ok := patternFeatures(series(
			models.PriceBar{Open: 101, High: 101.5, Low: 99.8, Close: 100},
			models.PriceBar{Open: 99.5, High: 102, Low: 99, Close: 101.5},
		))
		require.True(t, ok)
		assert.Equal(t, 1.0, vals[2])
		assert.Equal(t, 0.0, vals[3])
		// Opened below the previous close.
		assert.Equal(t, 1.0, vals[4])
	})

	t.Run("inside bar is not engulfing", func(t *testing.T) {
		vals, ok := patternFeatures(series(
			models.PriceBar{Open: 99, High: 103, Low: 98, Close: 102},
			models.PriceBar{Open: 100, High: 101.6, Low: 99.5, Close: 101},
		))
		require.True(t, ok)
		assert.Equal(t, 0.0, vals[2])
	})
}

func TestTimeFeaturesWithoutTimestamps(t *testing.T) {
	e := NewEngineer()
	v := e.Vector(barSeries(60, 1000, false), "TEST")

	assert.True(t, v.IsDegraded(models.GroupTime))
	for i := VectorWidth - WidthTime; i < VectorWidth; i++ {
		assert.Equal(t, 0.5, v.Values[i])
	}
}

func TestGroupWidthsSumToVectorWidth(t *testing.T) {
	sum := WidthPrice + WidthTechnical + WidthVolume + WidthVolatility +
		WidthMomentum + WidthPattern + WidthStructure + WidthTime
	assert.Equal(t, VectorWidth, sum)
}
