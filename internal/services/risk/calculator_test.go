package risk

import (
	"math"
	"testing"

	"StockSage/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsDefaultRecordOnShortHistory(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	for _, returns := range [][]float64{nil, {}, {0.01}} {
		m := c.Metrics(returns)
		assert.True(t, m.Degraded)
		assert.Equal(t, 0.2, m.Volatility)
		assert.InDelta(t, 0.2/math.Sqrt(252), m.DailyVolatility, 1e-12)
		assert.Equal(t, 0.2, m.RollingVolatility30d)
		assert.Equal(t, 0.15, m.DownsideDeviation)
		assert.Equal(t, 0.1, m.MaxDrawdown)
		assert.Equal(t, 0.05, m.AverageDrawdown)
		assert.Equal(t, 0.45, m.DownsideFrequency)
		assert.Equal(t, 1.0, m.Beta)
		assert.Equal(t, 0.02, m.VaR95)
		assert.Equal(t, 0.03, m.VaR99)
		assert.Equal(t, 0.025, m.ExpectedShortfall95)
		assert.Equal(t, 0.035, m.ExpectedShortfall99)
	}
}

func TestMetricsConstantPositiveReturns(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	returns := make([]float64, 40)
	for i := range returns {
		returns[i] = 0.01
	}
	m := c.Metrics(returns)

	require.False(t, m.Degraded)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.DownsideFrequency)
	assert.Equal(t, 0.0, m.MaxDrawdown)

	// No downside and no drawdown with a positive excess return saturate the
	// ratios at the sentinel instead of +Inf.
	assert.Equal(t, RatioSentinel, m.SortinoRatio)
	assert.Equal(t, RatioSentinel, m.CalmarRatio)

	// Zero volatility leaves Sharpe at 0 and clamps beta at the floor.
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.1, m.Beta)

	// Every return equals the 5th percentile.
	assert.Equal(t, 0.01, m.VaR95)
	assert.Equal(t, 0.01, m.ExpectedShortfall95)
}

func TestMetricsKnownDistribution(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	// Alternating gains and losses.
	returns := make([]float64, 50)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = 0.02
		} else {
			returns[i] = -0.01
		}
	}
	m := c.Metrics(returns)

	require.False(t, m.Degraded)
	assert.Equal(t, 0.5, m.DownsideFrequency)
	assert.Greater(t, m.Volatility, 0.0)
	assert.Greater(t, m.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, m.MaxDrawdown, 0.01+1e-9)

	// Losses cluster at -0.01, so historical VaR and ES coincide there.
	assert.InDelta(t, 0.01, m.VaR95, 1e-9)
	assert.InDelta(t, 0.01, m.ExpectedShortfall95, 1e-9)
	assert.GreaterOrEqual(t, m.VaR99, m.VaR95)
	assert.GreaterOrEqual(t, m.ExpectedShortfall99, m.ExpectedShortfall95)

	// Parametric VaR follows |mean + z*std|.
	mean := 0.005
	assert.InDelta(t, math.Abs(mean-1.6449*m.DailyVolatility), m.ParametricVaR95, 1e-9)
	assert.InDelta(t, math.Abs(mean-2.3263*m.DailyVolatility), m.ParametricVaR99, 1e-9)
}

func TestMetricsAreNeverInfinite(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	sets := [][]float64{
		{0.01, 0.01, 0.01},
		{-0.01, -0.02, -0.03},
		{0, 0, 0, 0},
		{0.5, -0.5, 0.5, -0.5},
	}
	for _, returns := range sets {
		m := c.Metrics(returns)
		for name, v := range map[string]float64{
			"sharpe":  m.SharpeRatio,
			"sortino": m.SortinoRatio,
			"calmar":  m.CalmarRatio,
			"ir":      m.InformationRatio,
		} {
			assert.False(t, math.IsInf(v, 0), name)
			assert.False(t, math.IsNaN(v), name)
		}
	}
}

func TestAverageDrawdownCountsOnlyUnderwaterDays(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	// One flat day at the peak and one 5% drop: the average covers the
	// single underwater day, not the whole series.
	m := c.Metrics([]float64{0.10, -0.05})
	assert.InDelta(t, 0.05, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0.05, m.AverageDrawdown, 1e-12)

	// Monotonic gains never leave the peak.
	m = c.Metrics([]float64{0.01, 0.02, 0.03})
	assert.Equal(t, 0.0, m.AverageDrawdown)
}

func TestRatiosPreserveFiniteExtremes(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	// Steady gains with two microscopic losses: downside deviation and max
	// drawdown are tiny but nonzero, so Sortino and Calmar come out finite
	// and far above the sentinel. They must not be clamped.
	returns := make([]float64, 0, 42)
	for i := 0; i < 40; i++ {
		returns = append(returns, 0.01)
	}
	returns = append(returns, -1e-6, -2e-6)

	m := c.Metrics(returns)
	require.False(t, m.Degraded)
	require.False(t, math.IsInf(m.SortinoRatio, 0))
	require.False(t, math.IsInf(m.CalmarRatio, 0))
	assert.Greater(t, m.SortinoRatio, RatioSentinel)
	assert.Greater(t, m.CalmarRatio, RatioSentinel)
}

func TestClassifyTierBands(t *testing.T) {
	low := models.RiskMetrics{Volatility: 0.1, MaxDrawdown: 0.05, Beta: 1.0, SharpeRatio: 1.0}
	assert.Equal(t, models.TierConservative, ClassifyTier(low))

	mid := models.RiskMetrics{Volatility: 0.25, MaxDrawdown: 0.15, Beta: 1.0, SharpeRatio: 1.0}
	assert.Equal(t, models.TierRegular, ClassifyTier(mid))

	high := models.RiskMetrics{Volatility: 0.45, MaxDrawdown: 0.35, Beta: 1.8, SharpeRatio: -0.5}
	assert.Equal(t, models.TierHighRisk, ClassifyTier(high))
}

func TestClassifyTierMonotonicInVolatility(t *testing.T) {
	rank := map[models.RiskTier]int{
		models.TierConservative: 0,
		models.TierRegular:      1,
		models.TierHighRisk:     2,
	}

	base := models.RiskMetrics{MaxDrawdown: 0.15, Beta: 1.3, SharpeRatio: 0.3}
	prev := -1
	for _, vol := range []float64{0.05, 0.15, 0.25, 0.35, 0.5} {
		m := base
		m.Volatility = vol
		got := rank[ClassifyTier(m)]
		assert.GreaterOrEqual(t, got, prev, "vol %v", vol)
		prev = got
	}
}

func TestPositionSizeCeiling(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	portfolio := 100000.0

	metricSets := []models.RiskMetrics{
		{Volatility: 0.05, SharpeRatio: 3.0, VaR95: 0.001}, // screaming buy
		{Volatility: 0.6, SharpeRatio: -1.0, VaR95: 0.08},  // disaster
		defaultMetrics(),
	}
	for _, m := range metricSets {
		for _, tol := range []models.RiskTier{models.TierConservative, models.TierRegular, models.TierHighRisk} {
			p := c.PositionSize(portfolio, m, tol)
			assert.LessOrEqual(t, p.RecommendedValue, portfolio*0.1+1e-9, "tolerance %s", tol)
			assert.Equal(t, portfolio*0.1, p.MaxPositionValue)
			assert.GreaterOrEqual(t, p.RecommendedFraction, 0.01)
			assert.LessOrEqual(t, p.RecommendedFraction, 0.20)
		}
	}
}

func TestPositionSizeScalesWithTolerance(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	m := models.RiskMetrics{Volatility: 0.25, SharpeRatio: 0.8, VaR95: 0.02}

	cons := c.PositionSize(50000, m, models.TierConservative)
	aggr := c.PositionSize(50000, m, models.TierHighRisk)
	assert.LessOrEqual(t, cons.RecommendedFraction, aggr.RecommendedFraction)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 5.0, percentile(values, 100))
	assert.Equal(t, 3.0, percentile(values, 50))
	assert.InDelta(t, 1.2, percentile(values, 5), 1e-9)
}
