package risk

import (
	"math"
	"sort"

	"StockSage/internal/domain/models"
	"StockSage/internal/services/indicators"
)

const (
	tradingDays = 252.0

	// RatioSentinel replaces mathematically infinite Sortino/Calmar ratios
	// (no downside, no drawdown) so the record stays JSON-safe and comparable.
	RatioSentinel = 100.0

	varZ95 = -1.6449
	varZ99 = -2.3263
)

// Config carries the market assumptions used by the calculator.
type Config struct {
	RiskFreeRate      float64
	MarketReturn      float64
	MarketVolatility  float64
	MarketCorrelation float64
}

// DefaultConfig returns the standard market assumptions.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:      0.02,
		MarketReturn:      0.10,
		MarketVolatility:  0.16,
		MarketCorrelation: 0.7,
	}
}

// Calculator derives the fixed risk metric record from a return series.
// All methods are pure.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given market assumptions.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// defaultMetrics is the record returned when history is too short to compute.
func defaultMetrics() models.RiskMetrics {
	return models.RiskMetrics{
		Volatility:           0.2,
		DailyVolatility:      0.2 / math.Sqrt(tradingDays),
		RollingVolatility30d: 0.2,
		VolatilityOfVol:      0.0,
		DownsideDeviation:    0.15,
		MaxDrawdown:          0.1,
		AverageDrawdown:      0.05,
		DownsideFrequency:    0.45,
		SharpeRatio:          0.0,
		SortinoRatio:         0.0,
		CalmarRatio:          0.0,
		InformationRatio:     0.0,
		Beta:                 1.0,
		SystematicRisk:       0.1,
		IdiosyncraticRisk:    0.1,
		VaR95:                0.02,
		VaR99:                0.03,
		ParametricVaR95:      0.02,
		ParametricVaR99:      0.03,
		ExpectedShortfall95:  0.025,
		ExpectedShortfall99:  0.035,
		Degraded:             true,
	}
}

// Metrics computes the full risk record from a daily return series. Fewer than
// two return observations yield the default record with Degraded set.
func (c *Calculator) Metrics(returns []float64) models.RiskMetrics {
	if len(returns) < 2 {
		return defaultMetrics()
	}

	mean := indicators.Mean(returns)
	daily := indicators.SampleStd(returns)
	annual := daily * math.Sqrt(tradingDays)

	m := models.RiskMetrics{
		Volatility:      annual,
		DailyVolatility: daily,
	}

	// Rolling measures need a meaningful window.
	if len(returns) >= 30 {
		m.RollingVolatility30d = indicators.SampleStd(returns[len(returns)-30:]) * math.Sqrt(tradingDays)
		m.VolatilityOfVol = volOfVol(returns, 10)
	} else {
		m.RollingVolatility30d = annual
	}

	m.DownsideDeviation = downsideDeviation(returns)
	m.MaxDrawdown, m.AverageDrawdown = drawdowns(returns)
	m.DownsideFrequency = downsideFrequency(returns)

	annReturn := mean * tradingDays
	if annual > 0 {
		m.SharpeRatio = (annReturn - c.cfg.RiskFreeRate) / annual
	}
	m.SortinoRatio = capRatio(sortino(annReturn, c.cfg.RiskFreeRate, m.DownsideDeviation))
	m.CalmarRatio = capRatio(calmar(annReturn, m.MaxDrawdown))
	m.InformationRatio = c.informationRatio(returns)

	m.Beta = clamp(annual/c.cfg.MarketVolatility, 0.1, 3.0)
	systematic := c.cfg.MarketCorrelation * c.cfg.MarketCorrelation * annual * annual
	m.SystematicRisk = systematic
	m.IdiosyncraticRisk = math.Max(annual*annual-systematic, 0)

	hist95 := percentile(returns, 5)
	hist99 := percentile(returns, 1)
	m.VaR95 = math.Abs(hist95)
	m.VaR99 = math.Abs(hist99)
	m.ParametricVaR95 = math.Abs(mean + varZ95*daily)
	m.ParametricVaR99 = math.Abs(mean + varZ99*daily)
	m.ExpectedShortfall95 = expectedShortfall(returns, hist95)
	m.ExpectedShortfall99 = expectedShortfall(returns, hist99)

	return m
}

// volOfVol is the sample std of the rolling-window std series.
func volOfVol(returns []float64, window int) float64 {
	if len(returns) < window+1 {
		return 0
	}
	stds := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		stds = append(stds, indicators.SampleStd(returns[i-window:i]))
	}
	return indicators.SampleStd(stds)
}

func downsideDeviation(returns []float64) float64 {
	neg := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	return indicators.SampleStd(neg) * math.Sqrt(tradingDays)
}

// drawdowns walks the cumulative wealth curve against its running maximum.
// The average covers only days spent below the peak.
func drawdowns(returns []float64) (maxDD, avgDD float64) {
	wealth := 1.0
	peak := 1.0
	var sum float64
	var below int
	for _, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		dd := (wealth - peak) / peak
		if dd < 0 {
			sum += dd
			below++
		}
		if -dd > maxDD {
			maxDD = -dd
		}
	}
	if below > 0 {
		avgDD = math.Abs(sum / float64(below))
	}
	return maxDD, avgDD
}

func downsideFrequency(returns []float64) float64 {
	var n int
	for _, r := range returns {
		if r < 0 {
			n++
		}
	}
	return float64(n) / float64(len(returns))
}

func sortino(annReturn, riskFree, downsideDev float64) float64 {
	if downsideDev > 0 {
		return (annReturn - riskFree) / downsideDev
	}
	if annReturn > riskFree {
		return math.Inf(1)
	}
	return 0
}

func calmar(annReturn, maxDD float64) float64 {
	if maxDD > 0 {
		return annReturn / maxDD
	}
	if annReturn > 0 {
		return math.Inf(1)
	}
	return 0
}

func (c *Calculator) informationRatio(returns []float64) float64 {
	benchmark := c.cfg.MarketReturn / tradingDays
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - benchmark
	}
	te := indicators.SampleStd(excess) * math.Sqrt(tradingDays)
	if te == 0 {
		return 0
	}
	return indicators.Mean(excess) * tradingDays / te
}

// capRatio replaces infinite ratios with the finite sentinel so downstream
// JSON encoding and scoring never see Inf. Finite values pass through.
func capRatio(v float64) float64 {
	if math.IsInf(v, 1) {
		return RatioSentinel
	}
	if math.IsInf(v, -1) {
		return -RatioSentinel
	}
	return v
}

// percentile computes the p-th percentile with linear interpolation between
// closest ranks, matching the conventional definition on sorted data.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// expectedShortfall averages the returns at or below the VaR threshold.
func expectedShortfall(returns []float64, varThreshold float64) float64 {
	var sum float64
	var n int
	for _, r := range returns {
		if r <= varThreshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return math.Abs(varThreshold)
	}
	return math.Abs(sum / float64(n))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
