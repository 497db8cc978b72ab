package risk

import (
	"math"

	"StockSage/internal/domain/models"
)

const (
	maxPortfolioFraction = 0.10 // hard ceiling on any single position
	minFraction          = 0.01
	maxFraction          = 0.20
)

// toleranceMultiplier scales risk budgets by the investor's tolerance.
func toleranceMultiplier(t models.RiskTier) float64 {
	switch t {
	case models.TierConservative:
		return 0.5
	case models.TierHighRisk:
		return 2.0
	default:
		return 1.0
	}
}

// PositionSize combines Kelly, risk-parity and volatility-targeting sizing
// and clamps the blend to a sane range. The recommended value never exceeds
// 10% of the portfolio regardless of tolerance.
func (c *Calculator) PositionSize(portfolioValue float64, m models.RiskMetrics, tolerance models.RiskTier) models.PositionSize {
	mult := toleranceMultiplier(tolerance)

	kelly := 0.05
	if m.Volatility > 0 {
		kelly = math.Min(math.Max(m.SharpeRatio/(m.Volatility*m.Volatility), 0), 0.25)
	}

	riskParity := 0.05
	if m.VaR95 > 0 {
		riskParity = math.Min(0.01*mult/m.VaR95, 0.3)
	}

	volTarget := math.Min(0.15*mult/math.Max(m.Volatility, 0.05), 0.25)

	frac := clamp((kelly+riskParity+volTarget)/3, minFraction, maxFraction)

	maxValue := portfolioValue * maxPortfolioFraction
	return models.PositionSize{
		RecommendedFraction: frac,
		RecommendedValue:    math.Min(portfolioValue*frac, maxValue),
		MaxPositionValue:    maxValue,
		KellyFraction:       kelly,
		RiskParityFraction:  riskParity,
		VolTargetFraction:   volTarget,
	}
}

// ClassifyTier buckets a risk record by an additive score over volatility,
// drawdown, beta and Sharpe bands.
func ClassifyTier(m models.RiskMetrics) models.RiskTier {
	score := 0

	switch {
	case m.Volatility > 0.3:
		score += 3
	case m.Volatility > 0.2:
		score += 2
	default:
		score++
	}

	switch {
	case m.MaxDrawdown > 0.2:
		score += 3
	case m.MaxDrawdown > 0.1:
		score += 2
	default:
		score++
	}

	switch {
	case m.Beta > 1.5:
		score += 2
	case m.Beta > 1.2:
		score++
	}

	switch {
	case m.SharpeRatio < 0:
		score += 2
	case m.SharpeRatio < 0.5:
		score++
	}

	switch {
	case score >= 7:
		return models.TierHighRisk
	case score >= 4:
		return models.TierRegular
	default:
		return models.TierConservative
	}
}
