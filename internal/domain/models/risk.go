package models

// RiskMetrics is the fixed-field risk statistic record. Every field is always
// populated; when the input history is too short the documented default record
// is returned with Degraded set.
type RiskMetrics struct {
	Volatility            float64 `json:"volatility"`
	DailyVolatility       float64 `json:"daily_volatility"`
	RollingVolatility30d  float64 `json:"rolling_volatility_30d"`
	VolatilityOfVol       float64 `json:"volatility_of_volatility"`
	DownsideDeviation     float64 `json:"downside_deviation"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	AverageDrawdown       float64 `json:"average_drawdown"`
	DownsideFrequency     float64 `json:"downside_frequency"`
	SharpeRatio           float64 `json:"sharpe_ratio"`
	SortinoRatio          float64 `json:"sortino_ratio"`
	CalmarRatio           float64 `json:"calmar_ratio"`
	InformationRatio      float64 `json:"information_ratio"`
	Beta                  float64 `json:"beta"`
	SystematicRisk        float64 `json:"systematic_risk"`
	IdiosyncraticRisk     float64 `json:"idiosyncratic_risk"`
	VaR95                 float64 `json:"var_95"`
	VaR99                 float64 `json:"var_99"`
	ParametricVaR95       float64 `json:"parametric_var_95"`
	ParametricVaR99       float64 `json:"parametric_var_99"`
	ExpectedShortfall95   float64 `json:"expected_shortfall_95"`
	ExpectedShortfall99   float64 `json:"expected_shortfall_99"`

	// Degraded marks the record as the default fallback rather than a
	// computed result.
	Degraded bool `json:"degraded,omitempty"`
}

// PositionSize is the sizing recommendation for a single position.
// RecommendedValue never exceeds MaxPositionValue (10% of portfolio).
type PositionSize struct {
	RecommendedFraction float64 `json:"recommended_fraction"`
	RecommendedValue    float64 `json:"recommended_value"`
	MaxPositionValue    float64 `json:"max_position_value"`
	KellyFraction       float64 `json:"kelly_fraction"`
	RiskParityFraction  float64 `json:"risk_parity_fraction"`
	VolTargetFraction   float64 `json:"volatility_based_fraction"`
}
