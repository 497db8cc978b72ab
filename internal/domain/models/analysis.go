package models

import "time"

// Signal is the direction an indicator votes for.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// Action is the trade recommendation verdict.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RiskTier buckets an instrument by overall riskiness.
type RiskTier string

const (
	TierConservative RiskTier = "conservative"
	TierRegular      RiskTier = "regular"
	TierHighRisk     RiskTier = "high-risk"
)

// TechnicalIndicator is one named signal derived from price history.
// Confidence is a fixed constant per indicator type, in [0,1].
type TechnicalIndicator struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Signal      Signal  `json:"signal"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// FeatureGroup identifies one block of the feature vector.
type FeatureGroup string

const (
	GroupPrice      FeatureGroup = "price"
	GroupTechnical  FeatureGroup = "technical"
	GroupVolume     FeatureGroup = "volume"
	GroupVolatility FeatureGroup = "volatility"
	GroupMomentum   FeatureGroup = "momentum"
	GroupPattern    FeatureGroup = "pattern"
	GroupStructure  FeatureGroup = "structure"
	GroupTime       FeatureGroup = "time"
)

// FeatureVector is the fixed-width numeric input the predictor expects.
// Width never varies with input length or quality; groups that could not be
// computed are filled with their neutral value and listed in Degraded.
type FeatureVector struct {
	Symbol   string         `json:"symbol"`
	Values   []float64      `json:"values"`
	Degraded []FeatureGroup `json:"degraded,omitempty"`
}

// Width returns the vector length.
func (v FeatureVector) Width() int { return len(v.Values) }

// IsDegraded reports whether the given group fell back to its neutral fill.
func (v FeatureVector) IsDegraded(g FeatureGroup) bool {
	for _, d := range v.Degraded {
		if d == g {
			return true
		}
	}
	return false
}

// HorizonForecast is the predictor output for one horizon.
type HorizonForecast struct {
	PredictedChange float64 `json:"predicted_change"`
	Confidence      float64 `json:"confidence"` // 0-100
}

// Horizons the predictor is trained for, in trading days.
var ForecastHorizons = []int{1, 5, 22}

// PredictionResult maps a forecast horizon (trading days) to its forecast.
type PredictionResult map[int]HorizonForecast

// Horizon returns the forecast for h trading days. Absent horizons default to
// no expected move at 50% confidence.
func (p PredictionResult) Horizon(h int) HorizonForecast {
	if f, ok := p[h]; ok {
		return f
	}
	return HorizonForecast{PredictedChange: 0, Confidence: 50}
}

// Recommendation is the advisory verdict for one symbol. Immutable once
// created; consumers must request a fresh one after ValidUntil.
type Recommendation struct {
	Symbol     string    `json:"symbol"`
	Action     Action    `json:"action"`
	RiskTier   RiskTier  `json:"risk_tier"`
	Confidence float64   `json:"confidence"` // 0-100, BUY/SELL capped at 95, HOLD fixed 50
	Reasoning  string    `json:"reasoning"`
	IssuedAt   time.Time `json:"issued_at"`
	ValidUntil time.Time `json:"valid_until"`
}

// Expired reports whether the recommendation is stale at t.
func (r Recommendation) Expired(t time.Time) bool { return t.After(r.ValidUntil) }

// Analysis bundles everything computed for one symbol in one pass.
type Analysis struct {
	Symbol         string               `json:"symbol"`
	Indicators     []TechnicalIndicator `json:"indicators"`
	Features       FeatureVector        `json:"features"`
	Prediction     PredictionResult     `json:"prediction"`
	Risk           RiskMetrics          `json:"risk"`
	Recommendation Recommendation       `json:"recommendation"`
}

// BoundedForecast is a horizon forecast enhanced with confidence bounds.
type BoundedForecast struct {
	HorizonDays      int     `json:"horizon_days"`
	PredictedPrice   float64 `json:"predicted_price"`
	PredictedChange  float64 `json:"predicted_change_percent"`
	Confidence       float64 `json:"confidence"`
	UpperBound       float64 `json:"upper_bound"`
	LowerBound       float64 `json:"lower_bound"`
	Uncertainty      float64 `json:"uncertainty"`
}

// Forecast is the bounded prediction set for a symbol.
type Forecast struct {
	Symbol          string            `json:"symbol"`
	CurrentPrice    float64           `json:"current_price"`
	Volatility      float64           `json:"volatility"`
	ConfidenceLevel float64           `json:"confidence_level"`
	Horizons        []BoundedForecast `json:"horizons"`
	Timestamp       time.Time         `json:"timestamp"`
}
