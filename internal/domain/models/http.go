package models

// AnalyzeRequest asks for a full analysis of one symbol.
type AnalyzeRequest struct {
	Symbol    string `json:"symbol" query:"symbol" validate:"required,min=1,max=12"`
	Tolerance string `json:"tolerance" query:"tolerance" default:"regular" validate:"oneof=conservative regular high-risk"`
	Period    string `json:"period" query:"period" default:"1y"`
}

// RecommendationsRequest asks for the top recommendations across the universe.
type RecommendationsRequest struct {
	Tolerance string   `json:"tolerance" query:"tolerance" default:"regular" validate:"oneof=conservative regular high-risk"`
	Max       int      `json:"max" query:"max" default:"5" validate:"gte=1,lte=20"`
	Exclude   []string `json:"exclude,omitempty" query:"exclude"`
}

// RecentRecommendationsRequest asks for the recorded history of one symbol.
type RecentRecommendationsRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required,min=1,max=12"`
	Limit  int    `json:"limit" query:"limit" default:"20" validate:"gte=1,lte=100"`
}

// ForecastRequest asks for bounded price forecasts for one symbol.
type ForecastRequest struct {
	Symbol     string  `json:"symbol" query:"symbol" validate:"required,min=1,max=12"`
	Confidence float64 `json:"confidence" query:"confidence" default:"0.95" validate:"gt=0,lt=1"`
	Period     string  `json:"period" query:"period" default:"1y"`
}

// PositionSizeRequest asks how much of a portfolio to allocate to a symbol.
type PositionSizeRequest struct {
	Symbol         string  `json:"symbol" query:"symbol" validate:"required,min=1,max=12"`
	PortfolioValue float64 `json:"portfolio_value" query:"portfolio_value" validate:"required,gt=0"`
	Tolerance      string  `json:"tolerance" query:"tolerance" default:"regular" validate:"oneof=conservative regular high-risk"`
}
