package analytics

import (
	"context"
	"fmt"
	"strconv"

	"StockSage/internal/domain/models"
	"StockSage/internal/services/features"
	"StockSage/pkg/config"
)

// HTTPPredictor calls the external model service for per-horizon forecasts.
type HTTPPredictor struct {
	*HTTPServiceBase
	retries int
}

// NewHTTPPredictor creates a predictor client from config.
func NewHTTPPredictor(cfg *config.Config) *HTTPPredictor {
	retries := cfg.Predictor.Retries
	if retries <= 0 {
		retries = 1
	}
	return &HTTPPredictor{
		HTTPServiceBase: NewHTTPServiceBase(cfg),
		retries:         retries,
	}
}

type predictRequest struct {
	Symbol   string    `json:"symbol"`
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Predictions map[string]struct {
		PredictedChange float64 `json:"predicted_change"`
		Confidence      float64 `json:"confidence"`
	} `json:"predictions"`
}

// Predict posts the engineered feature vector and decodes the forecast map.
// A vector of the wrong width is a caller bug, not a degradable condition.
func (p *HTTPPredictor) Predict(ctx context.Context, symbol string, vector models.FeatureVector) (models.PredictionResult, error) {
	if vector.Width() != features.VectorWidth {
		return nil, fmt.Errorf("feature vector width %d, want %d", vector.Width(), features.VectorWidth)
	}

	var resp predictResponse
	err := p.PostJSONWithRetry(ctx, "/predict", predictRequest{
		Symbol:   symbol,
		Features: vector.Values,
	}, &resp, p.retries)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, err)
	}

	out := make(models.PredictionResult, len(resp.Predictions))
	for k, v := range resp.Predictions {
		h, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[h] = models.HorizonForecast{
			PredictedChange: v.PredictedChange,
			Confidence:      v.Confidence,
		}
	}
	return out, nil
}
