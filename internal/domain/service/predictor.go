package service

import (
	"context"
	"fmt"

	"StockSage/internal/domain/models"
)

// Predictor produces per-horizon forecasts from an engineered feature vector.
type Predictor interface {
	Predict(ctx context.Context, symbol string, vector models.FeatureVector) (models.PredictionResult, error)
}

// ExternalError marks a failure of an external dependency (price provider or
// predictor) for one symbol. Batch operations skip the symbol and continue.
type ExternalError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// NewExternalError wraps err as an external dependency failure.
func NewExternalError(op, symbol string, err error) *ExternalError {
	return &ExternalError{Op: op, Symbol: symbol, Err: err}
}
