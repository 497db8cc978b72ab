package usecase

import (
	"context"
	"errors"
	"math"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
)

const tradingDaysPerYear = 252.0

// Forecast enhances the raw model predictions with per-horizon price targets
// and volatility-scaled confidence bounds.
func (a *Advisor) Forecast(ctx context.Context, symbol string, confidenceLevel float64, period drepo.Period) (models.Forecast, error) {
	series, err := a.provider.GetSeries(ctx, symbol, period, drepo.Interval1Day)
	if err != nil {
		return models.Forecast{}, err
	}
	if len(series) == 0 {
		return models.Forecast{}, dservice.NewExternalError("fetch_series", symbol, errors.New("empty series"))
	}

	vec := a.engineer.Vector(series, symbol)
	pred, err := a.predictor.Predict(ctx, symbol, vec)
	if err != nil {
		return models.Forecast{}, dservice.NewExternalError("predict", symbol, err)
	}

	riskMetrics := a.riskCalc.Metrics(series.Returns())
	price := series.Last().Close
	vol := riskMetrics.Volatility
	z := zScore(confidenceLevel)

	horizons := make([]models.BoundedForecast, 0, len(models.ForecastHorizons))
	for _, h := range models.ForecastHorizons {
		f := pred.Horizon(h)
		target := price * (1 + f.PredictedChange)

		sigmaH := vol * math.Sqrt(float64(h)/tradingDaysPerYear)
		upper := target * (1 + z*sigmaH)
		lower := target * (1 - z*sigmaH)
		if lower < 0 {
			lower = 0
		}

		horizons = append(horizons, models.BoundedForecast{
			HorizonDays:     h,
			PredictedPrice:  target,
			PredictedChange: f.PredictedChange * 100,
			Confidence:      f.Confidence,
			UpperBound:      upper,
			LowerBound:      lower,
			Uncertainty:     sigmaH * (1 - f.Confidence/100),
		})
	}

	return models.Forecast{
		Symbol:          symbol,
		CurrentPrice:    price,
		Volatility:      vol,
		ConfidenceLevel: confidenceLevel,
		Horizons:        horizons,
		Timestamp:       a.now().UTC(),
	}, nil
}

// zScore maps a confidence level to its two-sided normal quantile. Only the
// two standard levels are supported; everything below 99% uses the 95% score.
func zScore(confidenceLevel float64) float64 {
	if confidenceLevel >= 0.99 {
		return 2.58
	}
	return 1.96
}
