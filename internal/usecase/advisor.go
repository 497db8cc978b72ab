package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
	"StockSage/internal/services/features"
	"StockSage/internal/services/indicators"
	"StockSage/internal/services/risk"
	"StockSage/pkg/config"
	applogger "StockSage/pkg/logger"
)

// Advisor runs the full analysis pipeline for a symbol and synthesizes a
// recommendation out of indicator votes, model forecasts and risk metrics.
type Advisor struct {
	provider  drepo.PriceProvider
	predictor dservice.Predictor
	analyzer  *indicators.Analyzer
	engineer  *features.Engineer
	riskCalc  *risk.Calculator
	sink      drepo.RecommendationSink
	metrics   drepo.Metrics
	log       *applogger.Logger

	cfg      config.Analysis
	universe []string
	now      func() time.Time
}

// NewAdvisor assembles the advisor from configuration and its dependencies.
// Sink and metrics may be nil; recording is then skipped.
func NewAdvisor(
	cfg *config.Config,
	provider drepo.PriceProvider,
	predictor dservice.Predictor,
	sink drepo.RecommendationSink,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *Advisor {
	indCfg := indicators.DefaultConfig()
	indCfg.MATrendConfidence = cfg.Analysis.Confidence.MATrend
	indCfg.RSIConfidence = cfg.Analysis.Confidence.RSI
	indCfg.MACDConfidence = cfg.Analysis.Confidence.MACD
	indCfg.BollingerConfidence = cfg.Analysis.Confidence.Bollinger
	indCfg.VolumeConfidence = cfg.Analysis.Confidence.Volume

	return &Advisor{
		provider:  provider,
		predictor: predictor,
		analyzer:  indicators.NewAnalyzer(indCfg),
		engineer:  features.NewEngineer(),
		riskCalc: risk.NewCalculator(risk.Config{
			RiskFreeRate:      cfg.Analysis.RiskFreeRate,
			MarketReturn:      cfg.Analysis.MarketReturn,
			MarketVolatility:  cfg.Analysis.MarketVolatility,
			MarketCorrelation: cfg.Analysis.MarketCorrelation,
		}),
		sink:     sink,
		metrics:  metrics,
		log:      log,
		cfg:      cfg.Analysis,
		universe: cfg.Provider.Symbols,
		now:      time.Now,
	}
}

// Analyze fetches history, computes every analysis stage and issues a
// recommendation. Provider and predictor failures surface as typed external
// errors; short history degrades individual stages instead of failing.
func (a *Advisor) Analyze(ctx context.Context, symbol string, tolerance models.RiskTier, period drepo.Period) (models.Analysis, error) {
	start := a.now()

	series, err := a.provider.GetSeries(ctx, symbol, period, drepo.Interval1Day)
	if err != nil {
		return models.Analysis{}, err
	}
	if len(series) == 0 {
		return models.Analysis{}, dservice.NewExternalError("fetch_series", symbol, errors.New("empty series"))
	}

	inds := a.analyzer.Analyze(series)
	if len(inds) < 5 && a.log != nil {
		a.log.Warn("indicators omitted for short history",
			applogger.String("symbol", symbol),
			applogger.Int("computed", len(inds)),
			applogger.Int("bars", len(series)),
		)
	}

	vec := a.engineer.Vector(series, symbol)
	if len(vec.Degraded) > 0 && a.log != nil {
		names := make([]string, len(vec.Degraded))
		for i, g := range vec.Degraded {
			names[i] = string(g)
		}
		a.log.Warn("feature groups degraded to neutral fill",
			applogger.String("symbol", symbol),
			applogger.Strings("groups", names),
		)
	}

	riskMetrics := a.riskCalc.Metrics(series.Returns())
	if riskMetrics.Degraded && a.log != nil {
		a.log.Warn("risk metrics defaulted for short history",
			applogger.String("symbol", symbol),
			applogger.Int("bars", len(series)),
		)
	}

	pred, err := a.predictor.Predict(ctx, symbol, vec)
	if err != nil {
		return models.Analysis{}, dservice.NewExternalError("predict", symbol, err)
	}

	rec := a.synthesize(symbol, inds, pred, riskMetrics, tolerance)
	a.record(ctx, rec, series.Last().Close)

	if a.metrics != nil {
		a.metrics.RecordLatency("analyze", a.now().Sub(start).Seconds())
	}
	return models.Analysis{
		Symbol:         symbol,
		Indicators:     inds,
		Features:       vec,
		Prediction:     pred,
		Risk:           riskMetrics,
		Recommendation: rec,
	}, nil
}

// synthesize turns indicator votes, the 1-day forecast and the risk tier into
// an actionable recommendation.
func (a *Advisor) synthesize(
	symbol string,
	inds []models.TechnicalIndicator,
	pred models.PredictionResult,
	riskMetrics models.RiskMetrics,
	tolerance models.RiskTier,
) models.Recommendation {
	var bullish, bearish float64
	for _, ind := range inds {
		switch ind.Signal {
		case models.SignalBullish:
			bullish += ind.Confidence
		case models.SignalBearish:
			bearish += ind.Confidence
		}
	}

	day := pred.Horizon(1)
	change := day.PredictedChange

	action := models.ActionHold
	switch {
	case bullish > bearish && change > a.cfg.ActionThreshold:
		action = models.ActionBuy
	case bearish > bullish && change < -a.cfg.ActionThreshold:
		action = models.ActionSell
	}

	confidence := 50.0
	if action != models.ActionHold && len(inds) > 0 {
		side := bullish
		if action == models.ActionSell {
			side = bearish
		}
		confidence = side / float64(len(inds)) * day.Confidence
		if confidence > 95 {
			confidence = 95
		}
	}

	tier := risk.ClassifyTier(riskMetrics)
	if action != models.ActionHold && tier != tolerance {
		confidence *= a.cfg.MismatchPenalty
	}

	issued := a.now().UTC()
	return models.Recommendation{
		Symbol:     symbol,
		Action:     action,
		RiskTier:   tier,
		Confidence: confidence,
		Reasoning:  reasoning(action, inds, change),
		IssuedAt:   issued,
		ValidUntil: issued.Add(24 * time.Hour),
	}
}

// reasoning names the strongest supporting indicators and the projected move.
func reasoning(action models.Action, inds []models.TechnicalIndicator, change float64) string {
	if action == models.ActionHold {
		return "HOLD - Mixed signals with no clear directional bias"
	}

	want := models.SignalBullish
	label := "bullish"
	if action == models.ActionSell {
		want = models.SignalBearish
		label = "bearish"
	}

	supporting := make([]models.TechnicalIndicator, 0, len(inds))
	for _, ind := range inds {
		if ind.Signal == want {
			supporting = append(supporting, ind)
		}
	}
	sort.SliceStable(supporting, func(i, j int) bool {
		return supporting[i].Confidence > supporting[j].Confidence
	})

	top := make([]string, 0, 3)
	for i, ind := range supporting {
		if i == 3 {
			break
		}
		top = append(top, ind.Name)
	}

	return fmt.Sprintf("%s signal based on %d %s indicators: %s. Model projects %+.1f%% movement in 1 day.",
		action, len(supporting), label, strings.Join(top, ", "), change*100)
}

// record publishes the recommendation best-effort. Sink failures are logged
// and counted, never returned.
func (a *Advisor) record(ctx context.Context, rec models.Recommendation, lastPrice float64) {
	if a.metrics != nil {
		a.metrics.RecordRecommendation(string(rec.Action), string(rec.RiskTier))
		a.metrics.RecordLastPrice(rec.Symbol, lastPrice)
	}
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(ctx, rec); err != nil {
		if a.log != nil {
			a.log.Warn("recommendation record failed",
				applogger.String("symbol", rec.Symbol),
				applogger.Error(err),
			)
		}
		if a.metrics != nil {
			a.metrics.RecordError("sink")
		}
	}
}

// PositionSize analyzes a symbol's risk profile and sizes a position in it.
func (a *Advisor) PositionSize(ctx context.Context, symbol string, portfolioValue float64, tolerance models.RiskTier) (models.PositionSize, models.RiskMetrics, error) {
	series, err := a.provider.GetSeries(ctx, symbol, drepo.Period1Year, drepo.Interval1Day)
	if err != nil {
		return models.PositionSize{}, models.RiskMetrics{}, err
	}
	m := a.riskCalc.Metrics(series.Returns())
	return a.riskCalc.PositionSize(portfolioValue, m, tolerance), m, nil
}

// Latest returns the most recent bar for symbol.
func (a *Advisor) Latest(ctx context.Context, symbol string) (models.PriceBar, error) {
	return a.provider.GetLatest(ctx, symbol)
}

// Close releases the recommendation sink.
func (a *Advisor) Close() {
	if a.sink != nil {
		_ = a.sink.Close()
	}
}
