package indicators

import (
	"fmt"

	"StockSage/internal/domain/models"
)

// Config carries the per-indicator signal confidences and thresholds.
// Confidences are fixed constants of the scoring model, not fitted values.
type Config struct {
	MATrendConfidence   float64
	MixedConfidence     float64
	RSIConfidence       float64
	MACDConfidence      float64
	BollingerConfidence float64
	VolumeConfidence    float64
	VolumeThreshold     float64
	RSIOverbought       float64
	RSIOversold         float64
}

// DefaultConfig returns the calibrated indicator configuration.
func DefaultConfig() Config {
	return Config{
		MATrendConfidence:   0.8,
		MixedConfidence:     0.5,
		RSIConfidence:       0.7,
		MACDConfidence:      0.75,
		BollingerConfidence: 0.65,
		VolumeConfidence:    0.6,
		VolumeThreshold:     1.5,
		RSIOverbought:       70,
		RSIOversold:         30,
	}
}

// Analyzer derives the fixed technical indicator set from price history.
// Analyze is pure: same series in, same indicators out.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes every indicator whose minimum window is satisfied by the
// series. Indicators with insufficient history are omitted, never faked.
func (a *Analyzer) Analyze(series models.PriceSeries) []models.TechnicalIndicator {
	closes := series.Closes()
	out := make([]models.TechnicalIndicator, 0, 5)

	if ind, ok := a.maTrend(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := a.rsi(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := a.macd(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := a.bollinger(closes); ok {
		out = append(out, ind)
	}
	if ind, ok := a.volume(series); ok {
		out = append(out, ind)
	}
	return out
}

func (a *Analyzer) maTrend(closes []float64) (models.TechnicalIndicator, bool) {
	sma50, ok := SMA(closes, 50)
	if !ok {
		return models.TechnicalIndicator{}, false
	}
	sma20, _ := SMA(closes, 20)
	price := closes[len(closes)-1]

	signal := models.SignalNeutral
	conf := a.cfg.MixedConfidence
	desc := "Mixed trend signals"
	switch {
	case price > sma20 && sma20 > sma50:
		signal = models.SignalBullish
		conf = a.cfg.MATrendConfidence
		desc = "Price above both moving averages, uptrend intact"
	case price < sma20 && sma20 < sma50:
		signal = models.SignalBearish
		conf = a.cfg.MATrendConfidence
		desc = "Price below both moving averages, downtrend intact"
	}

	value := 0.0
	if sma20 != 0 {
		value = (price - sma20) / sma20 * 100
	}
	return models.TechnicalIndicator{
		Name:        "Moving Average Trend",
		Value:       value,
		Signal:      signal,
		Description: desc,
		Confidence:  conf,
	}, true
}

func (a *Analyzer) rsi(closes []float64) (models.TechnicalIndicator, bool) {
	rsi, ok := RSI(closes, 14)
	if !ok {
		return models.TechnicalIndicator{}, false
	}
	signal := models.SignalNeutral
	desc := "RSI in neutral range"
	switch {
	case rsi > a.cfg.RSIOverbought:
		signal = models.SignalBearish
		desc = fmt.Sprintf("RSI %.1f indicates overbought conditions", rsi)
	case rsi < a.cfg.RSIOversold:
		signal = models.SignalBullish
		desc = fmt.Sprintf("RSI %.1f indicates oversold conditions", rsi)
	}
	return models.TechnicalIndicator{
		Name:        "RSI",
		Value:       rsi,
		Signal:      signal,
		Description: desc,
		Confidence:  a.cfg.RSIConfidence,
	}, true
}

func (a *Analyzer) macd(closes []float64) (models.TechnicalIndicator, bool) {
	line, sig, ok := MACD(closes, 12, 26, 9)
	if !ok {
		return models.TechnicalIndicator{}, false
	}
	signal := models.SignalNeutral
	desc := "MACD flat"
	switch {
	case line > sig:
		signal = models.SignalBullish
		desc = "MACD line above signal line, bullish momentum"
	case line < sig:
		signal = models.SignalBearish
		desc = "MACD line below signal line, bearish momentum"
	}
	return models.TechnicalIndicator{
		Name:        "MACD",
		Value:       line - sig,
		Signal:      signal,
		Description: desc,
		Confidence:  a.cfg.MACDConfidence,
	}, true
}

func (a *Analyzer) bollinger(closes []float64) (models.TechnicalIndicator, bool) {
	mid, upper, lower, ok := Bollinger(closes, 20, 2)
	if !ok {
		return models.TechnicalIndicator{}, false
	}
	price := closes[len(closes)-1]

	signal := models.SignalNeutral
	desc := "Price within Bollinger bands"
	switch {
	case price > upper:
		signal = models.SignalBearish
		desc = "Price above upper Bollinger band, potential reversal down"
	case price < lower:
		signal = models.SignalBullish
		desc = "Price below lower Bollinger band, potential reversal up"
	}

	value := 0.0
	if mid != 0 {
		value = (price - mid) / mid * 100
	}
	return models.TechnicalIndicator{
		Name:        "Bollinger Bands",
		Value:       value,
		Signal:      signal,
		Description: desc,
		Confidence:  a.cfg.BollingerConfidence,
	}, true
}

func (a *Analyzer) volume(series models.PriceSeries) (models.TechnicalIndicator, bool) {
	if len(series) < 20 {
		return models.TechnicalIndicator{}, false
	}
	var sum float64
	for _, b := range series[len(series)-20:] {
		sum += b.Volume
	}
	avg := sum / 20

	ratio := 1.0
	if avg > 0 {
		ratio = series.Last().Volume / avg
	}

	signal := models.SignalNeutral
	desc := "Volume near average"
	if ratio > a.cfg.VolumeThreshold {
		last := series[len(series)-1].Close
		prev := series[len(series)-2].Close
		if last >= prev {
			signal = models.SignalBullish
			desc = fmt.Sprintf("Volume %.1fx average confirming upward move", ratio)
		} else {
			signal = models.SignalBearish
			desc = fmt.Sprintf("Volume %.1fx average confirming downward move", ratio)
		}
	}
	return models.TechnicalIndicator{
		Name:        "Volume Analysis",
		Value:       ratio,
		Signal:      signal,
		Description: desc,
		Confidence:  a.cfg.VolumeConfidence,
	}, true
}
