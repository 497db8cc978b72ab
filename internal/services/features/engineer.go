package features

import (
	"math"

	"StockSage/internal/domain/models"
	"StockSage/internal/services/indicators"
)

// Declared group widths. The vector width is their sum and never varies with
// input length or quality.
const (
	WidthPrice      = 20
	WidthTechnical  = 20
	WidthVolume     = 5
	WidthVolatility = 4
	WidthMomentum   = 5
	WidthPattern    = 5
	WidthStructure  = 4
	WidthTime       = 5

	// VectorWidth is the model input contract.
	VectorWidth = WidthPrice + WidthTechnical + WidthVolume + WidthVolatility +
		WidthMomentum + WidthPattern + WidthStructure + WidthTime
)

type group struct {
	name    models.FeatureGroup
	width   int
	fill    float64
	compute func(models.PriceSeries) ([]float64, bool)
}

// Engineer builds the fixed-width feature vector the predictor expects.
// Vector is pure and never errors: groups that cannot be computed are replaced
// by their neutral fill and flagged as degraded.
type Engineer struct {
	groups []group
}

// NewEngineer creates a feature engineer with the standard group layout.
func NewEngineer() *Engineer {
	return &Engineer{groups: []group{
		{models.GroupPrice, WidthPrice, 0, priceFeatures},
		{models.GroupTechnical, WidthTechnical, 0, technicalFeatures},
		{models.GroupVolume, WidthVolume, 0, volumeFeatures},
		{models.GroupVolatility, WidthVolatility, 0, volatilityFeatures},
		{models.GroupMomentum, WidthMomentum, 0, momentumFeatures},
		{models.GroupPattern, WidthPattern, 0, patternFeatures},
		{models.GroupStructure, WidthStructure, 0, structureFeatures},
		{models.GroupTime, WidthTime, 0.5, timeFeatures},
	}}
}

// Vector engineers the feature vector for one symbol.
func (e *Engineer) Vector(series models.PriceSeries, symbol string) models.FeatureVector {
	values := make([]float64, 0, VectorWidth)
	var degraded []models.FeatureGroup

	for _, g := range e.groups {
		vals, ok := g.compute(series)
		if !ok {
			degraded = append(degraded, g.name)
			vals = nil
		}
		// Pad every group to its declared width; truncate is a programming
		// error but guarded the same way.
		block := make([]float64, g.width)
		for i := range block {
			if i < len(vals) {
				block[i] = sanitize(vals[i], g.fill)
			} else {
				block[i] = g.fill
			}
		}
		values = append(values, block...)
	}

	return models.FeatureVector{Symbol: symbol, Values: values, Degraded: degraded}
}

// sanitize clamps non-finite values to the group fill.
func sanitize(v, fill float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fill
	}
	return v
}

func priceFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 21 {
		return nil, false
	}
	last := s[len(s)-1]
	prev := s[len(s)-2]
	out := make([]float64, 0, 14)

	for _, w := range []int{5, 10, 20} {
		tail := s[len(s)-w:]
		hi, lo := tail[0].High, tail[0].Low
		for _, b := range tail[1:] {
			if b.High > hi {
				hi = b.High
			}
			if b.Low < lo {
				lo = b.Low
			}
		}
		pos := 0.5
		if hi > lo {
			pos = (last.Close - lo) / (hi - lo)
		}
		distHigh := 0.0
		if hi != 0 {
			distHigh = last.Close/hi - 1
		}
		distLow := 0.0
		if lo != 0 {
			distLow = last.Close/lo - 1
		}
		out = append(out, pos, distHigh, distLow)
	}

	gap := 0.0
	if prev.Close != 0 {
		gap = (last.Open - prev.Close) / prev.Close
	}
	rng := last.High - last.Low
	intraday := 0.0
	if last.Close != 0 {
		intraday = rng / last.Close
	}
	body, upperShadow, lowerShadow := 0.0, 0.0, 0.0
	if rng > 0 {
		body = math.Abs(last.Close-last.Open) / rng
		upperShadow = (last.High - math.Max(last.Open, last.Close)) / rng
		lowerShadow = (math.Min(last.Open, last.Close) - last.Low) / rng
	}
	out = append(out, gap, intraday, body, upperShadow, lowerShadow)
	return out, true
}

func technicalFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 51 {
		return nil, false
	}
	closes := s.Closes()
	last := closes[len(closes)-1]
	out := make([]float64, 0, 17)

	for _, w := range []int{5, 10, 20, 50} {
		ma, _ := indicators.SMA(closes, w)
		maPrev, _ := indicators.SMA(closes[:len(closes)-1], w)
		vsMA, slope := 0.0, 0.0
		if ma != 0 {
			vsMA = last/ma - 1
		}
		if maPrev != 0 {
			slope = ma/maPrev - 1
		}
		out = append(out, vsMA, slope)
	}

	rsi, _ := indicators.RSI(closes, 14)
	out = append(out, rsi/100)

	line, sig, _ := indicators.MACD(closes, 12, 26, 9)
	out = append(out, math.Tanh(line), math.Tanh(sig), math.Tanh(line-sig))

	mid, upper, lower, _ := indicators.Bollinger(closes, 20, 2)
	bbPos, bbWidth := 0.5, 0.0
	if upper > lower {
		bbPos = (last - lower) / (upper - lower)
	}
	if mid != 0 {
		bbWidth = (upper - lower) / mid
	}
	out = append(out, bbPos, bbWidth)

	k, d := stochastic(s, 14, 3)
	out = append(out, k/100, d/100)

	wr := williamsR(s, 14)
	out = append(out, (wr+100)/100)
	return out, true
}

func stochastic(s models.PriceSeries, window, smooth int) (k, d float64) {
	ks := make([]float64, 0, smooth)
	for off := smooth - 1; off >= 0; off-- {
		end := len(s) - off
		tail := s[end-window : end]
		hi, lo := tail[0].High, tail[0].Low
		for _, b := range tail[1:] {
			if b.High > hi {
				hi = b.High
			}
			if b.Low < lo {
				lo = b.Low
			}
		}
		kv := 50.0
		if hi > lo {
			kv = (s[end-1].Close - lo) / (hi - lo) * 100
		}
		ks = append(ks, kv)
	}
	return ks[len(ks)-1], indicators.Mean(ks)
}

func williamsR(s models.PriceSeries, window int) float64 {
	tail := s[len(s)-window:]
	hi, lo := tail[0].High, tail[0].Low
	for _, b := range tail[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	if hi <= lo {
		return -50
	}
	return (hi - s[len(s)-1].Close) / (hi - lo) * -100
}

func volumeFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 21 {
		return nil, false
	}
	vols := make([]float64, len(s))
	for i := range s {
		vols[i] = s[i].Volume
	}
	lastVol := vols[len(vols)-1]
	out := make([]float64, 0, 5)

	for _, w := range []int{5, 20} {
		avg := indicators.Mean(vols[len(vols)-w:])
		ratio := 1.0
		if avg > 0 {
			ratio = lastVol / avg
		}
		out = append(out, math.Log1p(ratio))
	}

	slope := polySlope(vols[len(vols)-10:])
	meanVol := indicators.Mean(vols[len(vols)-10:])
	if meanVol > 0 {
		slope /= meanVol
	}
	out = append(out, math.Tanh(slope))

	out = append(out, math.Tanh(obvDelta(s, 5)), math.Tanh(vptDelta(s, 5)))
	return out, true
}

// obvDelta returns the on-balance-volume change over the last n steps,
// normalized by the traded volume in the same span.
func obvDelta(s models.PriceSeries, n int) float64 {
	start := len(s) - n
	var delta, total float64
	for i := start; i < len(s); i++ {
		v := s[i].Volume
		total += v
		switch {
		case s[i].Close > s[i-1].Close:
			delta += v
		case s[i].Close < s[i-1].Close:
			delta -= v
		}
	}
	if total == 0 {
		return 0
	}
	return delta / total
}

// vptDelta returns the volume-price-trend change over the last n steps,
// normalized by the traded volume in the same span.
func vptDelta(s models.PriceSeries, n int) float64 {
	start := len(s) - n
	var delta, total float64
	for i := start; i < len(s); i++ {
		total += s[i].Volume
		if s[i-1].Close > 0 {
			delta += s[i].Volume * (s[i].Close/s[i-1].Close - 1)
		}
	}
	if total == 0 {
		return 0
	}
	return delta / total
}

func volatilityFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 21 {
		return nil, false
	}
	rets := s.Returns()
	shortVol := indicators.SampleStd(rets[len(rets)-5:]) * math.Sqrt(252)
	longVol := indicators.SampleStd(rets[len(rets)-20:]) * math.Sqrt(252)

	atr := averageTrueRange(s, 14)
	atrNorm := 0.0
	if c := s.Last().Close; c != 0 {
		atrNorm = atr / c
	}

	ratio := 1.0
	if longVol > 0 {
		ratio = shortVol / longVol
	}
	return []float64{shortVol, longVol, atrNorm, ratio}, true
}

func averageTrueRange(s models.PriceSeries, window int) float64 {
	start := len(s) - window
	var sum float64
	for i := start; i < len(s); i++ {
		tr := s[i].High - s[i].Low
		if i > 0 {
			tr = math.Max(tr, math.Abs(s[i].High-s[i-1].Close))
			tr = math.Max(tr, math.Abs(s[i].Low-s[i-1].Close))
		}
		sum += tr
	}
	return sum / float64(window)
}

func momentumFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 12 {
		return nil, false
	}
	closes := s.Closes()
	roc := func(k int) float64 {
		base := closes[len(closes)-1-k]
		if base == 0 {
			return 0
		}
		return closes[len(closes)-1]/base - 1
	}
	rocPrev := 0.0
	if base := closes[len(closes)-3]; base != 0 {
		rocPrev = closes[len(closes)-2]/base - 1
	}
	momentum := 0.0
	if base := closes[len(closes)-11]; base != 0 {
		momentum = closes[len(closes)-1]/base - 1
	}
	return []float64{roc(1), roc(5), roc(10), momentum, roc(1) - rocPrev}, true
}

func patternFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 2 {
		return nil, false
	}
	last := s[len(s)-1]
	prev := s[len(s)-2]

	rng := last.High - last.Low
	body := math.Abs(last.Close - last.Open)

	doji := 0.0
	if rng > 0 && body/rng < 0.1 {
		doji = 1
	}
	hammer := 0.0
	if rng > 0 {
		lowerShadow := math.Min(last.Open, last.Close) - last.Low
		upperShadow := last.High - math.Max(last.Open, last.Close)
		if lowerShadow > 2*body && upperShadow < body {
			hammer = 1
		}
	}
	engulfing := 0.0
	prevBody := math.Abs(prev.Close - prev.Open)
	bullishEngulf := last.Close > last.Open && prev.Close < prev.Open &&
		last.Close > prev.Open && last.Open < prev.Close
	bearishEngulf := last.Close < last.Open && prev.Close > prev.Open &&
		last.Close < prev.Open && last.Open > prev.Close
	if body > prevBody && (bullishEngulf || bearishEngulf) {
		engulfing = 1
	}
	gapUp, gapDown := 0.0, 0.0
	if last.Open > prev.Close {
		gapUp = 1
	}
	if last.Open < prev.Close {
		gapDown = 1
	}
	return []float64{doji, hammer, engulfing, gapUp, gapDown}, true
}

func structureFeatures(s models.PriceSeries) ([]float64, bool) {
	if len(s) < 20 {
		return nil, false
	}
	last := s.Last().Close
	if last == 0 {
		return nil, false
	}

	// Resistance: the weakest of the recent rolling-window highs. Support:
	// the strongest of the recent rolling-window lows.
	resistance, support := math.Inf(1), math.Inf(-1)
	for off := 0; off < 10; off++ {
		end := len(s) - off
		tail := s[end-10 : end]
		hi, lo := tail[0].High, tail[0].Low
		for _, b := range tail[1:] {
			if b.High > hi {
				hi = b.High
			}
			if b.Low < lo {
				lo = b.Low
			}
		}
		resistance = math.Min(resistance, hi)
		support = math.Max(support, lo)
	}

	closes := s.Closes()[len(s)-20:]
	slope := polySlope(closes)
	if closes[0] != 0 {
		slope /= closes[0]
	}
	r2 := fitR2(closes)

	return []float64{
		(resistance - last) / last,
		(last - support) / last,
		slope,
		r2,
	}, true
}

// polySlope fits y = a + b*x over 0..n-1 by least squares and returns b.
func polySlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

// fitR2 returns the squared correlation between the series and time.
func fitR2(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	mx, my := indicators.Mean(xs), indicators.Mean(ys)
	var cov, vx, vy float64
	for i := range ys {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	return r * r
}

func timeFeatures(s models.PriceSeries) ([]float64, bool) {
	if !s.HasTimestamps() {
		return nil, false
	}
	ts := s.Last().Timestamp

	out := []float64{
		float64(ts.Hour()) / 24,
		float64(ts.Weekday()) / 6,
		float64(ts.Month()) / 12,
	}

	if len(s) >= 20 {
		tail := s[len(s)-20:]
		hiIdx, loIdx := 0, 0
		for i, b := range tail {
			if b.High >= tail[hiIdx].High {
				hiIdx = i
			}
			if b.Low <= tail[loIdx].Low {
				loIdx = i
			}
		}
		out = append(out,
			float64(len(tail)-1-hiIdx)/20,
			float64(len(tail)-1-loIdx)/20,
		)
	} else {
		out = append(out, 0.5, 0.5)
	}
	return out, true
}
