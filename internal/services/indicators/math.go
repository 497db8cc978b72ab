package indicators

import "math"

// SMA returns the simple moving average of the last window values.
// Returns (0, false) when fewer than window values exist.
func SMA(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// EMA returns the exponential moving average series with the given span,
// seeded with the first value (alpha = 2/(span+1)).
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SampleStd returns the sample (n-1) standard deviation of values.
// Returns 0 when fewer than two values exist.
func SampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// RSI computes the 100-scale relative strength index over the last window
// deltas, using simple averages of gains and losses. A zero average loss with
// positive gains saturates at 100; a fully flat window resolves to the neutral
// midpoint 50. Returns (0, false) when fewer than window+1 values exist.
func RSI(values []float64, window int) (float64, bool) {
	if len(values) < window+1 {
		return 0, false
	}
	var gain, loss float64
	tail := values[len(values)-window-1:]
	for i := 1; i < len(tail); i++ {
		d := tail[i] - tail[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(window)
	loss /= float64(window)
	if loss == 0 {
		if gain == 0 {
			return 50, true
		}
		return 100, true
	}
	rs := gain / loss
	return 100 - 100/(1+rs), true
}

// MACD computes the MACD line and its signal line at the latest point.
func MACD(values []float64, fast, slow, signal int) (line, sig float64, ok bool) {
	if len(values) < slow {
		return 0, 0, false
	}
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	macd := make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sigEMA := EMA(macd, signal)
	return macd[len(macd)-1], sigEMA[len(sigEMA)-1], true
}

// Bollinger computes the middle band and the upper/lower bands at k standard
// deviations over the last window values.
func Bollinger(values []float64, window int, k float64) (mid, upper, lower float64, ok bool) {
	mid, ok = SMA(values, window)
	if !ok {
		return 0, 0, 0, false
	}
	sd := SampleStd(values[len(values)-window:])
	return mid, mid + k*sd, mid - k*sd, true
}
