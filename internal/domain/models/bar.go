package models

import "time"

// PriceBar represents a single OHLCV record for one trading interval.
type PriceBar struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// PriceSeries is an ordered (timestamp ascending) sequence of bars for one symbol.
type PriceSeries []PriceBar

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// Last returns the most recent bar, or a zero bar when the series is empty.
func (s PriceSeries) Last() PriceBar {
	if len(s) == 0 {
		return PriceBar{}
	}
	return s[len(s)-1]
}

// Returns derives the simple return series r_t = C_t/C_{t-1} - 1.
// Bars with a non-positive previous close contribute a zero return.
// Returns nil when fewer than two bars exist.
func (s PriceSeries) Returns() []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Close
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, s[i].Close/prev-1)
	}
	return out
}

// HasTimestamps reports whether the series carries real timestamp granularity.
// Series loaded from sources without time information have zero timestamps and
// time-derived features fall back to neutral midpoints.
func (s PriceSeries) HasTimestamps() bool {
	return len(s) > 0 && !s[len(s)-1].Timestamp.IsZero()
}
