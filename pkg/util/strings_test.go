package util

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"aapl":    "AAPL",
		" msft ":  "MSFT",
		"BRK.B":   "BRK.B",
		"\tnvda":  "NVDA",
		"":        "",
		"GOOGL":   "GOOGL",
		"  spy\n": "SPY",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
