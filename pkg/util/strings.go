package util

import "strings"

// NormalizeSymbol canonicalizes a user-supplied ticker: trimmed, uppercased.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
