package decode

import (
	"math"
	"strconv"
	"strings"
)

// formatFloat renders f the way the campaign tooling has always printed
// floats: shortest round-trip digits, always with a fractional part or an
// exponent ("100.0", "7.000000000000001", "1e-05").
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
