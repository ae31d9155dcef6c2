package depgraph

import "emodccdl/internal/ccdl"

// compatible reports whether two restrictions can select the same people.
// They conflict only when they name the same key with different values; a
// wildcard or missing restriction is compatible with everything.
func compatible(from, to []ccdl.Pair) bool {
	for _, f := range from {
		for _, t := range to {
			if f.Key == t.Key && f.Value != t.Value {
				return false
			}
		}
	}
	return true
}

// overlaps reports whether the half-open intervals [fromStart, fromEnd) and
// [toStart, toEnd) intersect.
func overlaps(fromStart, fromEnd, toStart, toEnd float64) bool {
	return !(fromEnd <= toStart || fromStart >= toEnd)
}
