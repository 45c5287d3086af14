package pulse

import "math"

// almostEqual absorbs float rounding in derived values (rates, sums of
// inexact durations). Window-max assertions stay exact: max never mixes
// values, it only selects one.
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
