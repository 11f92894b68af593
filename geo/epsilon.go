package geo

import "math"

// floatEpsilon is the slack used when comparing distances: the float32
// machine epsilon, applied as an absolute difference. At the scale of
// ApproximateDistance it is far below one fixed-point unit, so it only
// absorbs floating-point noise between equal distances.
const floatEpsilon = 1.19209290e-07

// EpsilonCompare reports whether two distances are equal within the
// project-wide tolerance.
func EpsilonCompare(d1 float64, d2 float64) bool {
	return math.Abs(d1-d2) < floatEpsilon
}
