package interp

// curvatureFloor is the smallest upward curvature treated as a real vertex.
const curvatureFloor = 1e-32

// Parabolic fits a parabola through x[i-1], x[i], x[i+1] and returns the
// position and value of its vertex.
//
// The integer position and x[i] are returned unchanged when i is at either
// edge of x, when the three points are not convex (a valley is expected), or
// when the vertex lies more than one sample from i and overAdjust is false.
// i must be a valid index into x.
func Parabolic(x []float64, i int, overAdjust bool) (pos, val float64) {
	if i <= 0 || i >= len(x)-1 {
		return float64(i), x[i]
	}

	s0, s1, s2 := x[i-1], x[i], x[i+1]

	a := (s0+s2)/2 - s1
	if a < curvatureFloor {
		return float64(i), s1
	}

	b := s2 - s1 - a
	adj := -0.5 * b / a
	if !overAdjust && (adj > 1 || adj < -1) {
		adj = 0
	}

	return float64(i) + adj, (a*adj+b)*adj + s1
}
