// ABOUTME: Vector math shared by ingestion and search
// ABOUTME: Overflow-safe norms, unit normalisation and dot products
package embedding

import "math"

// Norm returns the L2 norm of v. Values are scaled by the largest magnitude
// first so finite vectors never overflow to +Inf.
func Norm(v []float64) float64 {
	var peak float64
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		peak = math.Max(peak, math.Abs(x))
	}
	if peak == 0 || math.IsInf(peak, 0) {
		return peak
	}
	var sum float64
	for _, x := range v {
		s := x / peak
		sum += s * s
	}
	return peak * math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector is returned as a
// copy, unchanged.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	NormalizeInPlace(out)
	return out
}

// NormalizeInPlace scales v to unit length and reports whether it did.
// Zero-norm vectors are left untouched.
func NormalizeInPlace(v []float64) bool {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) {
		return false
	}
	if math.IsInf(n, 0) {
		// finite entries whose norm overflows: scale into range first
		if !scaleToPeak(v) {
			return false
		}
		n = Norm(v)
	}
	for i := range v {
		v[i] /= n
	}
	return true
}

// scaleToPeak divides v by its largest magnitude. It reports false when v
// holds an infinite entry.
func scaleToPeak(v []float64) bool {
	var peak float64
	for _, x := range v {
		if math.IsInf(x, 0) {
			return false
		}
		peak = math.Max(peak, math.Abs(x))
	}
	for i := range v {
		v[i] /= peak
	}
	return true
}

// Dot returns the inner product of a and b over their common prefix.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
