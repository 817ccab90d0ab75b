// Package vectormath provides the few vector operations the store and the
// classifier share. Vectors are assumed to be the same length; that is the
// caller's responsibility.
package vectormath

import "math"

// Dot returns the dot product of a and b. For L2-normalized vectors this is
// their cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// NormalizeL2 returns an L2-normalized copy of v. A zero vector is returned
// unchanged (copied) since it has no direction to preserve.
func NormalizeL2(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm2 float64
	for _, x := range v {
		norm2 += float64(x) * float64(x)
	}
	if norm2 == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(norm2)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
