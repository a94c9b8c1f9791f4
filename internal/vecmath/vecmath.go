package vecmath

import (
	"errors"
	"fmt"
	"math"
)

// #region errors

// ErrEmptyVector is returned when an operation receives a zero-length vector.
var ErrEmptyVector = errors.New("empty vector")

// ErrDimensionMismatch is returned when vectors used together disagree on dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// #endregion errors

// #region norm

// normEpsilon guards division when a vector has (near-)zero norm.
const normEpsilon = 1e-12

// Norm computes the L2 norm of a vector.
func Norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// Normalize returns v scaled to unit L2 norm. The divisor is norm+epsilon,
// so a zero vector yields a zero result rather than NaN.
func Normalize(v []float32) []float32 {
	n := float64(Norm(v)) + normEpsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// #endregion norm

// #region cosine

// Cosine computes the cosine similarity of two vectors, clamped to [-1, 1].
func Cosine(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na)*math.Sqrt(nb) + normEpsilon
	c := dot / denom
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return float32(c), nil
}

// RescaleCosine maps a cosine similarity in [-1, 1] to [0, 1].
func RescaleCosine(c float32) float32 {
	return 0.5 * (c + 1.0)
}

// #endregion cosine

// #region scalar

// Sigmoid maps a raw logit to (0, 1).
func Sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// Clamp01 clamps a value into [0, 1].
func Clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion scalar
