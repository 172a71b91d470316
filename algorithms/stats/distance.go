package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceFunction measures the distance between two equal-length vectors
type DistanceFunction func(a, b []float64) float64

// EuclideanDistance returns the L2 distance. Mismatched lengths panic.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("stats: vector lengths differ (%d vs %d)", len(a), len(b)))
	}

	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. The vectors are truncated to the shorter length; a zero-norm
// side yields 0.
func CosineSimilarity(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0.0
	}
	a, b = a[:n], b[:n]

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return math.Max(-1, math.Min(1, floats.Dot(a, b)/(normA*normB)))
}

// UnitCosineSimilarity remaps CosineSimilarity from [-1, 1] to [0, 1]. A
// zero-norm side yields 0 rather than the 0.5 midpoint.
func UnitCosineSimilarity(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 || floats.Norm(a[:n], 2) == 0 || floats.Norm(b[:n], 2) == 0 {
		return 0.0
	}
	return (CosineSimilarity(a, b) + 1) / 2
}

// Flatten concatenates the rows of a matrix
func Flatten(matrix [][]float64) []float64 {
	size := 0
	for _, row := range matrix {
		size += len(row)
	}

	flat := make([]float64, 0, size)
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	return flat
}
