package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Basic statistics shared by the feature extractors and scorers, backed by gonum

// constantThreshold is the standard deviation below which a series is treated as constant
const constantThreshold = 1e-10

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MeanStdDev returns the mean and the population standard deviation
func MeanStdDev(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0.0, 0.0
	}
	return stat.PopMeanStdDev(data, nil)
}

// Variance calculates the population variance
func Variance(data []float64) float64 {
	_, std := MeanStdDev(data)
	return std * std
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is ~0
func CoefficientOfVariation(data []float64) float64 {
	mean, std := MeanStdDev(data)
	if math.Abs(mean) < constantThreshold {
		return 0.0
	}
	return std / math.Abs(mean)
}

// Percentile calculates the p-th percentile (p between 0 and 1)
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// ZNormalize returns data shifted to zero mean and scaled to unit population
// variance. Constant data maps to all zeros.
func ZNormalize(data []float64) []float64 {
	normalized := make([]float64, len(data))
	if len(data) == 0 {
		return normalized
	}

	mean, std := MeanStdDev(data)
	if std < constantThreshold {
		return normalized
	}

	for i, val := range data {
		normalized[i] = (val - mean) / std
	}
	return normalized
}

// ZNormalizeColumns z-normalizes each column of a frames x coefficients
// matrix across all frames, returning a new matrix.
func ZNormalizeColumns(matrix [][]float64) [][]float64 {
	result := make([][]float64, len(matrix))
	if len(matrix) == 0 {
		return result
	}

	numCols := len(matrix[0])
	for i := range result {
		result[i] = make([]float64, numCols)
	}

	column := make([]float64, len(matrix))
	for c := range numCols {
		for r, row := range matrix {
			column[r] = row[c]
		}
		for r, val := range ZNormalize(column) {
			result[r][c] = val
		}
	}

	return result
}

// SafeRatio returns min(a, b) / max(a, b, eps). The result is order
// independent and lies in [0, 1] for non-negative inputs.
func SafeRatio(a, b, eps float64) float64 {
	return math.Min(a, b) / math.Max(math.Max(a, b), eps)
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
