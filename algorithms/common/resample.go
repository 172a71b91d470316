package common

import (
	"math"
)

// Resample converts signal from originalRate to targetRate by linear
// interpolation. When downsampling, a centered moving average one source
// period wide is applied first to limit aliasing. Equal rates return a copy.
func Resample(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 {
		return []float64{}
	}
	if originalRate == targetRate {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}

	ratio := float64(originalRate) / float64(targetRate)
	source := signal
	if ratio > 1 {
		source = movingAverage(signal, int(math.Ceil(ratio)))
	}

	newLength := max(int(float64(len(signal))/ratio), 1)
	resampled := make([]float64, newLength)
	for i := range resampled {
		resampled[i] = interpolateLinear(source, float64(i)*ratio)
	}

	return resampled
}

// interpolateLinear reads data at a fractional index, clamping at the ends
func interpolateLinear(data []float64, index float64) float64 {
	if index <= 0 {
		return data[0]
	}
	last := len(data) - 1
	if index >= float64(last) {
		return data[last]
	}

	i := int(index)
	frac := index - float64(i)
	return data[i] + frac*(data[i+1]-data[i])
}

// movingAverage applies a centered boxcar of the given width
func movingAverage(data []float64, width int) []float64 {
	if width <= 1 {
		return data
	}

	half := width / 2
	out := make([]float64, len(data))

	// running sum over [i-half, i+half]
	sum := 0.0
	count := 0
	for j := 0; j <= half && j < len(data); j++ {
		sum += data[j]
		count++
	}

	for i := range data {
		out[i] = sum / float64(count)

		if add := i + half + 1; add < len(data) {
			sum += data[add]
			count++
		}
		if drop := i - half; drop >= 0 {
			sum -= data[drop]
			count--
		}
	}

	return out
}
