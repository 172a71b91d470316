package temporal

import (
	"math"
)

// ComputeRMS computes the RMS envelope with the given frame and hop sizes.
// A signal shorter than one frame yields a single frame over all of it.
func ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	if len(signal) < frameSize {
		return []float64{frameRMS(signal)}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)
	for i := range numFrames {
		start := i * hopSize
		envelope[i] = frameRMS(signal[start : start+frameSize])
	}

	return envelope
}

func frameRMS(frame []float64) float64 {
	sumSquares := 0.0
	for _, s := range frame {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}

// SecondsToSamples converts a duration in seconds to a sample count, at least 1
func SecondsToSamples(seconds float64, sampleRate int) int {
	return max(int(math.Round(seconds*float64(sampleRate))), 1)
}
