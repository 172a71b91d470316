package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tutor/config"
)

// minFrameEnergy is the zero-lag autocorrelation below which a frame is silent
const minFrameEnergy = 1e-10

// PitchTracker estimates a per-frame fundamental frequency by autocorrelation.
// Unvoiced frames are reported as exactly 0 Hz.
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
type PitchTracker struct {
	params config.PitchConfig
	fft    *spectral.FFT
}

func NewPitchTracker(params config.PitchConfig) *PitchTracker {
	return &PitchTracker{
		params: params,
		fft:    spectral.NewFFT(),
	}
}

// Track returns one pitch value per frame. A signal shorter than one frame is
// zero-padded to a single frame.
func (pt *PitchTracker) Track(signal []float64, sampleRate int) []float64 {
	frameSize, hopSize := pt.params.FrameSize, pt.params.HopSize
	numFrames := spectral.FrameCount(len(signal), frameSize, hopSize)

	track := make([]float64, numFrames)
	frame := make([]float64, frameSize)

	for i := range numFrames {
		start := i * hopSize
		end := min(start+frameSize, len(signal))
		n := copy(frame, signal[start:end])
		clear(frame[n:])

		track[i] = pt.DetectFrame(frame, sampleRate)
	}

	return track
}

// DetectFrame returns the pitch of one frame in Hz, or 0 when the frame is
// silent, weakly periodic, or too short for the configured lag range.
func (pt *PitchTracker) DetectFrame(frame []float64, sampleRate int) float64 {
	if len(frame) == 0 || sampleRate <= 0 {
		return 0.0
	}

	minLag := int(math.Floor(float64(sampleRate) / pt.params.MaxFreq))
	maxLag := int(math.Ceil(float64(sampleRate) / pt.params.MinFreq))
	if minLag < 1 || maxLag >= len(frame) {
		return 0.0
	}

	centered := make([]float64, len(frame))
	mean := common.Mean(frame)
	for i, s := range frame {
		centered[i] = s - mean
	}

	acf := pt.fft.Autocorrelation(centered)
	if acf[0] < minFrameEnergy {
		return 0.0
	}

	bestLag := minLag
	for lag := minLag + 1; lag <= maxLag; lag++ {
		if acf[lag] > acf[bestLag] {
			bestLag = lag
		}
	}

	if acf[bestLag]/acf[0] < pt.params.VoicingThreshold {
		return 0.0
	}

	return float64(sampleRate) / float64(bestLag)
}

// Voiced returns the non-zero entries of a pitch track
func Voiced(track []float64) []float64 {
	voiced := make([]float64, 0, len(track))
	for _, f0 := range track {
		if f0 > 0 {
			voiced = append(voiced, f0)
		}
	}
	return voiced
}
