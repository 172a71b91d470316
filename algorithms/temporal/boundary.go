package temporal

import (
	"slices"

	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

// Boundary is the half-open sample range [Start, End) kept after trimming
type Boundary struct {
	Start       int  `json:"start"`
	End         int  `json:"end"`
	SpeechFound bool `json:"speech_found"`
}

// SpeechBoundaryDetector trims leading and trailing silence by frame energy
type SpeechBoundaryDetector struct {
	config config.BoundaryConfig
	logger logging.Logger
}

func NewSpeechBoundaryDetector(cfg config.BoundaryConfig) *SpeechBoundaryDetector {
	return &SpeechBoundaryDetector{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "speech_boundary_detector",
		}),
	}
}

// Detect finds the speech region of signal. Frames whose RMS exceeds the
// threshold are speech; the region runs from one frame before the first
// speech frame to one frame after the last, clamped to the signal. When no
// frame qualifies the whole signal is kept.
func (d *SpeechBoundaryDetector) Detect(signal []float64, sampleRate int) Boundary {
	full := Boundary{Start: 0, End: len(signal)}
	if len(signal) == 0 || sampleRate <= 0 {
		return full
	}

	frameSize := SecondsToSamples(d.config.FrameSeconds, sampleRate)
	hopSize := SecondsToSamples(d.config.HopSeconds, sampleRate)
	envelope := ComputeRMS(signal, frameSize, hopSize)

	first, last := -1, -1
	for i, rms := range envelope {
		if rms > d.config.EnergyThreshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 {
		d.logger.Debug("No speech frames above threshold, keeping full signal", logging.Fields{
			"frames":    len(envelope),
			"threshold": d.config.EnergyThreshold,
		})
		return full
	}

	start := max(first*hopSize-frameSize, 0)
	end := min(last*hopSize+2*frameSize, len(signal))

	return Boundary{Start: start, End: end, SpeechFound: true}
}

// Trim returns a copy of the speech region of signal along with its boundary.
// The result is only empty when signal is.
func (d *SpeechBoundaryDetector) Trim(signal []float64, sampleRate int) ([]float64, Boundary) {
	b := d.Detect(signal, sampleRate)
	trimmed := slices.Clone(signal[b.Start:b.End])

	d.logger.Debug("Trimmed silence", logging.Fields{
		"original_samples": len(signal),
		"kept_samples":     len(trimmed),
		"speech_found":     b.SpeechFound,
	})

	return trimmed, b
}
