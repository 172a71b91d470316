package pronunciation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tutor/algorithms/speech"
	"github.com/RyanBlaney/sonido-tutor/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tutor/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tutor/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
	"github.com/RyanBlaney/sonido-tutor/transcode"
)

// FeatureSet holds everything the scorer compares. The MFCC, pitch and formant
// arrays use different frame grids; each is only compared with the same array
// of another FeatureSet.
type FeatureSet struct {
	SampleRate   int          `json:"sample_rate"`
	Duration     float64      `json:"duration"` // seconds
	RMSEnergy    float64      `json:"rms_energy"`
	MFCC         [][]float64  `json:"mfcc"`          // frames x coefficients, z-normalized per coefficient
	PitchTrack   []float64    `json:"pitch_track"`   // Hz per frame, 0 = unvoiced
	FormantTrack [][3]float64 `json:"formant_track"` // F1, F2, F3 in Hz per frame

	// Silent is set when no MFCC frame reaches the silence threshold. The
	// MFCC matrix of such a recording carries no information.
	Silent bool `json:"silent"`
}

// FeatureExtractor computes a FeatureSet from mono PCM
type FeatureExtractor struct {
	config      config.FeatureConfig
	maxDuration time.Duration

	stft     *spectral.STFT
	pitch    *tonal.PitchTracker
	formants *speech.FormantTracker
	logger   logging.Logger
}

// NewFeatureExtractor creates an extractor with a Gaussian formant smoother
// of the configured width. maxDuration <= 0 disables the length check.
func NewFeatureExtractor(cfg config.FeatureConfig, maxDuration time.Duration) *FeatureExtractor {
	var smoother speech.Smoother
	if g := speech.NewGaussianSmoother(cfg.Formant.SmoothingBins); g != nil {
		smoother = g
	}
	return NewFeatureExtractorWithSmoother(cfg, maxDuration, smoother)
}

// NewFeatureExtractorWithSmoother creates an extractor with a caller-supplied
// spectral smoother. A nil smoother yields zero-filled formant tracks.
func NewFeatureExtractorWithSmoother(cfg config.FeatureConfig, maxDuration time.Duration, smoother speech.Smoother) *FeatureExtractor {
	return &FeatureExtractor{
		config:      cfg,
		maxDuration: maxDuration,
		stft:        spectral.NewSTFT(),
		pitch:       tonal.NewPitchTracker(cfg.Pitch),
		formants:    speech.NewFormantTracker(cfg.Formant, smoother),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
}

// ExtractAudio extracts features from decoded audio
func (fe *FeatureExtractor) ExtractAudio(audio *transcode.AudioData) (*FeatureSet, error) {
	if audio == nil {
		return nil, errors.New("nil audio")
	}
	return fe.Extract(audio.PCM, audio.SampleRate)
}

// Extract computes MFCC, pitch and formant tracks plus global energy and
// duration. When the MFCC and formant frame grids match, one STFT feeds both.
func (fe *FeatureExtractor) Extract(signal []float64, sampleRate int) (*FeatureSet, error) {
	if len(signal) == 0 {
		return nil, errors.New("empty signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if err := transcode.CheckDuration(len(signal), sampleRate, fe.maxDuration); err != nil {
		return nil, err
	}

	logger := fe.logger.WithFields(logging.Fields{
		"function":    "Extract",
		"samples":     len(signal),
		"sample_rate": sampleRate,
	})

	mfccCfg := fe.config.MFCC
	mfccSTFT, err := fe.stft.Compute(signal, mfccCfg.FrameSize, mfccCfg.HopSize, sampleRate,
		windowing.NewHamming(mfccCfg.FrameSize, true))
	if err != nil {
		return nil, fmt.Errorf("MFCC spectrogram failed: %w", err)
	}

	mfcc, err := spectral.NewMFCC(sampleRate, mfccCfg.FrameSize, spectral.MFCCParams{
		NumCoefficients: mfccCfg.NumCoefficients,
		NumMelFilters:   mfccCfg.NumMelFilters,
	})
	if err != nil {
		return nil, fmt.Errorf("MFCC setup failed: %w", err)
	}
	coefficients := common.ZNormalizeColumns(mfcc.ComputeFrames(mfccSTFT.Magnitude))

	envelope := temporal.ComputeRMS(signal, mfccCfg.FrameSize, mfccCfg.HopSize)
	silent := len(envelope) == 0 || slices.Max(envelope) < fe.config.SilenceThreshold

	pitchTrack := fe.pitch.Track(signal, sampleRate)

	formantSTFT := mfccSTFT
	formantCfg := fe.config.Formant
	if formantCfg.FrameSize != mfccCfg.FrameSize || formantCfg.HopSize != mfccCfg.HopSize {
		formantSTFT, err = fe.stft.Compute(signal, formantCfg.FrameSize, formantCfg.HopSize, sampleRate,
			windowing.NewHamming(formantCfg.FrameSize, true))
		if err != nil {
			return nil, fmt.Errorf("formant spectrogram failed: %w", err)
		}
	}

	formantTrack, err := fe.formants.Track(formantSTFT)
	if err != nil {
		if !errors.Is(err, speech.ErrNoSmoother) {
			return nil, fmt.Errorf("formant tracking failed: %w", err)
		}
		logger.Warn("Formant smoother unavailable, using zero formant track", logging.Fields{
			"frames": formantSTFT.TimeFrames,
		})
		formantTrack = make([][3]float64, formantSTFT.TimeFrames)
	}

	features := &FeatureSet{
		SampleRate:   sampleRate,
		Duration:     float64(len(signal)) / float64(sampleRate),
		RMSEnergy:    common.RMS(signal),
		MFCC:         coefficients,
		PitchTrack:   pitchTrack,
		FormantTrack: formantTrack,
		Silent:       silent,
	}

	logger.Debug("Features extracted", logging.Fields{
		"mfcc_frames":    len(coefficients),
		"pitch_frames":   len(pitchTrack),
		"voiced_frames":  len(tonal.Voiced(pitchTrack)),
		"formant_frames": len(formantTrack),
		"rms":            features.RMSEnergy,
		"silent":         silent,
	})

	return features, nil
}
