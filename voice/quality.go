package voice

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/algorithms/filters"
	"github.com/RyanBlaney/sonido-tutor/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tutor/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tutor/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tutor/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

// Analysis methods reported in SpeakerAnalysis.Method
const (
	MethodSignal = "signal"
	MethodModel  = "model"
)

// Fixed frequency bands in Hz
var (
	speechBand    = [2]float64{300, 3400}
	highBand      = [2]float64{2000, -1} // up to Nyquist
	vowelBand     = [2]float64{250, 900}
	consonantBand = [2]float64{850, 2500}
)

const (
	dcCutoffHz = 20.0
	maxSNRDB   = 60.0
	// SNR at which the noise score saturates
	goodSNRDB = 30.0
	// pitch CV at which stability reaches 0
	maxPitchCV = 0.5
	// share of speech-band energy a clear vowel/consonant band carries
	vowelShareTarget     = 0.6
	consonantShareTarget = 0.3
)

// BandRatios are shares of total spectral energy, each in [0, 1]
type BandRatios struct {
	Speech    float64 `json:"speech"`    // 300-3400 Hz
	High      float64 `json:"high"`      // >= 2000 Hz
	Vowel     float64 `json:"vowel"`     // 250-900 Hz
	Consonant float64 `json:"consonant"` // 850-2500 Hz
}

// SpeakerAnalysis is the quality report for one recording. Scores are in
// [0, 100]. The same shape is returned whether or not a speaker model ran.
type SpeakerAnalysis struct {
	ID         string  `json:"id"`
	Method     string  `json:"method"`
	Duration   float64 `json:"duration"` // seconds
	SampleRate int     `json:"sample_rate"`

	// Spectral shape
	Brightness       float64    `json:"brightness"`        // mean spectral centroid, Hz
	SpectralFlatness float64    `json:"spectral_flatness"` // 0 tonal .. 1 noise-like
	ZeroCrossingRate float64    `json:"zero_crossing_rate"`
	Bands            BandRatios `json:"bands"`

	// Pitch
	MeanPitch      float64 `json:"mean_pitch"` // Hz over voiced frames
	PitchStability float64 `json:"pitch_stability"`
	VoicedFrames   int     `json:"voiced_frames"`

	// Timing
	SpeechSegments int     `json:"speech_segments"`
	PauseCount     int     `json:"pause_count"`
	SpeechRate     float64 `json:"speech_rate"` // speech segments per second
	SpeechRatio    float64 `json:"speech_ratio"`

	// Noise
	SNR float64 `json:"snr"` // dB, p90/p10 frame energy

	// Scores
	ArticulationScore float64 `json:"articulation_score"`
	VowelClarity      float64 `json:"vowel_clarity"`
	ConsonantClarity  float64 `json:"consonant_clarity"`
	NoiseScore        float64 `json:"noise_score"`
	OverallQuality    float64 `json:"overall_quality"`

	Embedding          []float64 `json:"embedding,omitempty"`
	Warnings           []string  `json:"warnings,omitempty"`
	AnalysisTimeMillis int64     `json:"analysis_time_ms"`
}

// SignalQualityAnalyzer estimates speech quality from the waveform alone
type SignalQualityAnalyzer struct {
	config config.QualityConfig
	stft   *spectral.STFT
	pitch  *tonal.PitchTracker
	logger logging.Logger
}

func NewSignalQualityAnalyzer(cfg config.QualityConfig, pitch config.PitchConfig) *SignalQualityAnalyzer {
	return &SignalQualityAnalyzer{
		config: cfg,
		stft:   spectral.NewSTFT(),
		pitch:  tonal.NewPitchTracker(pitch),
		logger: logging.WithFields(logging.Fields{
			"component": "signal_quality_analyzer",
		}),
	}
}

// Analyze computes the quality report. Empty, silent or otherwise
// degenerate input never fails; it yields the configured default scores
// with a warning.
func (q *SignalQualityAnalyzer) Analyze(signal []float64, sampleRate int) *SpeakerAnalysis {
	start := time.Now()

	result := q.defaults(signal, sampleRate)
	if len(signal) == 0 || sampleRate <= 0 {
		result.Warnings = append(result.Warnings, "empty signal, default scores returned")
		return result
	}
	if common.RMS(signal) < q.config.EnergyThreshold {
		result.Warnings = append(result.Warnings, "no speech above the energy threshold, default scores returned")
		return result
	}

	logger := q.logger.WithFields(logging.Fields{
		"function":    "Analyze",
		"samples":     len(signal),
		"sample_rate": sampleRate,
	})

	// a DC offset would hide zero crossings
	signal = filters.NewDCBlocker(sampleRate, dcCutoffHz).Apply(signal)

	stft, err := q.stft.Compute(signal, q.config.FrameSize, q.config.HopSize, sampleRate,
		windowing.NewHamming(q.config.FrameSize, true))
	if err != nil {
		logger.Warn("Spectrogram failed, using default scores", logging.Fields{"error": err.Error()})
		result.Warnings = append(result.Warnings, fmt.Sprintf("spectrogram failed: %v", err))
		return result
	}

	q.analyzeSpectrum(stft, result)
	q.analyzePitch(signal, sampleRate, result)
	q.analyzeTiming(signal, sampleRate, result)
	q.score(result)

	result.AnalysisTimeMillis = time.Since(start).Milliseconds()

	logger.Debug("Signal quality analysis complete", logging.Fields{
		"brightness": result.Brightness,
		"stability":  result.PitchStability,
		"snr":        result.SNR,
		"overall":    result.OverallQuality,
	})

	return result
}

func (q *SignalQualityAnalyzer) defaults(signal []float64, sampleRate int) *SpeakerAnalysis {
	duration := 0.0
	if sampleRate > 0 {
		duration = float64(len(signal)) / float64(sampleRate)
	}

	d := q.config.DefaultScore
	return &SpeakerAnalysis{
		ID:                uuid.NewString(),
		Method:            MethodSignal,
		Duration:          duration,
		SampleRate:        sampleRate,
		PitchStability:    d,
		ArticulationScore: d,
		VowelClarity:      d,
		ConsonantClarity:  d,
		NoiseScore:        d,
		OverallQuality:    d,
	}
}

func (q *SignalQualityAnalyzer) analyzeSpectrum(stft *spectral.STFTResult, result *SpeakerAnalysis) {
	// silent frames have no centroid
	centroids := spectral.NewSpectralCentroid(stft.SampleRate, stft.WindowSize).ComputeFrames(stft.Magnitude)
	active := make([]float64, 0, len(centroids))
	for _, c := range centroids {
		if c > 0 {
			active = append(active, c)
		}
	}
	result.Brightness = common.Mean(active)

	// long-term average power spectrum
	mean := make([]float64, stft.FreqBins)
	for _, frame := range stft.Magnitude {
		for k, p := range spectral.PowerSpectrum(frame) {
			mean[k] += p / float64(stft.TimeFrames)
		}
	}

	result.SpectralFlatness = spectral.Flatness(mean)
	result.Bands = BandRatios{
		Speech:    spectral.BandEnergyRatio(mean, stft.WindowSize, stft.SampleRate, speechBand[0], speechBand[1]),
		High:      spectral.BandEnergyRatio(mean, stft.WindowSize, stft.SampleRate, highBand[0], highBand[1]),
		Vowel:     spectral.BandEnergyRatio(mean, stft.WindowSize, stft.SampleRate, vowelBand[0], vowelBand[1]),
		Consonant: spectral.BandEnergyRatio(mean, stft.WindowSize, stft.SampleRate, consonantBand[0], consonantBand[1]),
	}
}

func (q *SignalQualityAnalyzer) analyzePitch(signal []float64, sampleRate int, result *SpeakerAnalysis) {
	voiced := tonal.Voiced(q.pitch.Track(signal, sampleRate))
	result.VoicedFrames = len(voiced)
	if len(voiced) < 2 {
		result.Warnings = append(result.Warnings, "too few voiced frames for pitch stability")
		return
	}

	result.MeanPitch = common.Mean(voiced)
	cv := common.CoefficientOfVariation(voiced)
	result.PitchStability = 100 * (1 - common.Clamp(cv/maxPitchCV, 0, 1))
}

func (q *SignalQualityAnalyzer) analyzeTiming(signal []float64, sampleRate int, result *SpeakerAnalysis) {
	zcr := make([]float64, 0, spectral.FrameCount(len(signal), q.config.FrameSize, q.config.HopSize))
	for s := 0; s+q.config.FrameSize <= len(signal); s += q.config.HopSize {
		zcr = append(zcr, spectral.ZeroCrossingRate(signal[s:s+q.config.FrameSize]))
	}
	if len(zcr) == 0 {
		zcr = append(zcr, spectral.ZeroCrossingRate(signal))
	}
	result.ZeroCrossingRate = common.Mean(zcr)

	envelope := temporal.ComputeRMS(signal, q.config.FrameSize, q.config.HopSize)
	hopSeconds := float64(q.config.HopSize) / float64(sampleRate)
	activity := temporal.SegmentActivity(envelope, q.config.EnergyThreshold, hopSeconds, q.config.MinPauseSeconds)

	result.SpeechSegments = len(activity.Speech)
	result.PauseCount = len(activity.Pauses)
	if result.Duration > 0 {
		result.SpeechRate = float64(len(activity.Speech)) / result.Duration
	}
	speech := 0.0
	for _, seg := range activity.Speech {
		speech += seg.Duration()
	}
	if result.Duration > 0 {
		result.SpeechRatio = common.Clamp(speech/result.Duration, 0, 1)
	}

	energies := make([]float64, len(envelope))
	for i, rms := range envelope {
		energies[i] = rms * rms
	}
	result.SNR = estimateSNR(energies)
}

// estimateSNR is the p90/p10 frame energy ratio in dB, clamped to
// [0, maxSNRDB]
func estimateSNR(energies []float64) float64 {
	if len(energies) == 0 {
		return 0.0
	}
	signal := common.Percentile(energies, 0.9)
	noise := common.Percentile(energies, 0.1)
	if signal <= 0 {
		return 0.0
	}
	if noise <= 0 {
		return maxSNRDB
	}
	return common.Clamp(10*math.Log10(signal/noise), 0, maxSNRDB)
}

func (q *SignalQualityAnalyzer) score(result *SpeakerAnalysis) {
	b := result.Bands
	result.ArticulationScore = 100 * b.Speech

	if b.Speech > 0 {
		result.VowelClarity = 100 * common.Clamp(b.Vowel/b.Speech/vowelShareTarget, 0, 1)
		result.ConsonantClarity = 100 * common.Clamp(b.Consonant/b.Speech/consonantShareTarget, 0, 1)
	} else {
		result.VowelClarity = 0
		result.ConsonantClarity = 0
	}

	result.NoiseScore = 100 * common.Clamp(result.SNR/goodSNRDB, 0, 1)
	tonality := 100 * (1 - result.SpectralFlatness)

	result.OverallQuality = common.Mean([]float64{
		result.ArticulationScore,
		result.PitchStability,
		result.NoiseScore,
		tonality,
	})
}
