// Package config holds every tunable of the analysis engine: frame sizes,
// thresholds, fusion weights and decoder settings. Defaults reproduce the
// published behavior; a YAML file can override any subset of them.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration
type Config struct {
	// MaxDurationSeconds caps the length of any analyzed signal. DCT and DTW
	// cost grows with duration, so longer inputs are rejected.
	MaxDurationSeconds float64 `json:"max_duration_seconds" yaml:"max_duration_seconds"`

	Decoder  DecoderConfig  `json:"decoder" yaml:"decoder"`
	Boundary BoundaryConfig `json:"boundary" yaml:"boundary"`
	Features FeatureConfig  `json:"features" yaml:"features"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Feedback FeedbackConfig `json:"feedback" yaml:"feedback"`
	Timing   TimingConfig   `json:"timing" yaml:"timing"`
	Quality  QualityConfig  `json:"quality" yaml:"quality"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// DecoderConfig configures WAV decoding and ffmpeg transcoding
type DecoderConfig struct {
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	TempDir          string        `json:"temp_dir" yaml:"temp_dir"` // "" = os.TempDir()
}

// BoundaryConfig configures leading/trailing silence trimming
type BoundaryConfig struct {
	FrameSeconds    float64 `json:"frame_seconds" yaml:"frame_seconds"`
	HopSeconds      float64 `json:"hop_seconds" yaml:"hop_seconds"`
	EnergyThreshold float64 `json:"energy_threshold" yaml:"energy_threshold"`
}

// FeatureConfig groups the three feature extractors
type FeatureConfig struct {
	MFCC    MFCCConfig    `json:"mfcc" yaml:"mfcc"`
	Pitch   PitchConfig   `json:"pitch" yaml:"pitch"`
	Formant FormantConfig `json:"formant" yaml:"formant"`

	// SilenceThreshold is the frame RMS below which a whole recording
	// counts as silent
	SilenceThreshold float64 `json:"silence_threshold" yaml:"silence_threshold"`
}

type MFCCConfig struct {
	FrameSize       int `json:"frame_size" yaml:"frame_size"`
	HopSize         int `json:"hop_size" yaml:"hop_size"`
	NumMelFilters   int `json:"num_mel_filters" yaml:"num_mel_filters"`
	NumCoefficients int `json:"num_coefficients" yaml:"num_coefficients"`
}

type PitchConfig struct {
	FrameSize        int     `json:"frame_size" yaml:"frame_size"`
	HopSize          int     `json:"hop_size" yaml:"hop_size"`
	MinFreq          float64 `json:"min_freq" yaml:"min_freq"`
	MaxFreq          float64 `json:"max_freq" yaml:"max_freq"`
	VoicingThreshold float64 `json:"voicing_threshold" yaml:"voicing_threshold"` // normalized autocorrelation peak
}

type FormantConfig struct {
	FrameSize     int           `json:"frame_size" yaml:"frame_size"`
	HopSize       int           `json:"hop_size" yaml:"hop_size"`
	SmoothingBins float64       `json:"smoothing_bins" yaml:"smoothing_bins"` // Gaussian sigma in FFT bins
	Bands         [3][2]float64 `json:"bands" yaml:"bands"`                   // F1, F2, F3 search ranges in Hz
}

// ScoringConfig holds the fusion weights of the pronunciation score
type ScoringConfig struct {
	MFCCWeight     float64 `json:"mfcc_weight" yaml:"mfcc_weight"`
	PitchWeight    float64 `json:"pitch_weight" yaml:"pitch_weight"`
	DurationWeight float64 `json:"duration_weight" yaml:"duration_weight"`
	EnergyWeight   float64 `json:"energy_weight" yaml:"energy_weight"`
	Epsilon        float64 `json:"epsilon" yaml:"epsilon"`
}

// FeedbackConfig holds the verdict ladder and per-metric tip thresholds
type FeedbackConfig struct {
	Excellent   float64 `json:"excellent" yaml:"excellent"`
	Good        float64 `json:"good" yaml:"good"`
	Fair        float64 `json:"fair" yaml:"fair"`
	MFCCTip     float64 `json:"mfcc_tip" yaml:"mfcc_tip"`
	PitchTip    float64 `json:"pitch_tip" yaml:"pitch_tip"`
	DurationTip float64 `json:"duration_tip" yaml:"duration_tip"`
	EnergyTip   float64 `json:"energy_tip" yaml:"energy_tip"`
}

// TimingConfig configures the ASR word-timing analyzer
type TimingConfig struct {
	LowConfidence        float64 `json:"low_confidence" yaml:"low_confidence"`
	LowConfidencePenalty float64 `json:"low_confidence_penalty" yaml:"low_confidence_penalty"`
	MaxListedWords       int     `json:"max_listed_words" yaml:"max_listed_words"`
	PauseGapSeconds      float64 `json:"pause_gap_seconds" yaml:"pause_gap_seconds"`
	LongPauseSeconds     float64 `json:"long_pause_seconds" yaml:"long_pause_seconds"`
	LongPausePenalty     float64 `json:"long_pause_penalty" yaml:"long_pause_penalty"`
	MaxLongPausePenalty  float64 `json:"max_long_pause_penalty" yaml:"max_long_pause_penalty"`
	PronunciationWeight  float64 `json:"pronunciation_weight" yaml:"pronunciation_weight"`
	FluencyWeight        float64 `json:"fluency_weight" yaml:"fluency_weight"`
	PaceWeight           float64 `json:"pace_weight" yaml:"pace_weight"`
	HighConfidence       float64 `json:"high_confidence" yaml:"high_confidence"`
	MediumConfidence     float64 `json:"medium_confidence" yaml:"medium_confidence"`
}

// QualityConfig configures the waveform-only quality analyzer
type QualityConfig struct {
	FrameSize       int     `json:"frame_size" yaml:"frame_size"`
	HopSize         int     `json:"hop_size" yaml:"hop_size"`
	EnergyThreshold float64 `json:"energy_threshold" yaml:"energy_threshold"`
	MinPauseSeconds float64 `json:"min_pause_seconds" yaml:"min_pause_seconds"`
	DefaultScore    float64 `json:"default_score" yaml:"default_score"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the configuration the engine was tuned with
func Default() *Config {
	return &Config{
		MaxDurationSeconds: 60.0,
		Decoder:            DefaultDecoderConfig(),
		Boundary:           DefaultBoundaryConfig(),
		Features:           DefaultFeatureConfig(),
		Scoring:            DefaultScoringConfig(),
		Feedback:           DefaultFeedbackConfig(),
		Timing:             DefaultTimingConfig(),
		Quality:            DefaultQualityConfig(),
		Logging:            LoggingConfig{Level: "info"},
	}
}

func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		FFmpegPath:       "ffmpeg", // Assume in PATH
		TargetSampleRate: 16000,
		Timeout:          30 * time.Second,
	}
}

func DefaultBoundaryConfig() BoundaryConfig {
	return BoundaryConfig{
		FrameSeconds:    0.020,
		HopSeconds:      0.010,
		EnergyThreshold: 0.02,
	}
}

func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		MFCC: MFCCConfig{
			FrameSize:       512, // ~32ms @ 16kHz
			HopSize:         160, // 10ms @ 16kHz
			NumMelFilters:   40,
			NumCoefficients: 13,
		},
		Pitch: PitchConfig{
			FrameSize:        2048,
			HopSize:          512,
			MinFreq:          80.0,
			MaxFreq:          400.0,
			VoicingThreshold: 0.3,
		},
		Formant: FormantConfig{
			FrameSize:     512,
			HopSize:       160,
			SmoothingBins: 5.0,
			Bands: [3][2]float64{
				{200, 900},
				{900, 2500},
				{2500, 3500},
			},
		},
		SilenceThreshold: 0.02,
	}
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MFCCWeight:     0.70,
		PitchWeight:    0.20,
		DurationWeight: 0.05,
		EnergyWeight:   0.05,
		Epsilon:        1e-8,
	}
}

func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		Excellent:   0.85,
		Good:        0.70,
		Fair:        0.50,
		MFCCTip:     0.6,
		PitchTip:    0.7,
		DurationTip: 0.5,
		EnergyTip:   0.7,
	}
}

func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		LowConfidence:        0.6,
		LowConfidencePenalty: 15.0,
		MaxListedWords:       10,
		PauseGapSeconds:      0.3,
		LongPauseSeconds:     1.0,
		LongPausePenalty:     5.0,
		MaxLongPausePenalty:  25.0,
		PronunciationWeight:  0.40,
		FluencyWeight:        0.35,
		PaceWeight:           0.25,
		HighConfidence:       85.0,
		MediumConfidence:     70.0,
	}
}

func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		FrameSize:       1024,
		HopSize:         512,
		EnergyThreshold: 0.02,
		MinPauseSeconds: 0.3,
		DefaultScore:    70.0,
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// MaxDuration returns the duration cap as a time.Duration
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds * float64(time.Second))
}

// Validate checks that the tunables are mutually consistent
func (c *Config) Validate() error {
	var errs []error

	if c.MaxDurationSeconds <= 0 {
		errs = append(errs, fmt.Errorf("max_duration_seconds must be positive: %v", c.MaxDurationSeconds))
	}
	if c.Decoder.TargetSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("decoder.target_sample_rate must be positive: %d", c.Decoder.TargetSampleRate))
	}
	if c.Boundary.FrameSeconds <= 0 || c.Boundary.HopSeconds <= 0 {
		errs = append(errs, errors.New("boundary frame and hop must be positive"))
	}

	f := c.Features
	if f.MFCC.FrameSize <= 0 || f.MFCC.HopSize <= 0 {
		errs = append(errs, errors.New("mfcc frame and hop must be positive"))
	}
	if f.MFCC.NumCoefficients <= 0 || f.MFCC.NumCoefficients > f.MFCC.NumMelFilters {
		errs = append(errs, fmt.Errorf("mfcc coefficients (%d) must be in 1..num_mel_filters (%d)",
			f.MFCC.NumCoefficients, f.MFCC.NumMelFilters))
	}
	if f.Pitch.FrameSize <= 0 || f.Pitch.HopSize <= 0 {
		errs = append(errs, errors.New("pitch frame and hop must be positive"))
	}
	if f.Pitch.MinFreq <= 0 || f.Pitch.MaxFreq <= f.Pitch.MinFreq {
		errs = append(errs, fmt.Errorf("pitch range invalid: %v-%v Hz", f.Pitch.MinFreq, f.Pitch.MaxFreq))
	}
	if f.Pitch.VoicingThreshold < 0 || f.Pitch.VoicingThreshold > 1 {
		errs = append(errs, fmt.Errorf("pitch voicing_threshold must be in [0, 1]: %v", f.Pitch.VoicingThreshold))
	}
	if f.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("features silence_threshold must be non-negative: %v", f.SilenceThreshold))
	}
	if f.Formant.FrameSize <= 0 || f.Formant.HopSize <= 0 {
		errs = append(errs, errors.New("formant frame and hop must be positive"))
	}
	for i, band := range f.Formant.Bands {
		if band[0] < 0 || band[1] <= band[0] {
			errs = append(errs, fmt.Errorf("formant band F%d invalid: %v", i+1, band))
		}
	}

	s := c.Scoring
	if s.MFCCWeight < 0 || s.PitchWeight < 0 || s.DurationWeight < 0 || s.EnergyWeight < 0 {
		errs = append(errs, errors.New("scoring weights must be non-negative"))
	}
	if sum := s.MFCCWeight + s.PitchWeight + s.DurationWeight + s.EnergyWeight; math.Abs(sum-1.0) > 1e-6 {
		errs = append(errs, fmt.Errorf("scoring weights must sum to 1, got %.4f", sum))
	}
	if s.Epsilon <= 0 {
		errs = append(errs, errors.New("scoring epsilon must be positive"))
	}

	fb := c.Feedback
	if !(fb.Excellent >= fb.Good && fb.Good >= fb.Fair) {
		errs = append(errs, errors.New("feedback ladder must satisfy excellent >= good >= fair"))
	}

	tm := c.Timing
	if tm.PauseGapSeconds <= 0 || tm.LongPauseSeconds < tm.PauseGapSeconds {
		errs = append(errs, errors.New("timing pause thresholds must satisfy 0 < pause_gap <= long_pause"))
	}
	if tm.PronunciationWeight < 0 || tm.FluencyWeight < 0 || tm.PaceWeight < 0 {
		errs = append(errs, errors.New("timing weights must be non-negative"))
	}
	if tm.MaxListedWords < 0 {
		errs = append(errs, fmt.Errorf("timing max_listed_words must be non-negative: %d", tm.MaxListedWords))
	}
	if sum := tm.PronunciationWeight + tm.FluencyWeight + tm.PaceWeight; math.Abs(sum-1.0) > 1e-6 {
		errs = append(errs, fmt.Errorf("timing weights must sum to 1, got %.4f", sum))
	}

	if c.Quality.FrameSize <= 0 || c.Quality.HopSize <= 0 {
		errs = append(errs, errors.New("quality frame and hop must be positive"))
	}
	if c.Quality.DefaultScore < 0 || c.Quality.DefaultScore > 100 {
		errs = append(errs, fmt.Errorf("quality default_score must be in [0, 100]: %v", c.Quality.DefaultScore))
	}

	return errors.Join(errs...)
}
