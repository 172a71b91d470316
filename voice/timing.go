// Package voice scores speech without a reference recording: from ASR word
// timings, or from the waveform alone when no transcript is available.
package voice

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
	"github.com/RyanBlaney/sonido-tutor/pronunciation"
)

// WordTiming is one recognized word as reported by an ASR engine
type WordTiming struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"` // seconds
	End        float64 `json:"end"`   // seconds
	Confidence float64 `json:"confidence"`
}

func (w WordTiming) Duration() float64 {
	return w.End - w.Start
}

// Speaking rate categories
const (
	RateSlow   = "slow"
	RateNormal = "normal"
	RateFast   = "fast"
)

// Confidence categories
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Words per minute bands of the fluency score
const (
	slowWPM           = 100.0
	normalLowWPM      = 120.0
	normalHighWPM     = 160.0
	fastWPM           = 180.0
	maxExcessWPM      = 60.0
	betweenBandsScore = 85.0
)

// PauseLocation is a gap of at least the pause threshold between two words
type PauseLocation struct {
	AfterWord string  `json:"after_word"`
	Index     int     `json:"index"` // index of the word before the gap
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	Long      bool    `json:"long"`
}

// LowConfidenceWord is a word the recognizer was unsure about
type LowConfidenceWord struct {
	Word       string  `json:"word"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// VoiceAnalysis is the word-timing report. Every score is in [0, 100].
type VoiceAnalysis struct {
	// Pronunciation
	PronunciationScore    float64             `json:"pronunciation_score"`
	AverageWordConfidence float64             `json:"average_word_confidence"` // [0, 1]
	LowConfidenceWords    []LowConfidenceWord `json:"low_confidence_words"`

	// Fluency
	FluencyScore         float64 `json:"fluency_score"`
	WordsPerMinute       float64 `json:"words_per_minute"`
	SpeakingRateCategory string  `json:"speaking_rate_category"`

	// Pace
	PaceScore            float64         `json:"pace_score"`
	TotalPauses          int             `json:"total_pauses"`
	AveragePauseDuration float64         `json:"average_pause_duration"`
	LongPauseCount       int             `json:"long_pause_count"`
	PauseLocations       []PauseLocation `json:"pause_locations"`

	// Overall
	OverallConfidence   float64  `json:"overall_confidence"`
	ConfidenceCategory  string   `json:"confidence_category"`
	WordCount           int      `json:"word_count"`
	Duration            float64  `json:"duration"` // seconds
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SpecificTips        []string `json:"specific_tips"`
}

// Overall returns the overall confidence as a percent-scale Score
func (va *VoiceAnalysis) Overall() pronunciation.Score {
	return pronunciation.PercentScore(va.OverallConfidence)
}

// WordTimingAnalyzer scores pronunciation, fluency and pace from word timings
type WordTimingAnalyzer struct {
	config config.TimingConfig
	logger logging.Logger
}

func NewWordTimingAnalyzer(cfg config.TimingConfig) *WordTimingAnalyzer {
	return &WordTimingAnalyzer{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "word_timing_analyzer",
		}),
	}
}

// ValidateTimings rejects words that end before they start or carry
// non-finite times, and returns a copy with confidences clamped to [0, 1]
func ValidateTimings(words []WordTiming) ([]WordTiming, error) {
	clean := make([]WordTiming, len(words))
	for i, w := range words {
		if math.IsNaN(w.Start) || math.IsNaN(w.End) || math.IsInf(w.Start, 0) || math.IsInf(w.End, 0) {
			return nil, fmt.Errorf("word %d (%q) has non-finite timing", i, w.Word)
		}
		if w.End < w.Start {
			return nil, fmt.Errorf("word %d (%q) ends before it starts: %.3f < %.3f", i, w.Word, w.End, w.Start)
		}
		if math.IsNaN(w.Confidence) {
			w.Confidence = 0
		}
		w.Confidence = common.Clamp(w.Confidence, 0, 1)
		clean[i] = w
	}
	return clean, nil
}

// Analyze scores an ordered word list. totalDuration is the length of the
// recording in seconds; when it is not positive the span of the words is
// used instead. An empty word list yields a zeroed analysis.
func (a *WordTimingAnalyzer) Analyze(words []WordTiming, totalDuration float64) (*VoiceAnalysis, error) {
	words, err := ValidateTimings(words)
	if err != nil {
		return nil, fmt.Errorf("invalid word timings: %w", err)
	}

	if len(words) == 0 {
		a.logger.Debug("No words to analyze")
		return emptyAnalysis(), nil
	}

	if totalDuration <= 0 {
		totalDuration = words[len(words)-1].End - words[0].Start
	}

	va := &VoiceAnalysis{
		WordCount: len(words),
		Duration:  totalDuration,
	}

	a.scorePronunciation(words, va)
	a.scoreFluency(words, totalDuration, va)
	a.scorePace(words, va)

	va.OverallConfidence = common.Clamp(
		a.config.PronunciationWeight*va.PronunciationScore+
			a.config.FluencyWeight*va.FluencyScore+
			a.config.PaceWeight*va.PaceScore, 0, 100)

	switch {
	case va.OverallConfidence >= a.config.HighConfidence:
		va.ConfidenceCategory = ConfidenceHigh
	case va.OverallConfidence >= a.config.MediumConfidence:
		va.ConfidenceCategory = ConfidenceMedium
	default:
		va.ConfidenceCategory = ConfidenceLow
	}

	a.generateFeedback(va)

	a.logger.Debug("Word timing analysis complete", logging.Fields{
		"words":         va.WordCount,
		"wpm":           va.WordsPerMinute,
		"pronunciation": va.PronunciationScore,
		"fluency":       va.FluencyScore,
		"pace":          va.PaceScore,
		"overall":       va.OverallConfidence,
	})

	return va, nil
}

func emptyAnalysis() *VoiceAnalysis {
	return &VoiceAnalysis{
		LowConfidenceWords:   []LowConfidenceWord{},
		SpeakingRateCategory: RateSlow,
		PauseLocations:       []PauseLocation{},
		ConfidenceCategory:   ConfidenceLow,
		Strengths:            []string{},
		AreasForImprovement:  []string{"No speech was recognized in the recording."},
		SpecificTips:         []string{"Check your microphone and speak clearly after recording starts."},
	}
}

// scorePronunciation is mean confidence x 100 minus a penalty proportional
// to the share of low-confidence words
func (a *WordTimingAnalyzer) scorePronunciation(words []WordTiming, va *VoiceAnalysis) {
	confidences := make([]float64, len(words))
	low := make([]LowConfidenceWord, 0)
	for i, w := range words {
		confidences[i] = w.Confidence
		if w.Confidence < a.config.LowConfidence {
			low = append(low, LowConfidenceWord{Word: w.Word, Index: i, Confidence: w.Confidence})
		}
	}

	va.AverageWordConfidence = common.Mean(confidences)
	penalty := float64(len(low)) / float64(len(words)) * a.config.LowConfidencePenalty
	va.PronunciationScore = common.Clamp(va.AverageWordConfidence*100-penalty, 0, 100)

	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Confidence < low[j].Confidence
	})
	if limit := max(a.config.MaxListedWords, 0); len(low) > limit {
		low = low[:limit]
	}
	va.LowConfidenceWords = low
}

// scoreFluency buckets the speaking rate and adds a bonus for evenly
// timed words. Inside the normal band the score rises linearly from 90 at
// normalLowWPM to 100 at normalHighWPM.
func (a *WordTimingAnalyzer) scoreFluency(words []WordTiming, duration float64, va *VoiceAnalysis) {
	if duration > 0 {
		va.WordsPerMinute = float64(len(words)) / (duration / 60)
	}
	wpm := va.WordsPerMinute

	var score float64
	switch {
	case wpm < slowWPM:
		va.SpeakingRateCategory = RateSlow
		score = 60 + 20*(wpm/slowWPM)
	case wpm >= normalLowWPM && wpm <= normalHighWPM:
		va.SpeakingRateCategory = RateNormal
		score = 90 + 10*(wpm-normalLowWPM)/(normalHighWPM-normalLowWPM)
	case wpm > fastWPM:
		va.SpeakingRateCategory = RateFast
		excess := math.Min(wpm-fastWPM, maxExcessWPM)
		score = 85 - 15*excess/maxExcessWPM
	default:
		va.SpeakingRateCategory = RateNormal
		score = betweenBandsScore
	}

	durations := make([]float64, len(words))
	for i, w := range words {
		durations[i] = w.Duration()
	}
	bonus := math.Max(0, 10-common.Variance(durations)*20)

	va.FluencyScore = common.Clamp(score+bonus, 0, 100)
}

// scorePace counts inter-word gaps and rates the words-per-pause rhythm
func (a *WordTimingAnalyzer) scorePace(words []WordTiming, va *VoiceAnalysis) {
	va.PauseLocations = []PauseLocation{}
	total := 0.0

	for i := 1; i < len(words); i++ {
		gap := words[i].Start - words[i-1].End
		if gap < a.config.PauseGapSeconds {
			continue
		}

		long := gap > a.config.LongPauseSeconds
		va.TotalPauses++
		total += gap
		if long {
			va.LongPauseCount++
		}
		if len(va.PauseLocations) < a.config.MaxListedWords {
			va.PauseLocations = append(va.PauseLocations, PauseLocation{
				AfterWord: words[i-1].Word,
				Index:     i - 1,
				Start:     words[i-1].End,
				Duration:  gap,
				Long:      long,
			})
		}
	}

	if va.TotalPauses > 0 {
		va.AveragePauseDuration = total / float64(va.TotalPauses)
	}

	// an utterance without pauses is a single run of words
	wordsPerPause := float64(len(words))
	if va.TotalPauses > 0 {
		wordsPerPause = float64(len(words)) / float64(va.TotalPauses)
	}

	var rhythm float64
	switch {
	case wordsPerPause >= 5 && wordsPerPause <= 10:
		rhythm = 95
	case wordsPerPause >= 3 && wordsPerPause <= 15:
		rhythm = 85
	default:
		rhythm = 70
	}

	penalty := math.Min(float64(va.LongPauseCount)*a.config.LongPausePenalty, a.config.MaxLongPausePenalty)
	va.PaceScore = common.Clamp(rhythm-penalty, 0, 100)
}

func (a *WordTimingAnalyzer) generateFeedback(va *VoiceAnalysis) {
	va.Strengths = []string{}
	va.AreasForImprovement = []string{}
	va.SpecificTips = []string{}

	switch {
	case va.PronunciationScore >= a.config.HighConfidence:
		va.Strengths = append(va.Strengths, "Your words were recognized clearly and confidently.")
	case va.PronunciationScore < a.config.MediumConfidence:
		va.AreasForImprovement = append(va.AreasForImprovement, "Several words were hard to recognize.")
	}
	if len(va.LowConfidenceWords) > 0 {
		listed := make([]string, len(va.LowConfidenceWords))
		for i, w := range va.LowConfidenceWords {
			listed[i] = w.Word
		}
		va.SpecificTips = append(va.SpecificTips,
			fmt.Sprintf("Practice these words slowly: %s.", strings.Join(listed, ", ")))
	}

	switch va.SpeakingRateCategory {
	case RateSlow:
		va.AreasForImprovement = append(va.AreasForImprovement,
			fmt.Sprintf("Your speaking rate is slow (%.0f words per minute).", va.WordsPerMinute))
		va.SpecificTips = append(va.SpecificTips, "Link words together instead of pausing after each one.")
	case RateFast:
		va.AreasForImprovement = append(va.AreasForImprovement,
			fmt.Sprintf("Your speaking rate is fast (%.0f words per minute).", va.WordsPerMinute))
		va.SpecificTips = append(va.SpecificTips, "Slow down and give each word its full length.")
	default:
		if va.FluencyScore >= a.config.HighConfidence {
			va.Strengths = append(va.Strengths, "You speak at a natural, steady pace.")
		}
	}

	if va.LongPauseCount > 0 {
		va.AreasForImprovement = append(va.AreasForImprovement,
			fmt.Sprintf("%d long pause(s) broke the flow of your speech.", va.LongPauseCount))
		va.SpecificTips = append(va.SpecificTips, "Plan the whole phrase before you start speaking to avoid long pauses.")
	} else if va.PaceScore >= 90 {
		va.Strengths = append(va.Strengths, "Your phrasing and rhythm sound natural.")
	}
}
