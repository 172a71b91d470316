package pronunciation

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/algorithms/stats"
	"github.com/RyanBlaney/sonido-tutor/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

// ComparisonMetrics is the result of scoring an attempt against a reference.
// All similarities and ratios are in [0, 1].
type ComparisonMetrics struct {
	MFCCDTWDistance      float64 `json:"mfcc_dtw_distance"` // normalized by total frame count
	MFCCDTWSimilarity    float64 `json:"mfcc_dtw_similarity"`
	MFCCCosineSimilarity float64 `json:"mfcc_cosine_similarity"`
	MFCCSimilarity       float64 `json:"mfcc_similarity"` // max of the DTW and cosine similarities
	PitchSimilarity      float64 `json:"pitch_similarity"`
	DurationRatio        float64 `json:"duration_ratio"`
	EnergyRatio          float64 `json:"energy_ratio"`
	PronunciationScore   Score   `json:"pronunciation_score"`

	// Raw values behind the ratios, used for directional feedback
	ReferenceDuration float64 `json:"reference_duration"`
	AttemptDuration   float64 `json:"attempt_duration"`
	ReferenceRMS      float64 `json:"reference_rms"`
	AttemptRMS        float64 `json:"attempt_rms"`
}

// Scorer fuses MFCC, pitch, duration and energy comparisons
type Scorer struct {
	config config.ScoringConfig
	dtw    *stats.DTWAlignment
	logger logging.Logger
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		config: cfg,
		dtw:    stats.NewDTWAlignment(),
		logger: logging.WithFields(logging.Fields{
			"component": "similarity_scorer",
		}),
	}
}

// Compare scores attempt against reference. The result is symmetric in its
// arguments apart from the raw reference/attempt fields. When either side is
// silent both MFCC similarities are 0. Feature sets whose
// MFCC matrices are empty or of different widths violate the extractor's
// contract and cause a panic.
func (s *Scorer) Compare(reference, attempt *FeatureSet) *ComparisonMetrics {
	if len(reference.MFCC) == 0 || len(attempt.MFCC) == 0 {
		panic(fmt.Sprintf("pronunciation: feature set without MFCC frames (reference=%d, attempt=%d)",
			len(reference.MFCC), len(attempt.MFCC)))
	}

	dtw, err := s.dtw.Align(reference.MFCC, attempt.MFCC)
	if err != nil {
		// unreachable with non-empty inputs
		panic(fmt.Sprintf("pronunciation: DTW failed: %v", err))
	}

	dtwSimilarity := dtw.Similarity
	cosine := stats.UnitCosineSimilarity(stats.Flatten(reference.MFCC), stats.Flatten(attempt.MFCC))
	if reference.Silent || attempt.Silent {
		// normalized silence is all zeros, as is any steady signal
		dtwSimilarity, cosine = 0, 0
	}
	mfccSimilarity := math.Max(dtwSimilarity, cosine)

	pitchSimilarity := PitchSimilarity(reference.PitchTrack, attempt.PitchTrack)
	durationRatio := common.SafeRatio(reference.Duration, attempt.Duration, s.config.Epsilon)
	energyRatio := common.SafeRatio(reference.RMSEnergy, attempt.RMSEnergy, s.config.Epsilon)

	fused := s.config.MFCCWeight*mfccSimilarity +
		s.config.PitchWeight*pitchSimilarity +
		s.config.DurationWeight*durationRatio +
		s.config.EnergyWeight*energyRatio

	metrics := &ComparisonMetrics{
		MFCCDTWDistance:      dtw.Normalized,
		MFCCDTWSimilarity:    dtwSimilarity,
		MFCCCosineSimilarity: cosine,
		MFCCSimilarity:       mfccSimilarity,
		PitchSimilarity:      pitchSimilarity,
		DurationRatio:        durationRatio,
		EnergyRatio:          energyRatio,
		PronunciationScore:   UnitScore(fused),
		ReferenceDuration:    reference.Duration,
		AttemptDuration:      attempt.Duration,
		ReferenceRMS:         reference.RMSEnergy,
		AttemptRMS:           attempt.RMSEnergy,
	}

	s.logger.Debug("Comparison complete", logging.Fields{
		"dtw_distance":  dtw.Normalized,
		"mfcc":          mfccSimilarity,
		"pitch":         pitchSimilarity,
		"duration":      durationRatio,
		"energy":        energyRatio,
		"pronunciation": metrics.PronunciationScore.Value,
	})

	return metrics
}

// PitchSimilarity compares intonation contours. Unvoiced (0 Hz) frames are
// dropped from each side, the rest z-normalized so only contour shape counts,
// and the similarity is exp(-mean |difference|) over the common length.
// Two fully unvoiced tracks score 1. A voiced track against an unvoiced one
// scores 0, not 1: "unvoiced never penalizes" applies only when both sides
// are unvoiced, otherwise a silent attempt would get full intonation credit
// against a voiced reference.
func PitchSimilarity(reference, attempt []float64) float64 {
	ref := tonal.Voiced(reference)
	att := tonal.Voiced(attempt)

	switch {
	case len(ref) == 0 && len(att) == 0:
		return 1.0
	case len(ref) == 0 || len(att) == 0:
		return 0.0
	}

	ref = common.ZNormalize(ref)
	att = common.ZNormalize(att)

	n := min(len(ref), len(att))
	sum := 0.0
	for i := range n {
		sum += math.Abs(ref[i] - att[i])
	}

	return math.Exp(-sum / float64(n))
}
