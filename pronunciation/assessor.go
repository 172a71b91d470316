package pronunciation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
	"github.com/RyanBlaney/sonido-tutor/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tutor/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
	"github.com/RyanBlaney/sonido-tutor/transcode"
)

// Assessment is the full result of comparing one attempt with its reference
type Assessment struct {
	ID         string             `json:"id"`
	TargetText string             `json:"target_text,omitempty"`
	Metrics    *ComparisonMetrics `json:"metrics"`
	Verdict    Verdict            `json:"verdict"`
	Feedback   []string           `json:"feedback"`
	Reference  SignalSummary      `json:"reference"`
	Attempt    SignalSummary      `json:"attempt"`
	CreatedAt  time.Time          `json:"created_at"`
}

// SignalSummary describes one side of an assessment after trimming
type SignalSummary struct {
	SampleRate       int               `json:"sample_rate"`
	OriginalDuration float64           `json:"original_duration"` // seconds, before trimming
	TrimmedDuration  float64           `json:"trimmed_duration"`  // seconds
	Boundary         temporal.Boundary `json:"boundary"`
	VoicedFrames     int               `json:"voiced_frames"`
}

// Assessor runs decode, trim, extract, compare and feedback end to end
type Assessor struct {
	decoder   *transcode.Decoder
	boundary  *temporal.SpeechBoundaryDetector
	extractor *FeatureExtractor
	scorer    *Scorer
	feedback  *FeedbackGenerator
	logger    logging.Logger
}

// NewAssessor wires every stage from one configuration
func NewAssessor(cfg *config.Config) *Assessor {
	return &Assessor{
		decoder:   transcode.NewDecoder(cfg.Decoder, cfg.MaxDuration()),
		boundary:  temporal.NewSpeechBoundaryDetector(cfg.Boundary),
		extractor: NewFeatureExtractor(cfg.Features, cfg.MaxDuration()),
		scorer:    NewScorer(cfg.Scoring),
		feedback:  NewFeedbackGenerator(cfg.Feedback),
		logger: logging.WithFields(logging.Fields{
			"component": "assessor",
		}),
	}
}

// Assess compares two encoded recordings
func (a *Assessor) Assess(ctx context.Context, reference, attempt []byte, targetText string) (*Assessment, error) {
	refAudio, err := a.decoder.DecodeBytes(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference: %w", err)
	}
	attAudio, err := a.decoder.DecodeBytes(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt: %w", err)
	}
	return a.CompareSignals(ctx, refAudio, attAudio, targetText)
}

// AssessFiles compares two recordings on disk
func (a *Assessor) AssessFiles(ctx context.Context, referencePath, attemptPath, targetText string) (*Assessment, error) {
	refAudio, err := a.decoder.DecodeFile(ctx, referencePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference: %w", err)
	}
	attAudio, err := a.decoder.DecodeFile(ctx, attemptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt: %w", err)
	}
	return a.CompareSignals(ctx, refAudio, attAudio, targetText)
}

// CompareSignals trims and scores already decoded audio. Feature extraction
// for the two sides runs concurrently.
func (a *Assessor) CompareSignals(ctx context.Context, reference, attempt *transcode.AudioData, targetText string) (*Assessment, error) {
	id := uuid.NewString()
	ctx = logging.ContextWithFields(ctx, logging.Fields{"assessment_id": id})
	logger := a.logger.WithContext(ctx)

	if reference == nil || attempt == nil {
		return nil, errors.New("reference and attempt audio are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// MFCC filterbanks and pitch lags depend on the rate, so both sides are
	// analyzed at the reference rate
	if attempt.SampleRate != reference.SampleRate {
		logger.Debug("Resampling attempt", logging.Fields{
			"from": attempt.SampleRate,
			"to":   reference.SampleRate,
		})
		resampled := *attempt
		resampled.PCM = common.Resample(attempt.PCM, attempt.SampleRate, reference.SampleRate)
		resampled.SampleRate = reference.SampleRate
		attempt = &resampled
	}

	type extraction struct {
		features *FeatureSet
		summary  SignalSummary
		err      error
	}

	var results [2]extraction
	var wg sync.WaitGroup
	for i, audio := range []*transcode.AudioData{reference, attempt} {
		wg.Add(1)
		go func() {
			defer wg.Done()

			trimmed, boundary := a.boundary.Trim(audio.PCM, audio.SampleRate)
			features, err := a.extractor.Extract(trimmed, audio.SampleRate)

			results[i] = extraction{features: features, err: err}
			if err == nil {
				results[i].summary = SignalSummary{
					SampleRate:       audio.SampleRate,
					OriginalDuration: audio.Duration.Seconds(),
					TrimmedDuration:  features.Duration,
					Boundary:         boundary,
					VoicedFrames:     len(tonal.Voiced(features.PitchTrack)),
				}
			}
		}()
	}
	wg.Wait()

	if err := results[0].err; err != nil {
		return nil, fmt.Errorf("failed to extract reference features: %w", err)
	}
	if err := results[1].err; err != nil {
		return nil, fmt.Errorf("failed to extract attempt features: %w", err)
	}

	metrics := a.scorer.Compare(results[0].features, results[1].features)
	verdict, lines := a.feedback.Generate(metrics)

	logger.Info("Assessment complete", logging.Fields{
		"verdict": verdict,
		"score":   metrics.PronunciationScore.Value,
	})

	return &Assessment{
		ID:         id,
		TargetText: targetText,
		Metrics:    metrics,
		Verdict:    verdict,
		Feedback:   lines,
		Reference:  results[0].summary,
		Attempt:    results[1].summary,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
