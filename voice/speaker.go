package voice

import (
	"context"

	"github.com/RyanBlaney/sonido-tutor/logging"
)

// SpeakerModel computes a speaker embedding. Implementations are loaded once
// by the caller and shared across requests; they must be safe for
// concurrent use.
type SpeakerModel interface {
	Embed(samples []float64, sampleRate int) ([]float64, error)
}

// SpeakerAnalyzer runs the signal quality analysis and, when a model is
// available, attaches its embedding
type SpeakerAnalyzer struct {
	quality *SignalQualityAnalyzer
	model   SpeakerModel
	logger  logging.Logger
}

// NewSpeakerAnalyzer creates an analyzer. model may be nil, in which case
// every analysis uses the signal method.
func NewSpeakerAnalyzer(quality *SignalQualityAnalyzer, model SpeakerModel) *SpeakerAnalyzer {
	return &SpeakerAnalyzer{
		quality: quality,
		model:   model,
		logger: logging.WithFields(logging.Fields{
			"component": "speaker_analyzer",
		}),
	}
}

// Analyze never fails on a model error: the signal-only result is returned
// with a warning instead. ctx only carries log fields and cancellation
// before work starts.
func (s *SpeakerAnalyzer) Analyze(ctx context.Context, samples []float64, sampleRate int) (*SpeakerAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := s.quality.Analyze(samples, sampleRate)
	if s.model == nil || len(samples) == 0 {
		return result, nil
	}

	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"analysis_id": result.ID,
	})

	embedding, err := s.model.Embed(samples, sampleRate)
	if err != nil {
		logger.Warn("Speaker model failed, falling back to signal analysis", logging.Fields{
			"error": err.Error(),
		})
		result.Warnings = append(result.Warnings, "speaker model unavailable: "+err.Error())
		return result, nil
	}

	result.Method = MethodModel
	result.Embedding = embedding

	logger.Debug("Speaker embedding attached", logging.Fields{
		"dimensions": len(embedding),
	})

	return result, nil
}
