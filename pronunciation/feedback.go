package pronunciation

import (
	"github.com/RyanBlaney/sonido-tutor/config"
)

// Verdict is the overall judgement of an attempt
type Verdict string

const (
	VerdictExcellent        Verdict = "excellent"
	VerdictGood             Verdict = "good"
	VerdictFair             Verdict = "fair"
	VerdictNeedsImprovement Verdict = "needs improvement"
)

var verdictMessages = map[Verdict]string{
	VerdictExcellent:        "Excellent pronunciation! You sound very close to the reference.",
	VerdictGood:             "Good pronunciation. A little more practice will make it sound natural.",
	VerdictFair:             "Fair attempt. The word is recognizable but several sounds need work.",
	VerdictNeedsImprovement: "Needs improvement. Listen to the reference again and repeat it slowly.",
}

// FeedbackGenerator turns comparison metrics into a verdict and tips
type FeedbackGenerator struct {
	config config.FeedbackConfig
}

func NewFeedbackGenerator(cfg config.FeedbackConfig) *FeedbackGenerator {
	return &FeedbackGenerator{config: cfg}
}

// Verdict places a pronunciation score on the ladder
func (g *FeedbackGenerator) Verdict(score Score) Verdict {
	v := score.Unit()
	switch {
	case v >= g.config.Excellent:
		return VerdictExcellent
	case v >= g.config.Good:
		return VerdictGood
	case v >= g.config.Fair:
		return VerdictFair
	default:
		return VerdictNeedsImprovement
	}
}

// Generate returns the verdict and the feedback lines: the verdict message
// first, then segmental, intonation, pace and volume tips as they apply.
func (g *FeedbackGenerator) Generate(m *ComparisonMetrics) (Verdict, []string) {
	verdict := g.Verdict(m.PronunciationScore)
	lines := []string{verdictMessages[verdict]}

	if m.MFCCSimilarity < g.config.MFCCTip {
		lines = append(lines, "Focus on the individual sounds: some vowels or consonants differ noticeably from the reference.")
	}

	if m.PitchSimilarity < g.config.PitchTip {
		lines = append(lines, "Work on your intonation: follow the rise and fall of the reference speaker's voice.")
	}

	if m.DurationRatio < g.config.DurationTip {
		if m.AttemptDuration > m.ReferenceDuration {
			lines = append(lines, "You are speaking too slowly. Try to match the pace of the reference.")
		} else {
			lines = append(lines, "You are speaking too fast. Slow down to match the pace of the reference.")
		}
	}

	if m.EnergyRatio < g.config.EnergyTip {
		if m.AttemptRMS < m.ReferenceRMS {
			lines = append(lines, "Speak up a little: your recording is much quieter than the reference.")
		} else {
			lines = append(lines, "Speak a little softer: your recording is much louder than the reference.")
		}
	}

	return verdict, lines
}
