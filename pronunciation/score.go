// Package pronunciation compares a spoken attempt against a reference
// recording: feature extraction, similarity fusion and verdict feedback.
package pronunciation

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
)

// Scale names the range a Score is expressed in
type Scale string

const (
	// UnitScale scores lie in [0, 1]; the similarity scorer produces these
	UnitScale Scale = "unit"
	// PercentScale scores lie in [0, 100]; the word-timing analyzer produces these
	PercentScale Scale = "percent"
)

// Score is a value tagged with its scale. Unit and Percent are the only
// sanctioned conversions between the two ranges.
type Score struct {
	Value float64 `json:"value"`
	Scale Scale   `json:"scale"`
}

// UnitScore clamps v to [0, 1]
func UnitScore(v float64) Score {
	return Score{Value: common.Clamp(v, 0, 1), Scale: UnitScale}
}

// PercentScore clamps v to [0, 100]
func PercentScore(v float64) Score {
	return Score{Value: common.Clamp(v, 0, 100), Scale: PercentScale}
}

// Unit returns the score in [0, 1]
func (s Score) Unit() float64 {
	if s.Scale == PercentScale {
		return s.Value / 100
	}
	return s.Value
}

// Percent returns the score in [0, 100]
func (s Score) Percent() float64 {
	if s.Scale == PercentScale {
		return s.Value
	}
	return s.Value * 100
}

func (s Score) String() string {
	if s.Scale == PercentScale {
		return fmt.Sprintf("%.1f/100", s.Value)
	}
	return fmt.Sprintf("%.3f", s.Value)
}
