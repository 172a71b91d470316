package stats

import (
	"math"
	"math/rand"
	"testing"
)

func randomFrames(rng *rand.Rand, n, dims int) [][]float64 {
	frames := make([][]float64, n)
	for i := range frames {
		frames[i] = make([]float64, dims)
		for d := range frames[i] {
			frames[i][d] = rng.NormFloat64()
		}
	}
	return frames
}

func TestDTWIdentity(t *testing.T) {
	frames := randomFrames(rand.New(rand.NewSource(1)), 40, 13)

	result, err := NewDTWAlignment().Align(frames, frames)
	if err != nil {
		t.Fatal(err)
	}
	if result.Distance != 0 || result.Similarity != 1 {
		t.Errorf("self alignment = %+v, want zero distance", result)
	}
}

func TestDTWSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randomFrames(rng, 30, 13)
	b := randomFrames(rng, 45, 13)

	ab, err := NewDTWAlignment().Align(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := NewDTWAlignment().Align(b, a)
	if err != nil {
		t.Fatal(err)
	}

	if ab.Distance != ba.Distance || ab.Similarity != ba.Similarity {
		t.Errorf("asymmetric: %v vs %v", ab.Distance, ba.Distance)
	}
}

func TestDTWSmallExample(t *testing.T) {
	// 1-D sequences: [0 1 2] vs [0 1 1 2] align perfectly by repeating 1
	q := [][]float64{{0}, {1}, {2}}
	r := [][]float64{{0}, {1}, {1}, {2}}

	result, err := NewDTWAlignment().Align(q, r)
	if err != nil {
		t.Fatal(err)
	}
	if result.Distance != 0 {
		t.Errorf("Distance = %v, want 0", result.Distance)
	}

	// [0 2] vs [1]: both frames map to the single reference frame
	result, err = NewDTWAlignment().Align([][]float64{{0}, {2}}, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Distance != 2 || math.Abs(result.Normalized-2.0/3.0) > 1e-12 {
		t.Errorf("result = %+v, want distance 2 normalized 2/3", result)
	}
}

func TestDTWBeatsLinearOnInsertion(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	reference := randomFrames(rng, 60, 13)

	// same frames with a run of constant "silence" frames inserted mid-utterance
	silence := make([][]float64, 20)
	for i := range silence {
		silence[i] = make([]float64, 13)
	}
	attempt := append(append(append([][]float64{}, reference[:30]...), silence...), reference[30:]...)

	dtw, err := NewDTWAlignment().Align(reference, attempt)
	if err != nil {
		t.Fatal(err)
	}
	linear := LinearDistance(reference, attempt, EuclideanDistance)

	if !(dtw.Normalized < linear) {
		t.Errorf("DTW distance %v should be below linear distance %v", dtw.Normalized, linear)
	}
	if math.Exp(-dtw.Normalized) <= math.Exp(-linear) {
		t.Error("DTW similarity should degrade less than linear similarity")
	}
}

func TestDTWBandConstraint(t *testing.T) {
	q := [][]float64{{0}, {0}, {0}, {5}}
	r := [][]float64{{5}, {0}, {0}, {0}}

	free, _ := NewDTWAlignment().Align(q, r)
	banded, _ := NewDTWAlignmentWithParams(1, EuclideanDistance).Align(q, r)

	if banded.Distance < free.Distance {
		t.Errorf("banded %v should not beat unconstrained %v", banded.Distance, free.Distance)
	}
}

func TestDTWEmpty(t *testing.T) {
	if _, err := NewDTWAlignment().Align(nil, [][]float64{{1}}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestDTWDimensionMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched frame widths")
		}
	}()
	NewDTWAlignment().Align([][]float64{{1, 2}}, [][]float64{{1, 2, 3}})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 2}, []float64{-1, -2}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"truncated", []float64{1, 0, 5}, []float64{2, 0}, 1},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", nil, []float64{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnitCosineSimilarity(t *testing.T) {
	if got := UnitCosineSimilarity([]float64{1, 2}, []float64{-1, -2}); math.Abs(got) > 1e-12 {
		t.Errorf("opposite = %v, want 0", got)
	}
	if got := UnitCosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("orthogonal = %v, want 0.5", got)
	}
	if got := UnitCosineSimilarity([]float64{0, 0, 0}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("silent side = %v, want 0", got)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([][]float64{{1, 2}, {3}, {}})
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("Flatten = %v", got)
	}
}
