package stats

import (
	"fmt"
	"math"
)

// DTWAlignment computes Dynamic Time Warping distances between frame sequences.
// Only two rows of the cost matrix are kept, so memory is O(len(reference)).
type DTWAlignment struct {
	constraintBand int // Sakoe-Chiba band, <= 0 for none
	distance       DistanceFunction
}

// DTWResult contains the outcome of an alignment
type DTWResult struct {
	Distance    float64 `json:"distance"`     // Accumulated cost of the best path
	Normalized  float64 `json:"normalized"`   // Distance / (query + reference length)
	Similarity  float64 `json:"similarity"`   // exp(-Normalized), in (0, 1]
	QueryLength int     `json:"query_length"` // Frames in query sequence
	RefLength   int     `json:"ref_length"`   // Frames in reference sequence
}

// NewDTWAlignment creates an unconstrained DTW over Euclidean frame distance
func NewDTWAlignment() *DTWAlignment {
	return &DTWAlignment{
		constraintBand: -1,
		distance:       EuclideanDistance,
	}
}

// NewDTWAlignmentWithParams creates DTW with a band constraint and frame metric
func NewDTWAlignmentWithParams(constraintBand int, distance DistanceFunction) *DTWAlignment {
	return &DTWAlignment{
		constraintBand: constraintBand,
		distance:       distance,
	}
}

// Align runs the classic recurrence
//
//	cost[0][0] = 0
//	cost[i][j] = d(q[i-1], r[j-1]) + min(cost[i-1][j], cost[i][j-1], cost[i-1][j-1])
//
// Frames of different dimensionality panic; that is a caller bug.
func (dtw *DTWAlignment) Align(query, reference [][]float64) (*DTWResult, error) {
	n, m := len(query), len(reference)
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("empty sequences provided (query=%d, reference=%d)", n, m)
	}
	MustMatchDimensions(query, reference)

	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = inf
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = inf
		for j := 1; j <= m; j++ {
			if dtw.constraintBand > 0 && abs(i-j) > dtw.constraintBand {
				curr[j] = inf
				continue
			}

			best := min(prev[j], curr[j-1], prev[j-1])
			curr[j] = dtw.distance(query[i-1], reference[j-1]) + best
		}
		prev, curr = curr, prev
	}

	distance := prev[m]
	normalized := distance / float64(n+m)

	return &DTWResult{
		Distance:    distance,
		Normalized:  normalized,
		Similarity:  math.Exp(-normalized),
		QueryLength: n,
		RefLength:   m,
	}, nil
}

// LinearDistance scores the unwarped alignment: frame i against frame i, then
// any surplus frames of the longer sequence against the last frame of the
// shorter. It is one admissible DTW path, so it never beats Align, and it is
// normalized the same way for direct comparison.
func LinearDistance(query, reference [][]float64, distance DistanceFunction) float64 {
	n, m := len(query), len(reference)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}
	MustMatchDimensions(query, reference)

	total := 0.0
	for i := range max(n, m) {
		total += distance(query[min(i, n-1)], reference[min(i, m-1)])
	}
	return total / float64(n+m)
}

// MustMatchDimensions panics when the two sequences do not share a frame width
func MustMatchDimensions(a, b [][]float64) {
	if len(a) == 0 || len(b) == 0 {
		return
	}
	width := len(a[0])
	for i, frame := range a {
		if len(frame) != width {
			panic(fmt.Sprintf("stats: frame %d has %d dimensions, want %d", i, len(frame), width))
		}
	}
	for i, frame := range b {
		if len(frame) != width {
			panic(fmt.Sprintf("stats: reference frame %d has %d dimensions, want %d", i, len(frame), width))
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
