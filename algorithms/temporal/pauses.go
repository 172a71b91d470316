package temporal

// Segment is a time span in seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Activity splits an RMS envelope into speech runs and the pauses between them
type Activity struct {
	Speech []Segment `json:"speech"`
	Pauses []Segment `json:"pauses"` // internal silences only, leading/trailing excluded
}

// SegmentActivity labels envelope frames above threshold as speech and
// reports silent runs of at least minPause seconds that sit between speech.
// Shorter silent runs are merged into the surrounding speech.
func SegmentActivity(envelope []float64, threshold, hopSeconds, minPause float64) Activity {
	var activity Activity

	// raw runs of equal activity
	type run struct {
		start, end int
		speech     bool
	}
	var runs []run
	for i, rms := range envelope {
		speech := rms > threshold
		if len(runs) > 0 && runs[len(runs)-1].speech == speech {
			runs[len(runs)-1].end = i + 1
			continue
		}
		runs = append(runs, run{start: i, end: i + 1, speech: speech})
	}

	toSegment := func(r run) Segment {
		return Segment{Start: float64(r.start) * hopSeconds, End: float64(r.end) * hopSeconds}
	}

	var current *Segment
	for i, r := range runs {
		seg := toSegment(r)
		internal := i > 0 && i < len(runs)-1

		switch {
		case r.speech:
			if current == nil {
				activity.Speech = append(activity.Speech, seg)
				current = &activity.Speech[len(activity.Speech)-1]
			} else {
				current.End = seg.End
			}
		case internal && seg.Duration() >= minPause:
			activity.Pauses = append(activity.Pauses, seg)
			current = nil
		case internal && current != nil:
			// short gap, keep the speech segment open
			current.End = seg.End
		}
	}

	return activity
}
