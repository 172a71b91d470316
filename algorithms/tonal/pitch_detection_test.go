package tonal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-tutor/config"
)

const sampleRate = 16000

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestTrackSine(t *testing.T) {
	tracker := NewPitchTracker(config.DefaultFeatureConfig().Pitch)

	// 200 Hz has an integer period of 80 samples at 16 kHz
	track := tracker.Track(sine(200, sampleRate), sampleRate)

	if len(track) != (sampleRate-2048)/512+1 {
		t.Fatalf("got %d frames", len(track))
	}
	for i, f0 := range track {
		if f0 != 200 {
			t.Errorf("frame %d: f0 = %v, want 200", i, f0)
		}
	}
}

func TestTrackSilenceIsUnvoiced(t *testing.T) {
	tracker := NewPitchTracker(config.DefaultFeatureConfig().Pitch)

	for i, f0 := range tracker.Track(make([]float64, sampleRate/2), sampleRate) {
		if f0 != 0 {
			t.Errorf("frame %d: f0 = %v, want exactly 0", i, f0)
		}
	}
}

func TestTrackNoiseIsUnvoiced(t *testing.T) {
	tracker := NewPitchTracker(config.DefaultFeatureConfig().Pitch)

	rng := rand.New(rand.NewSource(1))
	noise := make([]float64, sampleRate)
	for i := range noise {
		noise[i] = rng.NormFloat64() * 0.3
	}

	voiced := Voiced(tracker.Track(noise, sampleRate))
	if len(voiced) > 2 {
		t.Errorf("white noise produced %d voiced frames", len(voiced))
	}
}

func TestShortSignalPadded(t *testing.T) {
	tracker := NewPitchTracker(config.DefaultFeatureConfig().Pitch)

	track := tracker.Track(sine(200, 1000), sampleRate)
	if len(track) != 1 {
		t.Fatalf("got %d frames, want 1", len(track))
	}
}

func TestLagRangeOutsideBuffer(t *testing.T) {
	params := config.DefaultFeatureConfig().Pitch
	params.FrameSize = 128 // max lag 200 does not fit
	tracker := NewPitchTracker(params)

	if f0 := tracker.DetectFrame(sine(200, 128), sampleRate); f0 != 0 {
		t.Errorf("f0 = %v, want 0 when the lag range exceeds the frame", f0)
	}
}

func TestVoiced(t *testing.T) {
	got := Voiced([]float64{0, 120, 0, 130})
	if len(got) != 2 || got[0] != 120 || got[1] != 130 {
		t.Errorf("Voiced = %v", got)
	}
}
