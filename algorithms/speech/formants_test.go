package speech

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tutor/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tutor/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

const sampleRate = 16000

func multiTone(freqs []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		for _, f := range freqs {
			out[i] += 0.3 * math.Sin(2*math.Pi*f*float64(i)/sampleRate)
		}
	}
	return out
}

func spectrogram(t *testing.T, signal []float64) *spectral.STFTResult {
	t.Helper()
	result, err := spectral.NewSTFT().Compute(signal, 512, 160, sampleRate, windowing.NewHamming(512, true))
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGaussianSmootherPreservesMass(t *testing.T) {
	g := NewGaussianSmoother(5)
	if g.radius != 20 || len(g.kernel) != 41 {
		t.Fatalf("radius = %d, kernel = %d", g.radius, len(g.kernel))
	}

	impulse := make([]float64, 257)
	impulse[128] = 1
	smoothed := g.Smooth(impulse)

	sum := 0.0
	for _, v := range smoothed {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("mass = %v, want 1", sum)
	}
	if smoothed[128] <= smoothed[127] || math.Abs(smoothed[127]-smoothed[129]) > 1e-15 {
		t.Error("smoothed impulse is not a centered symmetric bump")
	}
}

func TestGaussianSmootherConstant(t *testing.T) {
	g := NewGaussianSmoother(5)
	// shorter than the kernel to exercise repeated reflection
	constant := []float64{2, 2, 2, 2, 2, 2}
	for i, v := range g.Smooth(constant) {
		if math.Abs(v-2) > 1e-12 {
			t.Errorf("smoothed[%d] = %v, want 2", i, v)
		}
	}
}

func TestReflectIndex(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 4, 0},
		{-2, 4, 1},
		{4, 4, 3},
		{5, 4, 2},
		{9, 4, 1},
		{2, 4, 2},
	}
	for _, tt := range tests {
		if got := reflectIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("reflectIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestTrackRecoversBandPeaks(t *testing.T) {
	tracker := NewFormantTracker(config.DefaultFeatureConfig().Formant, NewGaussianSmoother(5))

	track, err := tracker.Track(spectrogram(t, multiTone([]float64{500, 1500, 3000}, sampleRate/2)))
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	want := [3]float64{500, 1500, 3000}
	for frame, formants := range track {
		for i := range formants {
			if math.Abs(formants[i]-want[i]) > 50 {
				t.Fatalf("frame %d: F%d = %v, want ~%v", frame, i+1, formants[i], want[i])
			}
		}
	}
}

func TestTrackSilentBandsAreZero(t *testing.T) {
	tracker := NewFormantTracker(config.DefaultFeatureConfig().Formant, NewGaussianSmoother(5))

	track, err := tracker.Track(spectrogram(t, make([]float64, 2048)))
	if err != nil {
		t.Fatal(err)
	}
	for frame, formants := range track {
		if formants != [3]float64{} {
			t.Errorf("frame %d: %v, want zeros", frame, formants)
		}
	}
}

func TestBandAboveNyquist(t *testing.T) {
	tracker := NewFormantTracker(config.DefaultFeatureConfig().Formant, NewGaussianSmoother(5))

	// 4 kHz sample rate: Nyquist 2 kHz, so F3 (2500-3500 Hz) cannot exist
	flat := make([]float64, 257)
	for i := range flat {
		flat[i] = 1
	}
	formants := tracker.FrameFormants(flat, 512, 4000)
	if formants[2] != 0 {
		t.Errorf("F3 = %v, want 0 above Nyquist", formants[2])
	}
	if formants[0] == 0 || formants[1] == 0 {
		t.Errorf("F1/F2 = %v/%v, want non-zero", formants[0], formants[1])
	}
}

func TestTrackWithoutSmoother(t *testing.T) {
	tracker := NewFormantTracker(config.DefaultFeatureConfig().Formant, nil)

	_, err := tracker.Track(spectrogram(t, make([]float64, 1024)))
	if !errors.Is(err, ErrNoSmoother) {
		t.Fatalf("err = %v, want ErrNoSmoother", err)
	}
}
