package common

import (
	"math"
	"testing"
)

func TestZNormalize(t *testing.T) {
	got := ZNormalize([]float64{1, 2, 3, 4, 5})

	mean, std := MeanStdDev(got)
	if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
		t.Errorf("mean=%v std=%v, want 0 and 1", mean, std)
	}

	for i, v := range ZNormalize([]float64{3, 3, 3}) {
		if v != 0 {
			t.Errorf("constant input[%d] = %v, want 0", i, v)
		}
	}

	if len(ZNormalize(nil)) != 0 {
		t.Error("empty input should give empty output")
	}
}

func TestZNormalizeColumns(t *testing.T) {
	matrix := [][]float64{
		{1, 10, 7},
		{2, 20, 7},
		{3, 30, 7},
	}

	got := ZNormalizeColumns(matrix)

	// columns 0 and 1 differ only in scale, so they normalize identically
	for r := range got {
		if math.Abs(got[r][0]-got[r][1]) > 1e-12 {
			t.Errorf("row %d: %v vs %v", r, got[r][0], got[r][1])
		}
		if got[r][2] != 0 {
			t.Errorf("constant column row %d = %v, want 0", r, got[r][2])
		}
	}

	if matrix[0][0] != 1 {
		t.Error("input matrix was modified")
	}
}

func TestSafeRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"equal", 2, 2, 1},
		{"half", 1, 2, 0.5},
		{"swapped", 2, 1, 0.5},
		{"both zero", 0, 0, 0},
		{"one zero", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeRatio(tt.a, tt.b, 1e-8); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SafeRatio(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	if got := Percentile(data, 0); got != 1 {
		t.Errorf("p0 = %v, want 1", got)
	}
	if got := Percentile(data, 1); got != 5 {
		t.Errorf("p100 = %v, want 5", got)
	}
	if data[0] != 5 {
		t.Error("input was sorted in place")
	}
	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	if got := CoefficientOfVariation([]float64{100, 100, 100}); got != 0 {
		t.Errorf("constant CV = %v, want 0", got)
	}
	if got := CoefficientOfVariation([]float64{90, 110}); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("CV = %v, want 0.1", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 3: 4, 512: 512, 513: 1024} {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestResample(t *testing.T) {
	signal := make([]float64, 441)
	for i := range signal {
		signal[i] = 0.25
	}

	down := Resample(signal, 44100, 16000)
	if len(down) != 160 {
		t.Fatalf("len = %d, want 160", len(down))
	}
	for i, v := range down {
		if math.Abs(v-0.25) > 1e-12 {
			t.Fatalf("down[%d] = %v, want 0.25", i, v)
		}
	}

	ramp := []float64{0, 1, 2, 3}
	up := Resample(ramp, 8000, 16000)
	if len(up) != 8 || up[1] != 0.5 || up[7] != 3 {
		t.Errorf("upsampled ramp = %v", up)
	}

	same := Resample(ramp, 16000, 16000)
	same[0] = 9
	if ramp[0] != 0 {
		t.Error("equal-rate resample aliased its input")
	}
}
