package limiter

import (
	"math"
	"testing"
)

func TestTruePeakCapsLoudSignal(t *testing.T) {
	l := New(48000.0)
	l.SetThreshold(-1.0)
	l.SetRelease(0.05)

	in := make([]float32, 2048)
	for i := range in {
		in[i] = float32(1.5 * math.Sin(2*math.Pi*440.0*float64(i)/48000.0))
	}
	out := make([]float32, len(in))

	for i := 0; i < 10; i++ {
		l.ProcessBuffer(in, out)
	}

	thresholdLinear := float32(math.Pow(10, -1.0/20.0))
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite sample at index %d: %v", i, v)
		}
		if v > thresholdLinear+0.05 || v < -(thresholdLinear+0.05) {
			t.Fatalf("sample %d exceeds the configured ceiling: %v", i, v)
		}
	}
}

func TestTruePeakPassesQuietSignalThrough(t *testing.T) {
	l := New(48000.0)
	l.SetThreshold(-1.0)
	l.SetRelease(0.05)

	in := make([]float32, 512)
	for i := range in {
		in[i] = float32(0.05 * math.Sin(2*math.Pi*220.0*float64(i)/48000.0))
	}
	out := make([]float32, len(in))
	l.ProcessBuffer(in, out)

	var peak float32
	for _, v := range out {
		if v > peak {
			peak = v
		}
		if v < -peak {
			peak = -v
		}
	}
	if peak < 0.01 {
		t.Fatalf("a quiet signal should pass through largely unattenuated, got peak %v", peak)
	}
}
