package buffer

import "testing"

func TestSampleBufferClear(t *testing.T) {
	b := NewSampleBuffer(2, 64)
	for ch := 0; ch < 2; ch++ {
		for i := range b.Channel(ch) {
			b.Channel(ch)[i] = 1
		}
	}
	b.Clear()
	for ch := 0; ch < 2; ch++ {
		for _, s := range b.Channel(ch) {
			if s != 0 {
				t.Fatalf("channel %d not cleared", ch)
			}
		}
	}
}

func TestSampleBufferInterleaveRoundTrip(t *testing.T) {
	const channels, chunk = 2, 8
	b := NewSampleBuffer(channels, chunk)
	interleaved := make([]float32, channels*chunk)
	for i := range interleaved {
		interleaved[i] = float32(i) * 0.1
	}

	b.FromInterleaved(interleaved)

	out := make([]float32, channels*chunk)
	b.ToInterleaved(out)

	for i := range interleaved {
		if out[i] != interleaved[i] {
			t.Fatalf("round trip mismatch at %d: got %v want %v", i, out[i], interleaved[i])
		}
	}
}

func TestSampleBufferAddWithGain(t *testing.T) {
	const chunk = 16
	a := NewSampleBuffer(1, chunk)
	src := NewSampleBuffer(1, chunk)
	for i := range a.Channel(0) {
		a.Channel(0)[i] = 1.0
		src.Channel(0)[i] = 1.0
	}

	a.AddWithGain(src, 0.5)

	for i, v := range a.Channel(0) {
		want := float32(1.5)
		if diff := v - want; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestSampleBufferRampMonotonic(t *testing.T) {
	const chunk = 32
	b := NewSampleBuffer(1, chunk)
	b.Ramp(0.0, 1.0)

	ch := b.Channel(0)
	if ch[0] != 0.0 {
		t.Fatalf("ramp start = %v, want 0", ch[0])
	}
	if diff := ch[chunk-1] - 1.0; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("ramp end = %v, want 1", ch[chunk-1])
	}
	for i := 1; i < chunk; i++ {
		if ch[i] < ch[i-1] {
			t.Fatalf("ramp not monotonic at %d", i)
		}
	}
}

func TestSampleBufferClipCounting(t *testing.T) {
	b := NewSampleBuffer(1, 4)
	copy(b.Channel(0), []float32{0.5, 1.5, -1.2, -0.9})

	if got := b.CountClippedSamples(0); got != 2 {
		t.Fatalf("CountClippedSamples = %d, want 2", got)
	}
}

func TestSampleBufferSwapPreservesOwnership(t *testing.T) {
	owning := NewSampleBuffer(1, 4)
	raw := make([][]float32, 1)
	raw[0] = make([]float32, 4)
	view := NewSampleBufferView(raw, 4)

	Swap(owning, view)

	if !view.IsOwning() {
		t.Fatal("view should have become owning after swap")
	}
	if owning.IsOwning() {
		t.Fatal("owning buffer should have become a view after swap")
	}
}

func TestSampleBufferPeakAndRMS(t *testing.T) {
	b := NewSampleBuffer(1, 4)
	copy(b.Channel(0), []float32{1.0, -1.0, 1.0, -1.0})

	if peak := b.CalcPeakValue(0); peak != 1.0 {
		t.Fatalf("peak = %v, want 1.0", peak)
	}
	if rms := b.CalcRMSValue(0); rms != 1.0 {
		t.Fatalf("rms = %v, want 1.0", rms)
	}
}
