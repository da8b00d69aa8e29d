package timing

import "testing"

func TestTransportTickScenario(t *testing.T) {
	tr := NewTransport(48000.0)
	tr.SetTempo(120.0)
	tr.SetTimeSignature(TimeSignature{Numerator: 4, Denominator: 4})
	tr.SetPlayingMode(Playing)

	const chunkSize = 64
	for i := 0; i < 2000; i++ {
		tr.Tick(chunkSize)
	}

	got := tr.CurrentBeats(0)
	want := 256.0
	if diff := got - want; diff > 1.0 || diff < -1.0 {
		t.Fatalf("CurrentBeats() = %v, want ~%v", got, want)
	}
}

func TestTransportBeatsMonotonicWhilePlaying(t *testing.T) {
	tr := NewTransport(48000.0)
	tr.SetPlayingMode(Playing)

	prev := tr.CurrentBeats(0)
	for i := 0; i < 100; i++ {
		tr.Tick(64)
		cur := tr.CurrentBeats(0)
		if cur < prev {
			t.Fatalf("beats decreased: %v -> %v", prev, cur)
		}
		prev = cur
	}
}

func TestTransportBarBeatsStaysInRange(t *testing.T) {
	tr := NewTransport(48000.0)
	tr.SetTimeSignature(TimeSignature{Numerator: 3, Denominator: 4})
	tr.SetPlayingMode(Playing)

	for i := 0; i < 5000; i++ {
		tr.Tick(64)
		bb := tr.CurrentBarBeats(0)
		if bb < 0 || bb >= 3 {
			t.Fatalf("bar beats out of range: %v", bb)
		}
	}
}

func TestTransportStartStopOneShotFlags(t *testing.T) {
	tr := NewTransport(48000.0)

	tr.SetPlayingMode(Playing)
	tr.Tick(64)
	if !tr.StartedThisChunk() {
		t.Fatal("expected StartedThisChunk on the transition chunk")
	}
	tr.Tick(64)
	if tr.StartedThisChunk() {
		t.Fatal("StartedThisChunk should be one-shot")
	}

	tr.SetPlayingMode(Stopped)
	tr.Tick(64)
	if !tr.StoppedThisChunk() {
		t.Fatal("expected StoppedThisChunk on the transition chunk")
	}
}
