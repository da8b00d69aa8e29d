package internalfx

import (
	"testing"

	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// TestControlToCVNoteOnEmitsGateAndPitchCV exercises the note-on -> gate/CV
// bridge: note 60 at full velocity should open gate 0 and place a CV sample
// of 0.5 (60/120) on the pitch channel.
func TestControlToCVNoteOnEmitsGateAndPitchCV(t *testing.T) {
	toNonRT := rtevent.NewDefaultRing()
	c := NewControlToCV(toNonRT)

	c.ProcessEvent(rtevent.MakeNoteOnEvent(c.ID(), 0, 60, 1.0))

	var gate, cv rtevent.Event
	var sawGate, sawCV bool
	var e rtevent.Event
	for toNonRT.Pop(&e) {
		switch e.Type {
		case rtevent.TypeGateEdge:
			gate, sawGate = e, true
		case rtevent.TypeCVSample:
			cv, sawCV = e, true
		}
	}

	if !sawGate {
		t.Fatal("expected a gate-edge event on note-on")
	}
	if !gate.GateHigh() {
		t.Fatal("note-on should open the gate")
	}
	if gate.Channel() != cvGateChannel {
		t.Fatalf("expected gate channel %d, got %d", cvGateChannel, gate.Channel())
	}

	if !sawCV {
		t.Fatal("expected a CV sample event on note-on")
	}
	if got := cv.Value(); got < 0.499 || got > 0.501 {
		t.Fatalf("midi note 60 should map to CV 0.5, got %v", got)
	}
}

// TestControlToCVNoteOffClosesGate confirms the gate closes on note-off
// without emitting another CV sample.
func TestControlToCVNoteOffClosesGate(t *testing.T) {
	toNonRT := rtevent.NewDefaultRing()
	c := NewControlToCV(toNonRT)

	c.ProcessEvent(rtevent.MakeNoteOnEvent(c.ID(), 0, 60, 1.0))
	var drain rtevent.Event
	for toNonRT.Pop(&drain) {
	}

	c.ProcessEvent(rtevent.MakeNoteOffEvent(c.ID(), 0, 60, 0.0))

	var sawGateLow bool
	var e rtevent.Event
	for toNonRT.Pop(&e) {
		if e.Type == rtevent.TypeGateEdge && !e.GateHigh() {
			sawGateLow = true
		}
	}
	if !sawGateLow {
		t.Fatal("expected a gate-low event on note-off")
	}
}
