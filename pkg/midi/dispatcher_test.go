package midi

import (
	"testing"
)

func TestDispatcherRoutesNoteOnByPortAndChannel(t *testing.T) {
	d := NewDispatcher(48000.0)
	d.SetRoutingTable(NewRoutingTable().WithNoteRoute(0, 0, 42))

	evt, ok := d.ToRTEvent(0, NoteOnEvent{BaseEvent: BaseEvent{EventChannel: 0, Offset: 10}, NoteNumber: 60, Velocity: 127})
	if !ok {
		t.Fatal("expected a routed note-on event")
	}
	if evt.ProcessorID != 42 || evt.Note() != 60 {
		t.Fatalf("unexpected event: processorID=%d note=%d", evt.ProcessorID, evt.Note())
	}

	if _, ok := d.ToRTEvent(1, NoteOnEvent{BaseEvent: BaseEvent{EventChannel: 0}}); ok {
		t.Fatal("expected no route on an unmapped port")
	}
}

func TestDispatcherCCAbsoluteAndRelative(t *testing.T) {
	d := NewDispatcher(48000.0)
	table := NewRoutingTable().
		WithCCBinding(0, 0, CCVolume, CCBinding{ProcessorID: 1, ParamID: 5, Mode: CCAbsolute}).
		WithCCBinding(0, 0, CCPan, CCBinding{ProcessorID: 1, ParamID: 6, Mode: CCRelative})
	d.SetRoutingTable(table)

	evt, ok := d.ToRTEvent(0, ControlChangeEvent{BaseEvent: BaseEvent{EventChannel: 0}, Controller: CCVolume, Value: 127})
	if !ok || evt.FloatValue() < 0.99 {
		t.Fatalf("absolute CC mapping wrong: ok=%v value=%v", ok, evt.FloatValue())
	}

	evt2, ok := d.ToRTEvent(0, ControlChangeEvent{BaseEvent: BaseEvent{EventChannel: 0}, Controller: CCPan, Value: 64})
	if !ok || evt2.FloatValue() != 0 {
		t.Fatalf("relative CC centered at 64 should map to 0, got %v", evt2.FloatValue())
	}
}

func TestDispatcherClockTicksScaleWithTempo(t *testing.T) {
	d := NewDispatcher(48000.0)
	ticks := 0
	for i := 0; i < 100; i++ {
		ticks += d.ClockTicksForChunk(120.0, 64)
	}
	if ticks == 0 {
		t.Fatal("expected clock ticks to accumulate over many chunks")
	}
}
