package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const paramSemitones uint32 = 0

// Transposer shifts incoming note on/off/aftertouch events by a whole number
// of semitones before forwarding them; it carries no audio of its own.
type Transposer struct {
	*graph.InternalPluginBase
}

// NewTransposer constructs a transposer bridging -24..+24 semitones.
func NewTransposer(toNonRT *rtevent.Ring) *Transposer {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "Transposer", Vendor: "sushi-core", Version: "1.0.0", Category: "utility",
	}, 0, 0, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID: paramSemitones, Name: "Semitones", ShortName: "Semi", Min: -24, Max: 24, DefaultValue: 0, StepCount: 48,
	})

	return &Transposer{InternalPluginBase: base}
}

func (t *Transposer) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.Clear()
}

// ProcessEvent shifts a note event by the configured semitone offset and
// re-emits it; any other event falls back to the base bypass/parameter
// handling.
func (t *Transposer) ProcessEvent(e rtevent.Event) {
	if !rtevent.IsKeyboardEvent(e.Type) || e.Type == rtevent.TypeWrappedMIDI {
		t.InternalPluginBase.ProcessEvent(e)
		return
	}

	semitones := int(t.Parameters().Get(paramSemitones).GetPlainValue())
	note := int(e.Note()) + semitones
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}

	switch e.Type {
	case rtevent.TypeNoteOff:
		t.OutputEvent(rtevent.MakeNoteOffEvent(e.ProcessorID, e.SampleOffset, uint8(note), e.Velocity()))
	case rtevent.TypeNoteAftertouch:
		t.OutputEvent(rtevent.MakeNoteAftertouchEvent(e.ProcessorID, e.SampleOffset, uint8(note), e.Velocity()))
	default:
		t.OutputEvent(rtevent.MakeNoteOnEvent(e.ProcessorID, e.SampleOffset, uint8(note), e.Velocity()))
	}
}
