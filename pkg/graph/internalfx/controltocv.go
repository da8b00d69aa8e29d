package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramCVValue  uint32 = 0
	cvGateChannel uint16 = 0

	// notesSpannedByCV is the MIDI note range a 0-1 CV sweep covers: note 60
	// (middle C) lands at 0.5.
	notesSpannedByCV = 120.0
)

// ControlToCV bridges a float control parameter (typically automated from
// the control plane or another track) onto a CV/gate output channel, so a
// modular-style patch can be driven from ordinary parameter automation.
type ControlToCV struct {
	*graph.InternalPluginBase
	lastValue float32
	gateOpen  bool
}

// NewControlToCV constructs a control-to-CV bridge with one output channel.
func NewControlToCV(toNonRT *rtevent.Ring) *ControlToCV {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "Control to CV", Vendor: "sushi-core", Version: "1.0.0", Category: "utility",
	}, 0, 1, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID: paramCVValue, Name: "CV Value", ShortName: "CV", Min: 0, Max: 1, DefaultValue: 0,
		Flags: param.CanAutomate,
	})

	return &ControlToCV{InternalPluginBase: base}
}

// ProcessAudio emits no audio of its own; CV/gate values leave via RT
// events pushed from ProcessEvent, not the audio buffer.
func (c *ControlToCV) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.Clear()
}

// ProcessEvent reacts to a parameter change by emitting a CV sample event
// and, on crossing the open/close threshold, a gate-edge event; it also
// bridges note on/off directly to pitch-CV and gate, for patches driven from
// a MIDI source rather than parameter automation.
func (c *ControlToCV) ProcessEvent(e rtevent.Event) {
	c.InternalPluginBase.ProcessEvent(e)

	switch e.Type {
	case rtevent.TypeFloatParameterChange:
		if e.ParamID() != paramCVValue {
			return
		}
		c.emitCV(e.FloatValue(), e.SampleOffset)
		c.setGateFromThreshold(e.FloatValue(), e.SampleOffset)

	case rtevent.TypeNoteOn:
		c.emitCV(noteToCV(e.Note()), e.SampleOffset)
		c.setGate(true, e.SampleOffset)

	case rtevent.TypeNoteOff:
		c.setGate(false, e.SampleOffset)
	}
}

// noteToCV maps a MIDI note number onto the 0-1 CV range used for pitch:
// note 60 (middle C) lands exactly at 0.5.
func noteToCV(note uint8) float32 {
	return float32(note) / notesSpannedByCV
}

func (c *ControlToCV) emitCV(value float32, offset uint32) {
	c.lastValue = value
	c.OutputEvent(rtevent.MakeCVEvent(c.ID(), offset, cvGateChannel, value))
}

// setGateFromThreshold opens the gate once an automated CV value crosses
// the midpoint, and closes it on the way back down.
func (c *ControlToCV) setGateFromThreshold(value float32, offset uint32) {
	c.setGate(value > 0.5, offset)
}

func (c *ControlToCV) setGate(open bool, offset uint32) {
	if open == c.gateOpen {
		return
	}
	c.gateOpen = open
	c.OutputEvent(rtevent.MakeGateEvent(c.ID(), offset, cvGateChannel, open))
}
