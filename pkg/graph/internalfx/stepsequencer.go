package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
	"github.com/justyntemme/sushi-core/pkg/timing"
)

const maxSteps = 16

// StepSequencer advances one step per beat (as reported by the shared
// Transport) and emits a note-on/note-off pair for whichever steps are
// enabled, letting a track drive an instrument purely from its own
// parameters with no external MIDI source.
type StepSequencer struct {
	*graph.InternalPluginBase
	transport *timing.Transport
	steps     [maxSteps]bool
	notes     [maxSteps]uint8
	current   int
	lastBeat  int
	gateOpen  bool
}

// NewStepSequencer constructs a 16-step sequencer driven by transport.
func NewStepSequencer(transport *timing.Transport, toNonRT *rtevent.Ring) *StepSequencer {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "Step Sequencer", Vendor: "sushi-core", Version: "1.0.0", Category: "instrument",
	}, 0, 0, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID: 0, Name: "Step Count", ShortName: "Steps", Min: 1, Max: maxSteps, DefaultValue: maxSteps, StepCount: maxSteps - 1,
	})

	s := &StepSequencer{InternalPluginBase: base, transport: transport, lastBeat: -1}
	for i := range s.notes {
		s.notes[i] = 60
		s.steps[i] = true
	}
	return s
}

// SetStep enables/disables step i and sets its note number.
func (s *StepSequencer) SetStep(i int, enabled bool, note uint8) {
	if i < 0 || i >= maxSteps {
		return
	}
	s.steps[i] = enabled
	s.notes[i] = note
}

func (s *StepSequencer) stepCount() int {
	p := s.Parameters().Get(0)
	n := int(p.GetPlainValue())
	if n < 1 {
		n = 1
	}
	if n > maxSteps {
		n = maxSteps
	}
	return n
}

// ProcessAudio emits no audio; it only watches the transport for the next
// beat boundary and emits keyboard RT events accordingly.
func (s *StepSequencer) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.Clear()

	beat := int(s.transport.CurrentBeats(0))
	if beat == s.lastBeat {
		return
	}
	s.lastBeat = beat

	if s.gateOpen {
		s.OutputEvent(rtevent.MakeNoteOffEvent(s.ID(), 0, s.notes[s.current], 0))
		s.gateOpen = false
	}

	n := s.stepCount()
	s.current = (s.current + 1) % n
	if s.steps[s.current] {
		s.OutputEvent(rtevent.MakeNoteOnEvent(s.ID(), 0, s.notes[s.current], 1.0))
		s.gateOpen = true
	}
}
