// Package graph implements the Processor contract, the Track, the audio
// graph registry and the realtime Engine that ties them together with the
// rest of the RT event pipeline.
package graph

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// Processor is the contract every node in the audio graph implements,
// whether an internal plugin, a track, or a future out-of-process bridge.
// ProcessAudio and ProcessEvent run exclusively on the realtime thread: no
// allocation, no locking, no I/O.
type Processor interface {
	Info() plugin.Info
	ID() uint32
	SetID(id uint32)

	Parameters() *param.Registry

	ChannelCount() (in, out int)

	// Init prepares the processor to run at sampleRate. It is called once,
	// before the processor is inserted into a track; a non-nil error means
	// the processor must not be inserted.
	Init(sampleRate float64) error

	// Configure re-derives any sample-rate-dependent internal state after
	// the engine's sample rate changes. Unlike Init this cannot fail: the
	// processor is already live in a track and must keep running.
	Configure(sampleRate float64)

	// SetInputChannels offers channels as the upstream channel count and
	// returns the channel count this processor will actually produce.
	// Fixed-shape processors cannot adapt; they simply report their own
	// static output count back, leaving the caller to decide what to do
	// about a mismatch.
	SetInputChannels(channels int) int

	// ProcessAudio renders one chunk. in and out may alias for in-place
	// processors; callers must not assume either.
	ProcessAudio(in, out *buffer.SampleBuffer)

	// ProcessEvent handles one realtime event addressed to this processor.
	ProcessEvent(e rtevent.Event)

	Enabled() bool
	SetEnabled(enabled bool)
	Bypassed() bool
	SetBypassed(bypassed bool)
}

// InternalPluginBase provides the bookkeeping every internal plugin shares:
// identity, a parameter registry, bypass state, and the notify/async-work
// hooks a plugin uses to talk back to the control plane without touching the
// RT rings directly. It mirrors pkg/framework/plugin.Base, generalized from
// a single VST3-style AudioProcessor callback to the full Processor
// contract (ProcessEvent, channel negotiation, bypass).
type InternalPluginBase struct {
	*plugin.Base
	id          uint32
	enabled     bool
	bypassed    bool
	toNonRT     *rtevent.Ring
	inChannels  int
	outChannels int
}

// NewInternalPluginBase constructs a base for an internal plugin with inCh/outCh
// static channel counts and toNonRT as the RT->non-RT ring it may post
// notifications and async-work requests through. The plugin starts enabled.
func NewInternalPluginBase(info plugin.Info, inCh, outCh int, toNonRT *rtevent.Ring) *InternalPluginBase {
	return &InternalPluginBase{
		Base:        plugin.NewBase(info),
		enabled:     true,
		toNonRT:     toNonRT,
		inChannels:  inCh,
		outChannels: outCh,
	}
}

func (b *InternalPluginBase) Info() plugin.Info { return b.Base.Info }
func (b *InternalPluginBase) ID() uint32         { return b.id }
func (b *InternalPluginBase) SetID(id uint32)    { b.id = id }
func (b *InternalPluginBase) Enabled() bool      { return b.enabled }
func (b *InternalPluginBase) SetEnabled(enabled bool) {
	b.enabled = enabled
}
func (b *InternalPluginBase) Bypassed() bool { return b.bypassed }
func (b *InternalPluginBase) SetBypassed(bypassed bool) {
	b.bypassed = bypassed
}
func (b *InternalPluginBase) ChannelCount() (in, out int) { return b.inChannels, b.outChannels }

// Init is a no-op by default: internal plugins fully configure their DSP
// state at construction and never fail to initialize. Processors whose
// internal objects bake in the sample rate at construction time override
// this to rebuild that state for real once the engine's sample rate is
// known.
func (b *InternalPluginBase) Init(sampleRate float64) error { return nil }

// Configure is a no-op by default; processors with sample-rate-dependent
// internal state override it to rebuild that state in place, without
// disturbing their position in the chain.
func (b *InternalPluginBase) Configure(sampleRate float64) {}

// SetInputChannels reports this plugin's static output count; fixed-shape
// internal plugins cannot adapt their channel layout to what is offered.
func (b *InternalPluginBase) SetInputChannels(channels int) int { return b.outChannels }

// SetParameterAndNotify updates a parameter's normalized value and, if the
// RT->non-RT ring has room, posts a float-parameter-change event so the
// dispatcher can coalesce and broadcast the change to control-plane
// subscribers. Used by internal plugins that change their own parameters in
// response to incoming audio/CV rather than an explicit control request
// (e.g. an envelope follower writing back its measured value).
func (b *InternalPluginBase) SetParameterAndNotify(paramID uint32, value float64) {
	p := b.Parameters().Get(paramID)
	if p == nil {
		return
	}
	p.SetValue(value)
	if b.toNonRT != nil {
		b.toNonRT.Push(rtevent.MakeFloatParameterChangeEvent(b.id, paramID, 0, float32(value)))
	}
}

// OutputEvent posts a realtime event to the RT->non-RT ring on behalf of the
// plugin (e.g. a generated MIDI note from an arpeggiator-style processor).
// It is safe to call from ProcessAudio/ProcessEvent: Ring.Push never blocks
// or allocates.
func (b *InternalPluginBase) OutputEvent(e rtevent.Event) bool {
	if b.toNonRT == nil {
		return false
	}
	return b.toNonRT.Push(e)
}

// ProcessEvent provides the default handling every internal plugin shares:
// bypass toggling and float/int/bool parameter changes addressed to this
// processor's own parameter registry. Plugins with additional event types
// (note on/off, CV) embed InternalPluginBase and override ProcessEvent,
// calling this as a fallback.
func (b *InternalPluginBase) ProcessEvent(e rtevent.Event) {
	switch e.Type {
	case rtevent.TypeBypass:
		b.SetBypassed(e.Bypassed())
	case rtevent.TypeFloatParameterChange:
		if p := b.Parameters().Get(e.ParamID()); p != nil {
			p.SetValue(float64(e.FloatValue()))
		}
	case rtevent.TypeIntParameterChange:
		if p := b.Parameters().Get(e.ParamID()); p != nil {
			p.SetValue(p.Normalize(float64(e.IntValue())))
		}
	case rtevent.TypeBoolParameterChange:
		if p := b.Parameters().Get(e.ParamID()); p != nil {
			v := 0.0
			if e.BoolValue() {
				v = 1.0
			}
			p.SetValue(v)
		}
	}
}
