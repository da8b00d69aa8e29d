package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/oscillator"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// OscillatorShape selects which waveform TestOscillator generates.
type OscillatorShape int

const (
	OscillatorSine OscillatorShape = iota
	OscillatorSaw
	OscillatorSquare
	OscillatorTriangle
)

const (
	paramOscShape uint32 = iota
	paramOscFrequency
	paramOscLevel
)

// TestOscillator is a free-running tone generator with no audio input, used
// for signal-chain calibration and line checks ahead of a live source.
type TestOscillator struct {
	*graph.InternalPluginBase
	osc *oscillator.Oscillator
}

// NewTestOscillator constructs a tone generator writing to every channel.
func NewTestOscillator(channels int, sampleRate float64, toNonRT *rtevent.Ring) *TestOscillator {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Test Oscillator",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "generator",
	}, 0, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramOscShape, Name: "Shape", ShortName: "Shape", Unit: "", Min: 0, Max: 3, DefaultValue: 0, Flags: param.CanAutomate | param.IsList},
		&param.Parameter{ID: paramOscFrequency, Name: "Frequency", ShortName: "Freq", Unit: "Hz", Min: 20.0, Max: 20000.0, DefaultValue: 440.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramOscLevel, Name: "Level", ShortName: "Level", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.5, Flags: param.CanAutomate},
	)

	return &TestOscillator{InternalPluginBase: base, osc: oscillator.New(sampleRate)}
}

// Configure rebuilds the underlying oscillator at the new sample rate,
// resetting phase.
func (o *TestOscillator) Configure(sampleRate float64) {
	o.osc = oscillator.New(sampleRate)
}

// ProcessAudio ignores in and writes the configured waveform to every
// channel of out, scaled by Level.
func (o *TestOscillator) ProcessAudio(in, out *buffer.SampleBuffer) {
	shape := OscillatorShape(int(o.Parameters().Get(paramOscShape).GetPlainValue()))
	o.osc.SetFrequency(o.Parameters().Get(paramOscFrequency).GetPlainValue())
	level := float32(o.Parameters().Get(paramOscLevel).GetPlainValue())

	n := out.ChunkSize()
	first := out.Channel(0)
	for i := 0; i < n; i++ {
		var v float32
		switch shape {
		case OscillatorSaw:
			v = o.osc.Saw()
		case OscillatorSquare:
			v = o.osc.Square()
		case OscillatorTriangle:
			v = o.osc.Triangle()
		default:
			v = o.osc.Sine()
		}
		first[i] = v * level
	}
	for ch := 1; ch < out.ChannelCount(); ch++ {
		copy(out.Channel(ch), first)
	}
}
