package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/pan"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramAutoPanRate uint32 = iota
	paramAutoPanDepth
)

// AutoPan sweeps a mono input across a stereo field with a sine LFO. Like
// Chorus, it sums multi-channel input to mono before panning.
type AutoPan struct {
	*graph.InternalPluginBase
	ap         *pan.AutoPan
	sampleRate float64
	mono       []float32
}

// NewAutoPan constructs a stereo auto-panner.
func NewAutoPan(sampleRate float64, toNonRT *rtevent.Ring) *AutoPan {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Auto Pan",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "utility",
	}, 2, 2, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramAutoPanRate, Name: "Rate", ShortName: "Rate", Unit: "Hz", Min: 0.05, Max: 10.0, DefaultValue: 0.5, Flags: param.CanAutomate},
		&param.Parameter{ID: paramAutoPanDepth, Name: "Depth", ShortName: "Depth", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 1.0, Flags: param.CanAutomate},
	)

	return &AutoPan{
		InternalPluginBase: base,
		ap:                 pan.NewAutoPan(0.5, 1.0, pan.Linear),
		sampleRate:         sampleRate,
	}
}

// Configure updates the sample rate used to advance the panning LFO; the
// LFO itself carries no sample-rate-dependent state baked in at
// construction.
func (a *AutoPan) Configure(sampleRate float64) {
	a.sampleRate = sampleRate
}

// ProcessAudio sums the input to mono and sweeps it across out's stereo pair.
func (a *AutoPan) ProcessAudio(in, out *buffer.SampleBuffer) {
	a.ap.SetRate(float32(a.Parameters().Get(paramAutoPanRate).GetPlainValue()))
	a.ap.SetDepth(float32(a.Parameters().Get(paramAutoPanDepth).GetPlainValue()))

	if out.ChannelCount() < 2 {
		return
	}
	n := out.ChunkSize()
	if cap(a.mono) < n {
		a.mono = make([]float32, n)
	}
	mono := a.mono[:n]
	for i := 0; i < n; i++ {
		var sum float32
		for ch := 0; ch < in.ChannelCount(); ch++ {
			sum += in.Channel(ch)[i]
		}
		if in.ChannelCount() > 0 {
			sum /= float32(in.ChannelCount())
		}
		mono[i] = sum
	}

	a.ap.Process(mono, float32(a.sampleRate), out.Channel(0), out.Channel(1))
}
