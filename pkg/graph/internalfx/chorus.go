package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/modulation"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramChorusRate uint32 = iota
	paramChorusDepth
	paramChorusMix
	paramChorusFeedback
)

// Chorus wraps the multi-voice modulated-delay chorus, summing its input
// channels to mono before spreading the result back to a stereo pair - the
// algorithm itself is inherently a mono-in/stereo-out effect.
type Chorus struct {
	*graph.InternalPluginBase
	ch *modulation.Chorus
}

// NewChorus constructs a stereo chorus effect.
func NewChorus(sampleRate float64, toNonRT *rtevent.Ring) *Chorus {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Chorus",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "modulation",
	}, 2, 2, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramChorusRate, Name: "Rate", ShortName: "Rate", Unit: "Hz", Min: 0.05, Max: 10.0, DefaultValue: 0.5, Flags: param.CanAutomate},
		&param.Parameter{ID: paramChorusDepth, Name: "Depth", ShortName: "Depth", Unit: "ms", Min: 0.0, Max: 20.0, DefaultValue: 3.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramChorusMix, Name: "Mix", ShortName: "Mix", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.5, Flags: param.CanAutomate},
		&param.Parameter{ID: paramChorusFeedback, Name: "Feedback", ShortName: "Fbck", Unit: "", Min: 0.0, Max: 0.9, DefaultValue: 0.0, Flags: param.CanAutomate},
	)

	return &Chorus{InternalPluginBase: base, ch: modulation.NewChorus(sampleRate)}
}

// Configure rebuilds the chorus engine at the new sample rate; its
// modulated delay line is sized for sampleRate at construction.
func (c *Chorus) Configure(sampleRate float64) {
	c.ch = modulation.NewChorus(sampleRate)
}

// ProcessAudio sums the input to mono, runs it through the chorus, and
// writes the resulting stereo pair to out.
func (c *Chorus) ProcessAudio(in, out *buffer.SampleBuffer) {
	c.ch.SetRate(c.Parameters().Get(paramChorusRate).GetPlainValue())
	c.ch.SetDepth(c.Parameters().Get(paramChorusDepth).GetPlainValue())
	c.ch.SetMix(c.Parameters().Get(paramChorusMix).GetPlainValue())
	c.ch.SetFeedback(c.Parameters().Get(paramChorusFeedback).GetPlainValue())

	if out.ChannelCount() < 2 {
		return
	}
	outLeft, outRight := out.Channel(0), out.Channel(1)
	for i := range outLeft {
		var mono float32
		for ch := 0; ch < in.ChannelCount(); ch++ {
			mono += in.Channel(ch)[i]
		}
		if in.ChannelCount() > 0 {
			mono /= float32(in.ChannelCount())
		}
		outLeft[i], outRight[i] = c.ch.Process(mono)
	}
}
