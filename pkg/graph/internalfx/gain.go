// Package internalfx implements the internal plugin catalogue the engine
// ships without any external plugin bridge: gain, dynamics, a biquad tone
// filter, a waveshaper distortion, a chorus, an auto-panner, a Freeverb
// reverb, a feedback delay, a DC blocker, a test-tone oscillator, a
// peak/RMS meter tap, CV/control bridges, a step sequencer, a sample
// player, mono summing, a transposer, and the master true-peak limiter.
package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/gain"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const paramGain uint32 = 0

// Gain applies a single smoothed gain factor, in decibels, to every channel.
type Gain struct {
	*graph.InternalPluginBase
	smoother *param.Smoother
}

// NewGain constructs a gain processor with channels in/out.
func NewGain(channels int, toNonRT *rtevent.Ring) *Gain {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Gain",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "utility",
	}, channels, channels, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID:           paramGain,
		Name:         "Gain",
		ShortName:    "Gain",
		Unit:         "dB",
		Min:          -24.0,
		Max:          24.0,
		DefaultValue: 0.0,
		Flags:        param.CanAutomate,
	})

	g := &Gain{
		InternalPluginBase: base,
		smoother:           param.NewSmoother(param.ExponentialSmoothing, 0.99),
	}
	g.smoother.Reset(0.0)
	return g
}

// ProcessAudio copies in to out and applies the smoothed gain value, sample
// by sample, so a gain change never produces a zipper click.
func (g *Gain) ProcessAudio(in, out *buffer.SampleBuffer) {
	p := g.Parameters().Get(paramGain)
	g.smoother.SetTarget(p.GetPlainValue())

	out.ReplaceAll(in)
	for i := 0; i < out.ChunkSize(); i++ {
		linear := float32(gain.DbToLinear(g.smoother.Next()))
		for ch := 0; ch < out.ChannelCount(); ch++ {
			samples := out.Channel(ch)
			samples[i] *= linear
		}
	}
}
