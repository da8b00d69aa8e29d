package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/delay"
	"github.com/justyntemme/sushi-core/pkg/dsp/mix"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramDelayTime uint32 = iota
	paramDelayFeedback
	paramDelayMix
)

const maxDelaySeconds = 2.0

// Delay runs one feedback delay line per channel.
type Delay struct {
	*graph.InternalPluginBase
	lines      []*delay.Line
	sampleRate float64
}

// NewDelay constructs a delay with one line per channel.
func NewDelay(channels int, sampleRate float64, toNonRT *rtevent.Ring) *Delay {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Delay",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "time",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramDelayTime, Name: "Time", ShortName: "Time", Unit: "ms", Min: 1.0, Max: maxDelaySeconds * 1000.0, DefaultValue: 250.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDelayFeedback, Name: "Feedback", ShortName: "Fbck", Unit: "", Min: 0.0, Max: 0.95, DefaultValue: 0.3, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDelayMix, Name: "Mix", ShortName: "Mix", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.35, Flags: param.CanAutomate},
	)

	lines := make([]*delay.Line, channels)
	for ch := range lines {
		lines[ch] = delay.New(maxDelaySeconds, sampleRate)
	}

	return &Delay{InternalPluginBase: base, lines: lines, sampleRate: sampleRate}
}

// Configure rebuilds every channel's delay line at the new sample rate; a
// delay line's buffer is sized for sampleRate at construction, so feedback
// state does not survive a rate change.
func (d *Delay) Configure(sampleRate float64) {
	d.sampleRate = sampleRate
	for ch := range d.lines {
		d.lines[ch] = delay.New(maxDelaySeconds, sampleRate)
	}
}

// ProcessAudio feeds each channel through its own delay line with feedback
// mixed back in before the wet/dry blend.
func (d *Delay) ProcessAudio(in, out *buffer.SampleBuffer) {
	delayMs := d.Parameters().Get(paramDelayTime).GetPlainValue()
	feedback := float32(d.Parameters().Get(paramDelayFeedback).GetPlainValue())
	mixAmount := float32(d.Parameters().Get(paramDelayMix).GetPlainValue())
	delaySamples := delayMs * d.sampleRate / 1000.0

	for ch := 0; ch < out.ChannelCount() && ch < len(d.lines); ch++ {
		line := d.lines[ch]
		inSamples := in.Channel(ch)
		outSamples := out.Channel(ch)
		for i, dry := range inSamples {
			wet := line.Read(delaySamples)
			line.Write(dry + wet*feedback)
			outSamples[i] = mix.DryWet(dry, wet, mixAmount)
		}
	}
}
