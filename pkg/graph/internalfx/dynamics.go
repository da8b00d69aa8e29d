package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/dynamics"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramDynThreshold uint32 = iota
	paramDynRatio
	paramDynAttack
	paramDynRelease
	paramDynMakeup
	paramDynLimiterThreshold
)

// Dynamics chains a feed-forward compressor into a brickwall limiter, one
// instance per channel so stereo (or wider) material keeps independent gain
// reduction per side.
type Dynamics struct {
	*graph.InternalPluginBase
	compressors []*dynamics.Compressor
	limiters    []*dynamics.Limiter
	scratch     []float32
}

// NewDynamics constructs a per-channel compressor+limiter chain.
func NewDynamics(channels int, sampleRate float64, toNonRT *rtevent.Ring) *Dynamics {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Dynamics",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "dynamics",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramDynThreshold, Name: "Threshold", ShortName: "Thresh", Unit: "dB", Min: -60.0, Max: 0.0, DefaultValue: -20.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDynRatio, Name: "Ratio", ShortName: "Ratio", Unit: ":1", Min: 1.0, Max: 20.0, DefaultValue: 4.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDynAttack, Name: "Attack", ShortName: "Atk", Unit: "s", Min: 0.0001, Max: 0.25, DefaultValue: 0.005, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDynRelease, Name: "Release", ShortName: "Rel", Unit: "s", Min: 0.005, Max: 2.0, DefaultValue: 0.050, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDynMakeup, Name: "Makeup", ShortName: "Mkup", Unit: "dB", Min: 0.0, Max: 24.0, DefaultValue: 0.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDynLimiterThreshold, Name: "Limiter Threshold", ShortName: "LimThr", Unit: "dB", Min: -12.0, Max: 0.0, DefaultValue: -0.3, Flags: param.CanAutomate},
	)

	d := &Dynamics{InternalPluginBase: base}
	for i := 0; i < channels; i++ {
		d.compressors = append(d.compressors, dynamics.NewCompressor(sampleRate))
		d.limiters = append(d.limiters, dynamics.NewLimiter(sampleRate))
	}
	return d
}

// Configure rebuilds every channel's compressor+limiter pair at the new
// sample rate; their envelope timing is baked in at construction, so gain
// reduction state does not survive a rate change.
func (d *Dynamics) Configure(sampleRate float64) {
	channels := len(d.compressors)
	d.compressors = d.compressors[:0]
	d.limiters = d.limiters[:0]
	for i := 0; i < channels; i++ {
		d.compressors = append(d.compressors, dynamics.NewCompressor(sampleRate))
		d.limiters = append(d.limiters, dynamics.NewLimiter(sampleRate))
	}
}

// ProcessAudio runs each channel's compressor into its limiter.
func (d *Dynamics) ProcessAudio(in, out *buffer.SampleBuffer) {
	threshold := d.Parameters().Get(paramDynThreshold).GetPlainValue()
	ratio := d.Parameters().Get(paramDynRatio).GetPlainValue()
	attack := d.Parameters().Get(paramDynAttack).GetPlainValue()
	release := d.Parameters().Get(paramDynRelease).GetPlainValue()
	makeup := d.Parameters().Get(paramDynMakeup).GetPlainValue()
	limThreshold := d.Parameters().Get(paramDynLimiterThreshold).GetPlainValue()

	if cap(d.scratch) < out.ChunkSize() {
		d.scratch = make([]float32, out.ChunkSize())
	}
	scratch := d.scratch[:out.ChunkSize()]

	for ch := 0; ch < out.ChannelCount() && ch < len(d.compressors); ch++ {
		c := d.compressors[ch]
		l := d.limiters[ch]
		c.SetThreshold(threshold)
		c.SetRatio(ratio)
		c.SetAttack(attack)
		c.SetRelease(release)
		c.SetMakeupGain(makeup)
		l.SetThreshold(limThreshold)

		inSamples := in.Channel(ch)
		outSamples := out.Channel(ch)
		c.ProcessBuffer(inSamples, scratch)
		l.ProcessBuffer(scratch, outSamples)
	}
}
