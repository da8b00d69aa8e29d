package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/distortion"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramDistCurve uint32 = iota
	paramDistDrive
	paramDistMix
)

// Distortion runs a waveshaper independently on every channel. The sample
// buffer's float32 samples are widened to float64 for the shaping curve and
// narrowed back on the way out, matching the waveshaper's own precision.
type Distortion struct {
	*graph.InternalPluginBase
	shapers []*distortion.Waveshaper
	scratch []float64
}

// NewDistortion constructs a per-channel waveshaper.
func NewDistortion(channels int, toNonRT *rtevent.Ring) *Distortion {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Distortion",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "distortion",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramDistCurve, Name: "Curve", ShortName: "Curve", Unit: "", Min: 0, Max: 6, DefaultValue: 0, Flags: param.CanAutomate | param.IsList},
		&param.Parameter{ID: paramDistDrive, Name: "Drive", ShortName: "Drive", Unit: "", Min: 1.0, Max: 20.0, DefaultValue: 1.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramDistMix, Name: "Mix", ShortName: "Mix", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 1.0, Flags: param.CanAutomate},
	)

	d := &Distortion{InternalPluginBase: base}
	for i := 0; i < channels; i++ {
		d.shapers = append(d.shapers, distortion.NewWaveshaper(distortion.CurveHardClip))
	}
	return d
}

// ProcessAudio applies the configured curve, drive and mix to every channel.
func (d *Distortion) ProcessAudio(in, out *buffer.SampleBuffer) {
	curve := distortion.CurveType(int(d.Parameters().Get(paramDistCurve).GetPlainValue()))
	drive := d.Parameters().Get(paramDistDrive).GetPlainValue()
	mix := d.Parameters().Get(paramDistMix).GetPlainValue()

	if cap(d.scratch) < out.ChunkSize() {
		d.scratch = make([]float64, out.ChunkSize())
	}
	scratch := d.scratch[:out.ChunkSize()]

	for ch := 0; ch < out.ChannelCount() && ch < len(d.shapers); ch++ {
		s := d.shapers[ch]
		s.SetCurveType(curve)
		s.SetDrive(drive)
		s.SetMix(mix)

		inSamples := in.Channel(ch)
		outSamples := out.Channel(ch)
		for i, v := range inSamples {
			scratch[i] = float64(v)
		}
		s.ProcessBuffer(scratch, scratch)
		for i, v := range scratch {
			outSamples[i] = float32(v)
		}
	}
}
