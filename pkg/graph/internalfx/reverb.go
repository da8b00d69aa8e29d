package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/reverb"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramReverbRoomSize uint32 = iota
	paramReverbDamping
	paramReverbWet
	paramReverbDry
	paramReverbWidth
)

// Reverb wraps a stereo Freeverb algorithmic reverb. It always runs on
// exactly two channels; a mono or wider track should sit behind a
// MonoSumming or channel-select stage first.
type Reverb struct {
	*graph.InternalPluginBase
	fv *reverb.Freeverb
}

// NewReverb constructs a stereo Freeverb processor.
func NewReverb(sampleRate float64, toNonRT *rtevent.Ring) *Reverb {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Reverb",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "reverb",
	}, 2, 2, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramReverbRoomSize, Name: "Room Size", ShortName: "Size", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.5, Flags: param.CanAutomate},
		&param.Parameter{ID: paramReverbDamping, Name: "Damping", ShortName: "Damp", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.5, Flags: param.CanAutomate},
		&param.Parameter{ID: paramReverbWet, Name: "Wet", ShortName: "Wet", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.33, Flags: param.CanAutomate},
		&param.Parameter{ID: paramReverbDry, Name: "Dry", ShortName: "Dry", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 0.4, Flags: param.CanAutomate},
		&param.Parameter{ID: paramReverbWidth, Name: "Width", ShortName: "Width", Unit: "", Min: 0.0, Max: 1.0, DefaultValue: 1.0, Flags: param.CanAutomate},
	)

	return &Reverb{InternalPluginBase: base, fv: reverb.NewFreeverb(sampleRate)}
}

// Configure rebuilds the Freeverb engine at the new sample rate; its comb
// and allpass lines are sized for sampleRate at construction.
func (r *Reverb) Configure(sampleRate float64) {
	r.fv = reverb.NewFreeverb(sampleRate)
}

// ProcessAudio applies the configured room parameters and processes the
// stereo pair sample by sample.
func (r *Reverb) ProcessAudio(in, out *buffer.SampleBuffer) {
	r.fv.SetRoomSize(r.Parameters().Get(paramReverbRoomSize).GetPlainValue())
	r.fv.SetDamping(r.Parameters().Get(paramReverbDamping).GetPlainValue())
	r.fv.SetWetLevel(r.Parameters().Get(paramReverbWet).GetPlainValue())
	r.fv.SetDryLevel(r.Parameters().Get(paramReverbDry).GetPlainValue())
	r.fv.SetWidth(r.Parameters().Get(paramReverbWidth).GetPlainValue())

	if in.ChannelCount() < 2 || out.ChannelCount() < 2 {
		return
	}
	left, right := in.Channel(0), in.Channel(1)
	outLeft, outRight := out.Channel(0), out.Channel(1)
	for i := range outLeft {
		outLeft[i], outRight[i] = r.fv.ProcessStereo(left[i], right[i])
	}
}
