package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/filter"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// FilterShape selects which biquad design ToneFilter recomputes its
// coefficients as.
type FilterShape int

const (
	FilterLowpass FilterShape = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

const (
	paramFilterShape uint32 = iota
	paramFilterCutoff
	paramFilterQ
)

// ToneFilter is a single biquad filter shared across every channel, its
// shape and cutoff recomputed whenever a parameter changes.
type ToneFilter struct {
	*graph.InternalPluginBase
	biquad     *filter.Biquad
	sampleRate float64

	lastShape  FilterShape
	lastCutoff float64
	lastQ      float64
}

// NewToneFilter constructs a multi-channel biquad tone filter.
func NewToneFilter(channels int, sampleRate float64, toNonRT *rtevent.Ring) *ToneFilter {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Tone Filter",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "filter",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramFilterShape, Name: "Shape", ShortName: "Shape", Unit: "", Min: 0, Max: 3, DefaultValue: 0, Flags: param.CanAutomate | param.IsList},
		&param.Parameter{ID: paramFilterCutoff, Name: "Cutoff", ShortName: "Freq", Unit: "Hz", Min: 20.0, Max: 20000.0, DefaultValue: 1000.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramFilterQ, Name: "Q", ShortName: "Q", Unit: "", Min: 0.1, Max: 10.0, DefaultValue: 0.707, Flags: param.CanAutomate},
	)

	f := &ToneFilter{
		InternalPluginBase: base,
		biquad:             filter.NewBiquad(channels),
		sampleRate:         sampleRate,
		lastShape:          -1,
	}
	return f
}

// Configure re-points coefficient calculation at sampleRate and forces a
// recompute on the next chunk, the same trick the constructor uses via
// lastShape's sentinel -1.
func (f *ToneFilter) Configure(sampleRate float64) {
	f.sampleRate = sampleRate
	f.lastShape = -1
}

func (f *ToneFilter) updateCoefficients() {
	shape := FilterShape(int(f.Parameters().Get(paramFilterShape).GetPlainValue()))
	cutoff := f.Parameters().Get(paramFilterCutoff).GetPlainValue()
	q := f.Parameters().Get(paramFilterQ).GetPlainValue()

	if shape == f.lastShape && cutoff == f.lastCutoff && q == f.lastQ {
		return
	}
	f.lastShape, f.lastCutoff, f.lastQ = shape, cutoff, q

	switch shape {
	case FilterHighpass:
		f.biquad.SetHighpass(f.sampleRate, cutoff, q)
	case FilterBandpass:
		f.biquad.SetBandpass(f.sampleRate, cutoff, q)
	case FilterNotch:
		f.biquad.SetNotch(f.sampleRate, cutoff, q)
	default:
		f.biquad.SetLowpass(f.sampleRate, cutoff, q)
	}
}

// ProcessAudio filters every channel in place after copying in to out.
func (f *ToneFilter) ProcessAudio(in, out *buffer.SampleBuffer) {
	f.updateCoefficients()
	out.ReplaceAll(in)
	for ch := 0; ch < out.ChannelCount(); ch++ {
		f.biquad.Process(out.Channel(ch), ch)
	}
}
