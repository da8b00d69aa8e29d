package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/dsp/utility"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// DCBlocker removes any DC offset a preceding processor may have introduced,
// such as an asymmetric waveshaper curve. It carries no automatable
// parameters; the cutoff is fixed at construction time.
type DCBlocker struct {
	*graph.InternalPluginBase
	dc *utility.DCBlocker
}

// NewDCBlocker constructs a DC blocker for channels, with a 20Hz cutoff.
func NewDCBlocker(channels int, sampleRate float64, toNonRT *rtevent.Ring) *DCBlocker {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "DC Blocker",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "utility",
	}, channels, channels, toNonRT)

	return &DCBlocker{
		InternalPluginBase: base,
		dc:                 utility.NewDCBlocker(channels, 20.0, sampleRate),
	}
}

// Configure rebuilds the DC blocker's filter coefficient for the new sample
// rate; the 20Hz cutoff is recomputed against it at construction time.
func (d *DCBlocker) Configure(sampleRate float64) {
	_, channels := d.ChannelCount()
	d.dc = utility.NewDCBlocker(channels, 20.0, sampleRate)
}

// ProcessAudio copies in to out and removes DC offset from each channel.
func (d *DCBlocker) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.ReplaceAll(in)
	for ch := 0; ch < out.ChannelCount(); ch++ {
		d.dc.ProcessBuffer(out.Channel(ch), ch)
	}
}
