package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// MonoSumming sums every input channel down to channel 0, scaled by 1/N so
// summing N correlated channels does not raise the perceived level, and
// copies the result to every output channel.
type MonoSumming struct {
	*graph.InternalPluginBase
}

// NewMonoSumming constructs a mono-summing processor for the given channel count.
func NewMonoSumming(channels int, toNonRT *rtevent.Ring) *MonoSumming {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "Mono Summing", Vendor: "sushi-core", Version: "1.0.0", Category: "utility",
	}, channels, channels, toNonRT)
	return &MonoSumming{InternalPluginBase: base}
}

func (m *MonoSumming) ProcessAudio(in, out *buffer.SampleBuffer) {
	n := in.ChannelCount()
	if n == 0 {
		out.Clear()
		return
	}

	scale := float32(1.0 / float64(n))
	summed := out.Channel(0)
	clear0 := in.Channel(0)
	for i := range summed {
		summed[i] = clear0[i] * scale
	}
	for ch := 1; ch < n; ch++ {
		src := in.Channel(ch)
		for i := range summed {
			summed[i] += src[i] * scale
		}
	}

	for ch := 1; ch < out.ChannelCount(); ch++ {
		copy(out.Channel(ch), summed)
	}
}
