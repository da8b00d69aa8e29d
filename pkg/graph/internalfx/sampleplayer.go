package internalfx

import (
	sushibuffer "github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const paramPlayerGain uint32 = 0

// SamplePlayer streams mono sample content out through a write-ahead
// buffer: a non-RT loader thread (fed via FillFromPCM, normally triggered by
// an async-work request) writes decoded PCM ahead of playback, and
// ProcessAudio only ever reads from the buffer's enforced-ahead region, so a
// slow decode or a GC pause on the loading side never stalls the RT thread.
type SamplePlayer struct {
	*graph.InternalPluginBase
	stream *sushibuffer.WriteAheadBuffer
	scratch []float32
}

// NewSamplePlayer constructs a mono sample player streaming at sampleRate.
func NewSamplePlayer(sampleRate float64, toNonRT *rtevent.Ring) *SamplePlayer {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "Sample Player", Vendor: "sushi-core", Version: "1.0.0", Category: "instrument",
	}, 0, 1, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID: paramPlayerGain, Name: "Gain", ShortName: "Gain", Min: 0, Max: 1, DefaultValue: 1.0,
		Flags: param.CanAutomate,
	})

	return &SamplePlayer{
		InternalPluginBase: base,
		stream:             sushibuffer.NewWriteAheadBuffer(sampleRate, 1),
	}
}

// FillFromPCM queues decoded mono PCM for playback. Call this from the
// worker thread (an async-work request's callback), never from ProcessAudio.
func (s *SamplePlayer) FillFromPCM(pcm []float32) error {
	return s.stream.Write(pcm)
}

// BufferHealth exposes the streaming buffer's underrun/overrun/fill
// statistics for diagnostics.
func (s *SamplePlayer) BufferHealth() sushibuffer.BufferStats {
	return s.stream.GetBufferHealth()
}

func (s *SamplePlayer) ProcessAudio(in, out *sushibuffer.SampleBuffer) {
	n := out.ChunkSize()
	if cap(s.scratch) < n {
		s.scratch = make([]float32, n)
	}
	s.scratch = s.scratch[:n]

	s.stream.Read(s.scratch)

	gain := float32(s.Parameters().Get(paramPlayerGain).GetPlainValue())
	dst := out.Channel(0)
	for i := 0; i < n; i++ {
		dst[i] = s.scratch[i] * gain
	}
	for ch := 1; ch < out.ChannelCount(); ch++ {
		copy(out.Channel(ch), dst)
	}
}
