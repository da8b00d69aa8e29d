package graph

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// Track is a processor cascade sharing a fixed channel count: audio flows
// through each processor in order, each one free to be bypassed or removed
// without the track itself changing shape. It also owns the once-per-
// second-per-channel clip detector and an optional master limiter on its
// output bus.
type Track struct {
	info     plugin.Info
	id       uint32
	channels int
	chain    []Processor
	enabled  bool
	bypassed bool

	sampleRate float64
	toNonRT    *rtevent.Ring

	scratch *buffer.SampleBuffer

	clipSampleWindow int
	samplesSinceClip []int

	limiter Processor // optional master true-peak limiter, nil if none
}

// NewTrack constructs an empty track with the given channel count. sampleRate
// is used to size the once-per-second clip-detection window. The track
// starts enabled.
func NewTrack(id uint32, info plugin.Info, channels int, sampleRate float64, toNonRT *rtevent.Ring) *Track {
	return &Track{
		info:             info,
		id:               id,
		channels:         channels,
		enabled:          true,
		sampleRate:       sampleRate,
		toNonRT:          toNonRT,
		clipSampleWindow: int(sampleRate),
		samplesSinceClip: make([]int, channels),
	}
}

func (t *Track) Info() plugin.Info    { return t.info }
func (t *Track) ID() uint32           { return t.id }
func (t *Track) SetID(id uint32)      { t.id = id }
func (t *Track) Enabled() bool        { return t.enabled }
func (t *Track) SetEnabled(b bool)    { t.enabled = b }
func (t *Track) Bypassed() bool       { return t.bypassed }
func (t *Track) SetBypassed(b bool)   { t.bypassed = b }
func (t *Track) ChannelCount() (in, out int) { return t.channels, t.channels }

// Parameters returns nil: a track has no parameters of its own, only the
// processors it chains.
func (t *Track) Parameters() *param.Registry { return nil }

// Init re-derives the clip window for sampleRate and initializes every
// processor already in the chain, in order. A failing processor stops
// initialization and its error is returned; the caller decides what that
// means for the track (normally: the whole topology operation is rolled
// back, so a half-initialized track is never left live).
func (t *Track) Init(sampleRate float64) error {
	t.sampleRate = sampleRate
	t.clipSampleWindow = int(sampleRate)
	for _, p := range t.chain {
		if err := p.Init(sampleRate); err != nil {
			return err
		}
	}
	return nil
}

// Configure re-derives the clip window and propagates the new sample rate to
// every processor in the chain plus the master limiter, if any.
func (t *Track) Configure(sampleRate float64) {
	t.sampleRate = sampleRate
	t.clipSampleWindow = int(sampleRate)
	for _, p := range t.chain {
		p.Configure(sampleRate)
	}
	if t.limiter != nil {
		t.limiter.Configure(sampleRate)
	}
	t.renegotiateChannels()
}

// SetInputChannels reports the track's own fixed channel count; a track's
// shape is set at construction and does not adapt to what is offered.
func (t *Track) SetInputChannels(channels int) int { return t.channels }

// AddProcessor appends p to the end of the chain and renegotiates channel
// counts down the cascade.
func (t *Track) AddProcessor(p Processor) {
	t.chain = append(t.chain, p)
	t.renegotiateChannels()
}

// RemoveProcessor removes the first processor in the chain with the given id
// and renegotiates channel counts down the remaining cascade.
func (t *Track) RemoveProcessor(id uint32) bool {
	for i, p := range t.chain {
		if p.ID() == id {
			t.chain = append(t.chain[:i], t.chain[i+1:]...)
			t.renegotiateChannels()
			return true
		}
	}
	return false
}

// renegotiateChannels propagates the track's channel count down the chain:
// each processor is offered the previous stage's effective output count via
// SetInputChannels, and its reply becomes the next stage's input. A
// processor whose declared input requirement does not match what it is
// offered is force-bypassed, since a bypassed processor passes audio through
// with the incoming channel layout unchanged, so the cascade continues with
// the offered count rather than the mismatched processor's own declared
// output. This only ever sets bypass to true; it never un-bypasses a
// processor a caller bypassed for its own reasons.
func (t *Track) renegotiateChannels() {
	current := t.channels
	for _, p := range t.chain {
		required, _ := p.ChannelCount()
		produced := p.SetInputChannels(current)
		if required != current {
			p.SetBypassed(true)
			continue
		}
		current = produced
	}
}

// SetLimiter installs or clears (pass nil) the track's master limiter.
func (t *Track) SetLimiter(limiter Processor) {
	t.limiter = limiter
}

// ProcessAudio runs every chained processor in order, then the optional
// master limiter, then clip detection on the final output.
func (t *Track) ProcessAudio(in, out *buffer.SampleBuffer) {
	if t.bypassed {
		out.ReplaceAll(in)
		return
	}

	cur := in
	if t.scratch == nil || t.scratch.ChunkSize() != in.ChunkSize() {
		t.scratch = buffer.NewSampleBuffer(t.channels, in.ChunkSize())
	}

	for _, p := range t.chain {
		if !p.Enabled() || p.Bypassed() {
			continue
		}
		p.ProcessAudio(cur, t.scratch)
		cur, t.scratch = t.scratch, cur
	}

	if cur != out {
		out.ReplaceAll(cur)
	}

	if t.limiter != nil {
		t.limiter.ProcessAudio(out, out)
	}

	t.detectClips(out)
}

// detectClips scans each channel of out for a sample exceeding +/-1.0 and, at
// most once per clipSampleWindow samples per channel, posts a clip
// notification to the RT->non-RT ring. This throttling matters: without it a
// sustained clip would flood the ring every chunk.
func (t *Track) detectClips(out *buffer.SampleBuffer) {
	for ch := 0; ch < out.ChannelCount(); ch++ {
		samples := out.Channel(ch)
		t.samplesSinceClip[ch] += len(samples)

		clipped := false
		for _, s := range samples {
			if s > 1.0 || s < -1.0 {
				clipped = true
				break
			}
		}

		if clipped && t.samplesSinceClip[ch] >= t.clipSampleWindow {
			t.samplesSinceClip[ch] = 0
			if t.toNonRT != nil {
				t.toNonRT.Push(rtevent.MakeClipDetectedEvent(t.id, uint16(ch)))
			}
		}
	}
}

// ProcessEvent routes an event either to the track itself (bypass) or, by
// ProcessorID, to the matching processor in the chain.
func (t *Track) ProcessEvent(e rtevent.Event) {
	if e.Type == rtevent.TypeBypass && e.ProcessorID == t.id {
		t.SetBypassed(e.Bypassed())
		return
	}
	if t.limiter != nil && e.ProcessorID == t.limiter.ID() {
		t.limiter.ProcessEvent(e)
		return
	}
	for _, p := range t.chain {
		if p.ID() == e.ProcessorID {
			p.ProcessEvent(e)
			return
		}
	}
}
