package graph

import (
	"testing"

	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

type passthrough struct {
	*InternalPluginBase
}

func newPassthrough(channels int, toNonRT *rtevent.Ring) *passthrough {
	return &passthrough{NewInternalPluginBase(plugin.Info{Name: "Passthrough"}, channels, channels, toNonRT)}
}

func (p *passthrough) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.ReplaceAll(in)
}

func newEngineWithOneTrack(t *testing.T, channels int) (*Engine, *Registry, *Track, *passthrough) {
	t.Helper()
	toRT := rtevent.NewRing(64)
	fromRT := rtevent.NewRing(64)
	reg := NewRegistry()
	e := NewEngine(reg, 48000.0, 64, toRT, fromRT)

	trackID := reg.AllocateID()
	track := NewTrack(trackID, plugin.Info{Name: "Track 1"}, channels, 48000.0, fromRT)
	reg.RegisterTrack(track)

	procID := reg.AllocateID()
	p := newPassthrough(channels, fromRT)
	p.SetID(procID)
	reg.RegisterProcessor(p)

	toRT.Push(rtevent.MakeAddTrackEvent(0, trackID))
	e.ProcessChunk(buffer.NewSampleBuffer(channels, 64), buffer.NewSampleBuffer(channels, 64))

	toRT.Push(rtevent.MakeAddProcessorToTrackEvent(0, procID, trackID))
	e.ProcessChunk(buffer.NewSampleBuffer(channels, 64), buffer.NewSampleBuffer(channels, 64))

	return e, reg, track, p
}

func TestEngineGainScenario(t *testing.T) {
	toRT := rtevent.NewRing(64)
	fromRT := rtevent.NewRing(64)
	reg := NewRegistry()
	e := NewEngine(reg, 48000.0, 64, toRT, fromRT)

	trackID := reg.AllocateID()
	track := NewTrack(trackID, plugin.Info{Name: "Track 1"}, 2, 48000.0, fromRT)
	reg.RegisterTrack(track)
	toRT.Push(rtevent.MakeAddTrackEvent(0, trackID))
	e.ProcessChunk(buffer.NewSampleBuffer(2, 64), buffer.NewSampleBuffer(2, 64))

	in := buffer.NewSampleBuffer(2, 64)
	for ch := 0; ch < 2; ch++ {
		s := in.Channel(ch)
		for i := range s {
			s[i] = 0.5
		}
	}
	out := buffer.NewSampleBuffer(2, 64)
	e.ProcessChunk(in, out)

	if got := out.Channel(0)[0]; got != 0.5 {
		t.Fatalf("unity-gain passthrough altered sample: got %v, want 0.5", got)
	}
}

func TestEngineBypassScenario(t *testing.T) {
	e, _, _, p := newEngineWithOneTrack(t, 1)

	in := buffer.NewSampleBuffer(1, 64)
	s := in.Channel(0)
	for i := range s {
		s[i] = 1.0
	}

	out := buffer.NewSampleBuffer(1, 64)
	e.ProcessChunk(in, out)
	if out.Channel(0)[0] != 1.0 {
		t.Fatalf("expected passthrough with processor active, got %v", out.Channel(0)[0])
	}

	p.SetBypassed(true)

	out2 := buffer.NewSampleBuffer(1, 64)
	e.ProcessChunk(in, out2)
	if out2.Channel(0)[0] != 1.0 {
		t.Fatalf("bypassing a passthrough processor should not change the signal, got %v", out2.Channel(0)[0])
	}
}

func TestEngineClipDetectionThrottled(t *testing.T) {
	toRT := rtevent.NewRing(8)
	fromRT := rtevent.NewRing(8)
	reg := NewRegistry()
	e := NewEngine(reg, 48000.0, 64, toRT, fromRT)

	trackID := reg.AllocateID()
	track := NewTrack(trackID, plugin.Info{Name: "Track 1"}, 1, 48000.0, fromRT)
	reg.RegisterTrack(track)
	toRT.Push(rtevent.MakeAddTrackEvent(0, trackID))
	e.ProcessChunk(buffer.NewSampleBuffer(1, 64), buffer.NewSampleBuffer(1, 64))

	in := buffer.NewSampleBuffer(1, 64)
	s := in.Channel(0)
	for i := range s {
		s[i] = 1.5 // clipping
	}

	var notifications int
	for i := 0; i < 5000; i++ {
		out := buffer.NewSampleBuffer(1, 64)
		e.ProcessChunk(in, out)

		var evt rtevent.Event
		for fromRT.Pop(&evt) {
			if evt.Type == rtevent.TypeEngineNotification {
				notifications++
			}
		}
	}

	if notifications == 0 {
		t.Fatal("expected at least one clip notification over a long clipping run")
	}
	if notifications > 10 {
		t.Fatalf("expected clip detection throttled to roughly once/sec/channel, got %d notifications", notifications)
	}
}
