package graph

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/metrics"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
	"github.com/justyntemme/sushi-core/pkg/timing"
)

// Engine is the realtime audio graph: it owns the track order, the
// bidirectional event rings, and the transport, and drives exactly one
// process_chunk per audio callback. Every method here except the
// constructor and the topology helpers invoked from ProcessChunk runs on
// the realtime thread: no allocation, no locking beyond the rings'
// lock-free atomics, no blocking I/O.
type Engine struct {
	registry  *Registry
	transport *timing.Transport

	toRT   *rtevent.Ring
	fromRT *rtevent.Ring

	sampleRate float64
	chunkSize  int
	samplesRun uint64

	trackOrder []uint32

	trackScratch *buffer.SampleBuffer

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics registry the engine reports active track
// count to. Safe to leave unset; Set on a nil gauge is never called.
func (e *Engine) SetMetrics(m *metrics.Registry) {
	e.metrics = m
}

// NewEngine constructs an engine bound to the given RT<->non-RT rings.
func NewEngine(registry *Registry, sampleRate float64, chunkSize int, toRT, fromRT *rtevent.Ring) *Engine {
	return &Engine{
		registry:   registry,
		transport:  timing.NewTransport(sampleRate),
		toRT:       toRT,
		fromRT:     fromRT,
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
	}
}

// Transport returns the engine's transport, for callers (the MIDI
// dispatcher, the worker's timing tick) that need the current tempo/bar
// position but must not touch the audio graph itself.
func (e *Engine) Transport() *timing.Transport { return e.transport }

// ProcessChunk is the one call an audio callback makes per buffer. It drains
// pending RT events (parameter changes, topology mutations, transport
// updates), ticks the transport, renders every track, and publishes the
// sync event the dispatcher uses to recalibrate its event timer.
func (e *Engine) ProcessChunk(in, out *buffer.SampleBuffer) {
	e.drainIncoming()
	e.transport.Tick(e.chunkSize)

	out.Clear()
	if e.trackScratch == nil || e.trackScratch.ChunkSize() != in.ChunkSize() || e.trackScratch.ChannelCount() != out.ChannelCount() {
		e.trackScratch = buffer.NewSampleBuffer(out.ChannelCount(), in.ChunkSize())
	}

	for _, id := range e.trackOrder {
		t, ok := e.registry.Track(id)
		if !ok {
			continue
		}
		t.ProcessAudio(in, e.trackScratch)
		out.Add(e.trackScratch)
	}

	e.samplesRun += uint64(e.chunkSize)
	if e.fromRT != nil {
		e.fromRT.Push(rtevent.MakeSyncTickEvent(uint32(e.samplesRun)))
	}
}

func (e *Engine) drainIncoming() {
	if e.toRT == nil {
		return
	}
	var evt rtevent.Event
	for e.toRT.Pop(&evt) {
		e.handle(evt)
	}
}

func (e *Engine) handle(evt rtevent.Event) {
	switch evt.Type {
	case rtevent.TypeTempo:
		e.transport.SetTempo(float64(evt.Tempo()))
	case rtevent.TypeTimeSignature:
		num, den := evt.TimeSignature()
		e.transport.SetTimeSignature(timing.TimeSignature{Numerator: int(num), Denominator: int(den)})
	case rtevent.TypePlayingMode:
		e.transport.SetPlayingMode(timing.PlayingMode(evt.Mode()))
	case rtevent.TypeSyncMode:
		e.transport.SetSyncMode(timing.SyncMode(evt.Mode()))

	case rtevent.TypeAddTrack:
		e.addTrack(evt)
	case rtevent.TypeRemoveTrack:
		e.removeTrack(evt)
	case rtevent.TypeInsertProcessor:
		e.insertProcessor(evt)
	case rtevent.TypeRemoveProcessor:
		e.removeProcessor(evt)
	case rtevent.TypeAddProcessorToTrack:
		e.addProcessorToTrack(evt)
	case rtevent.TypeRemoveProcessorFromTrack:
		e.removeProcessorFromTrack(evt)

	default:
		e.routeToProcessor(evt)
	}
}

func (e *Engine) routeToProcessor(evt rtevent.Event) {
	if p, ok := e.registry.Processor(evt.ProcessorID); ok {
		p.ProcessEvent(evt)
		return
	}
	for _, id := range e.trackOrder {
		if t, ok := e.registry.Track(id); ok {
			t.ProcessEvent(evt)
		}
	}
}

func (e *Engine) ack(evt rtevent.Event, ok bool) {
	if evt.EventID == 0 || e.fromRT == nil {
		return
	}
	evt.SetHandled(ok)
	e.fromRT.Push(evt)
}

func (e *Engine) addTrack(evt rtevent.Event) {
	_, exists := e.registry.Track(evt.ProcessorID)
	if exists {
		e.ack(evt, false)
		return
	}
	e.trackOrder = append(e.trackOrder, evt.ProcessorID)
	if e.metrics != nil {
		e.metrics.ActiveTracks.Set(float64(len(e.trackOrder)))
	}
	e.ack(evt, true)
}

func (e *Engine) removeTrack(evt rtevent.Event) {
	for i, id := range e.trackOrder {
		if id == evt.ProcessorID {
			e.trackOrder = append(e.trackOrder[:i], e.trackOrder[i+1:]...)
			if e.metrics != nil {
				e.metrics.ActiveTracks.Set(float64(len(e.trackOrder)))
			}
			e.ack(evt, true)
			return
		}
	}
	e.ack(evt, false)
}

func (e *Engine) insertProcessor(evt rtevent.Event) {
	trackID := evt.TrackID()
	t, ok := e.registry.Track(trackID)
	if !ok {
		e.ack(evt, false)
		return
	}
	p, ok := e.registry.Processor(evt.ProcessorID)
	if !ok {
		e.ack(evt, false)
		return
	}
	t.AddProcessor(p)
	e.ack(evt, true)
}

func (e *Engine) removeProcessor(evt rtevent.Event) {
	for _, id := range e.trackOrder {
		if t, ok := e.registry.Track(id); ok {
			t.RemoveProcessor(evt.ProcessorID)
		}
	}
	e.ack(evt, true)
}

func (e *Engine) addProcessorToTrack(evt rtevent.Event) {
	t, ok := e.registry.Track(evt.TrackID())
	if !ok {
		e.ack(evt, false)
		return
	}
	p, ok := e.registry.Processor(evt.ProcessorID)
	if !ok {
		e.ack(evt, false)
		return
	}
	t.AddProcessor(p)
	e.ack(evt, true)
}

func (e *Engine) removeProcessorFromTrack(evt rtevent.Event) {
	t, ok := e.registry.Track(evt.TrackID())
	if !ok {
		e.ack(evt, false)
		return
	}
	e.ack(evt, t.RemoveProcessor(evt.ProcessorID))
}
