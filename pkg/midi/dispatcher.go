package midi

import (
	"sync/atomic"

	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// CCMode controls how an incoming control-change value maps onto a target
// parameter.
type CCMode uint8

const (
	// CCAbsolute maps the raw 0-127 CC value directly to the parameter's
	// normalized range.
	CCAbsolute CCMode = iota
	// CCRelative treats the CC value as a signed increment around 64
	// (two's-complement-style relative encoding some controllers send).
	CCRelative
)

// CCBinding maps one (port, channel, controller) triple onto a (processor,
// parameter) target.
type CCBinding struct {
	ProcessorID uint32
	ParamID     uint32
	Mode        CCMode
}

// ccKey identifies a controller on a specific port+channel.
type ccKey struct {
	Port       int
	Channel    uint8
	Controller uint8
}

// noteKey identifies a port+channel routed to a track.
type noteKey struct {
	Port    int
	Channel uint8
}

// RoutingTable is an immutable snapshot of the Dispatcher's routing rules.
// The Dispatcher swaps a new table in atomically so the realtime thread
// never observes a half-updated map.
type RoutingTable struct {
	noteRoutes map[noteKey]uint32 // -> track/processor id
	ccBindings map[ccKey]CCBinding
	programRoutes map[noteKey]uint32
}

// NewRoutingTable creates an empty routing table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{
		noteRoutes:    make(map[noteKey]uint32),
		ccBindings:    make(map[ccKey]CCBinding),
		programRoutes: make(map[noteKey]uint32),
	}
}

// WithNoteRoute returns a copy of the table with port/channel routed to processorID.
func (t *RoutingTable) WithNoteRoute(port int, channel uint8, processorID uint32) *RoutingTable {
	out := t.clone()
	out.noteRoutes[noteKey{port, channel}] = processorID
	return out
}

// WithCCBinding returns a copy of the table with an added/overwritten CC binding.
func (t *RoutingTable) WithCCBinding(port int, channel, controller uint8, binding CCBinding) *RoutingTable {
	out := t.clone()
	out.ccBindings[ccKey{port, channel, controller}] = binding
	return out
}

// WithProgramRoute returns a copy of the table with port/channel's program
// changes routed to processorID.
func (t *RoutingTable) WithProgramRoute(port int, channel uint8, processorID uint32) *RoutingTable {
	out := t.clone()
	out.programRoutes[noteKey{port, channel}] = processorID
	return out
}

func (t *RoutingTable) clone() *RoutingTable {
	out := NewRoutingTable()
	for k, v := range t.noteRoutes {
		out.noteRoutes[k] = v
	}
	for k, v := range t.ccBindings {
		out.ccBindings[k] = v
	}
	for k, v := range t.programRoutes {
		out.programRoutes[k] = v
	}
	return out
}

// Dispatcher translates incoming MIDI events into realtime events addressed
// to the graph, and can translate outgoing realtime events (e.g. a step
// sequencer's generated notes) back into MIDI clock/note messages. The
// routing table is held behind an atomic.Value so the control plane can
// install a new table (atomically, in one swap) while the realtime thread
// keeps dispatching against whichever table it last loaded.
type Dispatcher struct {
	table atomic.Value // *RoutingTable

	clockDivision int
	samplesPerClock float64
	sampleRate    float64
	clockAccum    float64
}

// NewDispatcher constructs a dispatcher with an empty routing table.
func NewDispatcher(sampleRate float64) *Dispatcher {
	d := &Dispatcher{sampleRate: sampleRate, clockDivision: 24}
	d.table.Store(NewRoutingTable())
	d.recalcClock(120.0)
	return d
}

// SetRoutingTable atomically installs a new routing table, replacing whatever
// the realtime thread was using. Safe to call from the control plane while
// the realtime thread is concurrently dispatching.
func (d *Dispatcher) SetRoutingTable(t *RoutingTable) {
	d.table.Store(t)
}

func (d *Dispatcher) routingTable() *RoutingTable {
	return d.table.Load().(*RoutingTable)
}

// recalcClock updates how many samples elapse between MIDI clock ticks
// (24 per quarter note) at the given tempo.
func (d *Dispatcher) recalcClock(bpm float64) {
	if bpm <= 0 {
		bpm = 120.0
	}
	quarterNoteSeconds := 60.0 / bpm
	clockSeconds := quarterNoteSeconds / float64(d.clockDivision)
	d.samplesPerClock = clockSeconds * d.sampleRate
}

// ToRTEvent translates one incoming MIDI event on the given port into its
// realtime-event equivalent, or returns ok=false if no routing rule applies
// (the event is silently dropped, matching an unassigned MIDI channel having
// no destination).
func (d *Dispatcher) ToRTEvent(port int, m Event) (rtevent.Event, bool) {
	table := d.routingTable()
	offset := uint32(m.SampleOffset())

	switch e := m.(type) {
	case NoteOnEvent:
		procID, ok := table.noteRoutes[noteKey{port, e.EventChannel}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakeNoteOnEvent(procID, offset, e.NoteNumber, float32(e.Velocity)/127.0), true

	case NoteOffEvent:
		procID, ok := table.noteRoutes[noteKey{port, e.EventChannel}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakeNoteOffEvent(procID, offset, e.NoteNumber, float32(e.Velocity)/127.0), true

	case PolyPressureEvent:
		procID, ok := table.noteRoutes[noteKey{port, e.EventChannel}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakeNoteAftertouchEvent(procID, offset, e.NoteNumber, float32(e.Pressure)/127.0), true

	case ChannelPressureEvent:
		procID, ok := table.noteRoutes[noteKey{port, e.EventChannel}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakeAftertouchEvent(procID, offset, float32(e.Pressure)/127.0), true

	case PitchBendEvent:
		procID, ok := table.noteRoutes[noteKey{port, e.EventChannel}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakePitchBendEvent(procID, offset, float32(e.NormalizedValue())), true

	case ControlChangeEvent:
		binding, ok := table.ccBindings[ccKey{port, e.EventChannel, e.Controller}]
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.MakeFloatParameterChangeEvent(binding.ProcessorID, binding.ParamID, offset, ccToNormalized(binding.Mode, e.Value)), true
	}

	return rtevent.Event{}, false
}

func ccToNormalized(mode CCMode, value uint8) float32 {
	switch mode {
	case CCRelative:
		delta := int(value) - 64
		return float32(delta) / 64.0
	default:
		return float32(value) / 127.0
	}
}

// ClockTicksForChunk returns how many MIDI clock ticks (24 ppq) fall within
// a chunk of chunkSize samples, given the current tempo, advancing the
// dispatcher's internal phase accumulator.
func (d *Dispatcher) ClockTicksForChunk(bpm float64, chunkSize int) int {
	d.recalcClock(bpm)
	d.clockAccum += float64(chunkSize)

	ticks := 0
	for d.samplesPerClock > 0 && d.clockAccum >= d.samplesPerClock {
		d.clockAccum -= d.samplesPerClock
		ticks++
	}
	return ticks
}
