// Package ctrlevent implements the Control Event: the heap-allocated,
// polymorphic counterpart to pkg/rtevent's fixed-size tagged union, used
// everywhere outside the realtime path. It also implements the dispatcher,
// worker and parameter manager that bridge control events to and from the
// realtime thread.
package ctrlevent

import "github.com/justyntemme/sushi-core/pkg/rtevent"

// Kind identifies which control-event subtype an Event carries.
type Kind uint8

const (
	KindKeyboard Kind = iota
	KindParameterChange
	KindPropertyChange
	KindParameterNotification
	KindPropertyNotification
	KindEngineNotification
	KindAsyncWorkRequest
	KindAsyncWorkCompletion
	KindEngineCommand
)

// CompletionFunc is invoked exactly once for every fully handled or dropped
// event, carrying the final RT-side status.
type CompletionFunc func(status rtevent.Status)

// Event is the common interface every control-event subtype implements.
type Event interface {
	Kind() Kind
	// Timestamp is the event's scheduled time in microseconds on the
	// control-plane clock.
	Timestamp() float64
	// MapsToRT reports whether this event has an RT projection at all.
	MapsToRT() bool
	// NeedsWorker reports whether this event must be handled off the
	// dispatcher's own loop (it blocks, or does non-RT-safe I/O).
	NeedsWorker() bool
	// Completion returns the event's completion callback, or nil.
	Completion() CompletionFunc
}

// RTProjectable is implemented by control events that have a concrete RT
// projection once a sample offset has been resolved by the event timer.
type RTProjectable interface {
	ProjectToRT(offset int) rtevent.Event
}

// base holds the fields every concrete event shares.
type base struct {
	timestamp  float64
	completion CompletionFunc
}

func (b base) Timestamp() float64        { return b.timestamp }
func (b base) Completion() CompletionFunc { return b.completion }
func (b base) NeedsWorker() bool         { return false }

// KeyboardEvent carries a note on/off/aftertouch message to a specific
// processor (ordinarily a track, which routes it to its voice allocator).
type KeyboardEvent struct {
	base
	ProcessorID uint32
	EventType   rtevent.Type // one of TypeNoteOn, TypeNoteOff, TypeNoteAftertouch
	Note        uint8
	Velocity    float32
}

// NewKeyboardEvent constructs a keyboard control event.
func NewKeyboardEvent(processorID uint32, timestamp float64, eventType rtevent.Type, note uint8, velocity float32) *KeyboardEvent {
	return &KeyboardEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, EventType: eventType, Note: note, Velocity: velocity}
}

func (e *KeyboardEvent) Kind() Kind     { return KindKeyboard }
func (e *KeyboardEvent) MapsToRT() bool { return true }
func (e *KeyboardEvent) ProjectToRT(offset int) rtevent.Event {
	switch e.EventType {
	case rtevent.TypeNoteOff:
		return rtevent.MakeNoteOffEvent(e.ProcessorID, uint32(offset), e.Note, e.Velocity)
	case rtevent.TypeNoteAftertouch:
		return rtevent.MakeNoteAftertouchEvent(e.ProcessorID, uint32(offset), e.Note, e.Velocity)
	default:
		return rtevent.MakeNoteOnEvent(e.ProcessorID, uint32(offset), e.Note, e.Velocity)
	}
}

// ValueKind identifies the type of a ParameterChangeEvent's payload.
type ValueKind uint8

const (
	ValueFloat ValueKind = iota
	ValueInt
	ValueBool
)

// ParameterChangeEvent requests a new value for a (processor, parameter) pair.
type ParameterChangeEvent struct {
	base
	ProcessorID uint32
	ParamID     uint32
	Kind_       ValueKind
	FloatValue  float32
	IntValue    int32
	BoolValue   bool
}

// NewFloatParameterChangeEvent constructs a float parameter-change control event.
func NewFloatParameterChangeEvent(processorID, paramID uint32, timestamp float64, value float32) *ParameterChangeEvent {
	return &ParameterChangeEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Kind_: ValueFloat, FloatValue: value}
}

// NewIntParameterChangeEvent constructs an int parameter-change control event.
func NewIntParameterChangeEvent(processorID, paramID uint32, timestamp float64, value int32) *ParameterChangeEvent {
	return &ParameterChangeEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Kind_: ValueInt, IntValue: value}
}

// NewBoolParameterChangeEvent constructs a bool parameter-change control event.
func NewBoolParameterChangeEvent(processorID, paramID uint32, timestamp float64, value bool) *ParameterChangeEvent {
	return &ParameterChangeEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Kind_: ValueBool, BoolValue: value}
}

func (e *ParameterChangeEvent) Kind() Kind     { return KindParameterChange }
func (e *ParameterChangeEvent) MapsToRT() bool { return true }
func (e *ParameterChangeEvent) ProjectToRT(offset int) rtevent.Event {
	switch e.Kind_ {
	case ValueInt:
		return rtevent.MakeIntParameterChangeEvent(e.ProcessorID, e.ParamID, uint32(offset), e.IntValue)
	case ValueBool:
		return rtevent.MakeBoolParameterChangeEvent(e.ProcessorID, e.ParamID, uint32(offset), e.BoolValue)
	default:
		return rtevent.MakeFloatParameterChangeEvent(e.ProcessorID, e.ParamID, uint32(offset), e.FloatValue)
	}
}

// PropertyChangeEvent requests a new string value for a processor property.
// String payloads cannot travel inline in a 32-byte RT event, so when this
// projects to RT it registers the string in the blob pool and carries only
// the handle; the matching delete-string event later releases it.
type PropertyChangeEvent struct {
	base
	ProcessorID uint32
	ParamID     uint32
	Value       string
}

// NewPropertyChangeEvent constructs a property-change control event.
func NewPropertyChangeEvent(processorID, paramID uint32, timestamp float64, value string) *PropertyChangeEvent {
	return &PropertyChangeEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Value: value}
}

func (e *PropertyChangeEvent) Kind() Kind     { return KindPropertyChange }
func (e *PropertyChangeEvent) MapsToRT() bool { return true }
func (e *PropertyChangeEvent) ProjectToRT(offset int) rtevent.Event {
	handle := globalBlobPool.Register([]byte(e.Value))
	return rtevent.MakeDataParameterChangeEvent(e.ProcessorID, e.ParamID, uint32(offset), handle)
}

// ParameterNotificationEvent announces that a parameter's value changed; it
// never maps to RT, it only flows dispatcher -> subscribers.
type ParameterNotificationEvent struct {
	base
	ProcessorID uint32
	ParamID     uint32
	Value       float64
}

// NewParameterNotificationEvent constructs a parameter-change notification.
func NewParameterNotificationEvent(processorID, paramID uint32, timestamp float64, value float64) *ParameterNotificationEvent {
	return &ParameterNotificationEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Value: value}
}

func (e *ParameterNotificationEvent) Kind() Kind     { return KindParameterNotification }
func (e *ParameterNotificationEvent) MapsToRT() bool { return false }

// PropertyNotificationEvent announces that a string property changed.
type PropertyNotificationEvent struct {
	base
	ProcessorID uint32
	ParamID     uint32
	Value       string
}

// NewPropertyNotificationEvent constructs a property-change notification.
func NewPropertyNotificationEvent(processorID, paramID uint32, timestamp float64, value string) *PropertyNotificationEvent {
	return &PropertyNotificationEvent{base: base{timestamp: timestamp}, ProcessorID: processorID, ParamID: paramID, Value: value}
}

func (e *PropertyNotificationEvent) Kind() Kind     { return KindPropertyNotification }
func (e *PropertyNotificationEvent) MapsToRT() bool { return false }

// EngineNotificationKind identifies the specific engine-notification subtype.
type EngineNotificationKind uint8

const (
	EngineNotificationGraphChanged EngineNotificationKind = iota
	EngineNotificationClipDetected
	EngineNotificationTimingUpdate
	EngineNotificationTransportChanged
)

// EngineNotificationEvent reports an engine-level occurrence (graph mutation,
// clip detection, periodic timing update, transport state change).
type EngineNotificationEvent struct {
	base
	NotificationKind EngineNotificationKind
	ProcessorID      uint32
	Channel          int
	Detail           string
}

// NewEngineNotificationEvent constructs an engine-notification control event.
func NewEngineNotificationEvent(kind EngineNotificationKind, timestamp float64) *EngineNotificationEvent {
	return &EngineNotificationEvent{base: base{timestamp: timestamp}, NotificationKind: kind}
}

func (e *EngineNotificationEvent) Kind() Kind     { return KindEngineNotification }
func (e *EngineNotificationEvent) MapsToRT() bool { return false }

// AsyncWorkFunc is the typed continuation an async-work request carries: it
// runs on the worker thread and returns the status to report back, plus an
// optional follow-up event to post to the dispatcher on completion.
type AsyncWorkFunc func() (rtevent.Status, Event)

// AsyncWorkRequestEvent submits work that must run off the dispatcher's own
// loop (it may block or do file/network I/O).
type AsyncWorkRequestEvent struct {
	base
	ProcessorID uint32
	Work        AsyncWorkFunc
}

// NewAsyncWorkRequestEvent constructs an async-work submission.
func NewAsyncWorkRequestEvent(processorID uint32, timestamp float64, work AsyncWorkFunc, completion CompletionFunc) *AsyncWorkRequestEvent {
	return &AsyncWorkRequestEvent{base: base{timestamp: timestamp, completion: completion}, ProcessorID: processorID, Work: work}
}

func (e *AsyncWorkRequestEvent) Kind() Kind        { return KindAsyncWorkRequest }
func (e *AsyncWorkRequestEvent) MapsToRT() bool    { return false }
func (e *AsyncWorkRequestEvent) NeedsWorker() bool { return true }

// AsyncWorkCompletionEvent reports the outcome of an AsyncWorkRequestEvent.
// The worker does not post one itself: it reports the status through the
// request's completion callback and posts only the follow-up event the
// AsyncWorkFunc returns, which may be one of these.
type AsyncWorkCompletionEvent struct {
	base
	ProcessorID uint32
	Status      rtevent.Status
}

// NewAsyncWorkCompletionEvent constructs an async-work completion event.
func NewAsyncWorkCompletionEvent(processorID uint32, status rtevent.Status) *AsyncWorkCompletionEvent {
	return &AsyncWorkCompletionEvent{ProcessorID: processorID, Status: status}
}

func (e *AsyncWorkCompletionEvent) Kind() Kind     { return KindAsyncWorkCompletion }
func (e *AsyncWorkCompletionEvent) MapsToRT() bool { return false }

// EngineCommandKind identifies a graph-topology mutation requested from the
// control plane.
type EngineCommandKind uint8

const (
	CommandInsertProcessor EngineCommandKind = iota
	CommandRemoveProcessor
	CommandAddProcessorToTrack
	CommandRemoveProcessorFromTrack
	CommandAddTrack
	CommandRemoveTrack
	CommandSetBypass
)

// EngineCommandEvent requests a graph-topology mutation or a bypass toggle;
// it is returnable so the poster can learn whether the RT side applied it.
type EngineCommandEvent struct {
	base
	Command     EngineCommandKind
	ProcessorID uint32
	TrackID     uint32
	Bypassed    bool
	EventID     uint32
}

// NewEngineCommandEvent constructs an engine-command control event.
func NewEngineCommandEvent(cmd EngineCommandKind, timestamp float64, completion CompletionFunc) *EngineCommandEvent {
	return &EngineCommandEvent{base: base{timestamp: timestamp, completion: completion}, Command: cmd}
}

func (e *EngineCommandEvent) Kind() Kind     { return KindEngineCommand }
func (e *EngineCommandEvent) MapsToRT() bool { return true }
func (e *EngineCommandEvent) ProjectToRT(offset int) rtevent.Event {
	switch e.Command {
	case CommandInsertProcessor:
		return rtevent.MakeInsertProcessorEvent(e.EventID, e.ProcessorID, e.TrackID)
	case CommandRemoveProcessor:
		return rtevent.MakeRemoveProcessorEvent(e.EventID, e.ProcessorID)
	case CommandAddProcessorToTrack:
		return rtevent.MakeAddProcessorToTrackEvent(e.EventID, e.ProcessorID, e.TrackID)
	case CommandRemoveProcessorFromTrack:
		return rtevent.MakeRemoveProcessorFromTrackEvent(e.EventID, e.ProcessorID, e.TrackID)
	case CommandAddTrack:
		return rtevent.MakeAddTrackEvent(e.EventID, e.TrackID)
	case CommandRemoveTrack:
		return rtevent.MakeRemoveTrackEvent(e.EventID, e.TrackID)
	default:
		return rtevent.MakeBypassProcessorEvent(e.ProcessorID, uint32(offset), e.Bypassed)
	}
}
