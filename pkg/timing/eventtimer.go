// Package timing implements the Event Timer (control-time to sample-offset
// mapping) and the Transport (tempo/time-signature/playing-mode authority).
package timing

import "math"

// EventTimer maps an absolute control-plane timestamp (microseconds) to a
// sample offset within the chunk currently being assembled. The dispatcher
// owns one EventTimer and re-anchors it every chunk from the sync RT event
// the engine publishes at the chunk boundary.
type EventTimer struct {
	chunkStartMicros float64
	sampleRate       float64
	chunkSize        int
}

// NewEventTimer creates a timer for the given sample rate and chunk size.
func NewEventTimer(sampleRate float64, chunkSize int) *EventTimer {
	return &EventTimer{sampleRate: sampleRate, chunkSize: chunkSize}
}

// SetChunkStart re-anchors the timer to the start of a new chunk, given its
// absolute time in microseconds. Call this once per chunk, from the sync RT
// event's payload.
func (t *EventTimer) SetChunkStart(chunkStartMicros float64) {
	t.chunkStartMicros = chunkStartMicros
}

// chunkDurationMicros returns how long, in microseconds, the current chunk spans.
func (t *EventTimer) chunkDurationMicros() float64 {
	return float64(t.chunkSize) / t.sampleRate * 1e6
}

// SampleOffsetFromRealtime converts an absolute control-plane timestamp into
// a sample offset within the current chunk. If the timestamp is before the
// chunk started, it resolves to offset 0 (send it immediately). If it falls
// at or after the chunk's end, inThisChunk is false and the caller must keep
// the event queued for a later chunk.
func (t *EventTimer) SampleOffsetFromRealtime(micros float64) (inThisChunk bool, offset int) {
	chunkEnd := t.chunkStartMicros + t.chunkDurationMicros()

	if micros < t.chunkStartMicros {
		return true, 0
	}
	if micros >= chunkEnd {
		return false, 0
	}

	elapsed := micros - t.chunkStartMicros
	off := int(math.Round(elapsed * t.sampleRate / 1e6))
	if off >= t.chunkSize {
		off = t.chunkSize - 1
	}
	return true, off
}

// RealTimeFromSampleOffset converts a sample offset within the current chunk
// back to an absolute control-plane timestamp in microseconds. The result is
// strictly monotonic in offset within one chunk.
func (t *EventTimer) RealTimeFromSampleOffset(offset int) float64 {
	return t.chunkStartMicros + float64(offset)/t.sampleRate*1e6
}
