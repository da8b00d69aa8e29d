// Package audiofrontend provides the engine's pluggable audio I/O backends.
// A realtime backend is owned by whatever embeds the engine and drives
// Engine.ProcessChunk directly; the offline backend here reads and writes
// raw interleaved float32 PCM framing from Go io.Reader/io.Writer, for
// render-to-file runs and repeatable tests with no live audio device
// involved.
package audiofrontend

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
)

// Backend is the source/sink of audio chunks driving the engine.
type Backend interface {
	// Read fills in with the next chunk of input audio. An offline backend
	// returns io.EOF once no further input is available; a realtime
	// backend never does.
	Read(in *buffer.SampleBuffer) error
	// Write delivers one chunk of rendered output audio to the backend.
	Write(out *buffer.SampleBuffer) error
	Close() error
}

// RealtimeBackend is a no-op placeholder: device I/O belongs to whatever
// host embeds the engine, not to this package. It lets a caller select a
// Backend uniformly regardless of AudioConfig.Backend.
type RealtimeBackend struct{}

// NewRealtimeBackend constructs a no-op realtime backend.
func NewRealtimeBackend() *RealtimeBackend { return &RealtimeBackend{} }

func (RealtimeBackend) Read(in *buffer.SampleBuffer) error   { return nil }
func (RealtimeBackend) Write(out *buffer.SampleBuffer) error { return nil }
func (RealtimeBackend) Close() error                         { return nil }

// OfflineBackend reads interleaved little-endian float32 PCM frames from r
// and writes them to w, one chunk at a time. There is no header: chunk size
// and channel count are fixed for the backend's lifetime, matching the
// engine's own fixed-chunk-size processing model.
type OfflineBackend struct {
	r        io.Reader
	w        io.Writer
	channels int

	frame []float32
	raw   []byte
}

// NewOfflineBackend constructs an offline backend for channels. A nil r
// disables input (every Read clears the buffer to silence and returns
// io.EOF); a nil w discards output.
func NewOfflineBackend(r io.Reader, w io.Writer, channels int) *OfflineBackend {
	return &OfflineBackend{r: r, w: w, channels: channels}
}

func (b *OfflineBackend) ensureScratch(n int) {
	size := n * b.channels
	if cap(b.frame) < size {
		b.frame = make([]float32, size)
		b.raw = make([]byte, size*4)
	}
}

// Read decodes one interleaved PCM chunk from r into in. It returns io.EOF
// once r is exhausted or no reader was configured.
func (b *OfflineBackend) Read(in *buffer.SampleBuffer) error {
	if b.r == nil {
		in.Clear()
		return io.EOF
	}

	n := in.ChunkSize()
	b.ensureScratch(n)
	raw := b.raw[:n*b.channels*4]
	if _, err := io.ReadFull(b.r, raw); err != nil {
		in.Clear()
		if err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}

	frame := b.frame[:n*b.channels]
	for i := range frame {
		frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
	}

	for ch := 0; ch < in.ChannelCount() && ch < b.channels; ch++ {
		samples := in.Channel(ch)
		for i := 0; i < n; i++ {
			samples[i] = frame[i*b.channels+ch]
		}
	}
	return nil
}

// Write encodes one interleaved PCM chunk from out to w.
func (b *OfflineBackend) Write(out *buffer.SampleBuffer) error {
	if b.w == nil {
		return nil
	}

	n := out.ChunkSize()
	b.ensureScratch(n)
	frame := b.frame[:n*b.channels]
	for i := range frame {
		frame[i] = 0
	}
	for ch := 0; ch < out.ChannelCount() && ch < b.channels; ch++ {
		samples := out.Channel(ch)
		for i := 0; i < n; i++ {
			frame[i*b.channels+ch] = samples[i]
		}
	}

	raw := b.raw[:n*b.channels*4]
	for i, v := range frame {
		binary.LittleEndian.PutUint32(raw[i*4:i*4+4], math.Float32bits(v))
	}
	_, err := b.w.Write(raw)
	return err
}

// Close is a no-op: OfflineBackend does not own r or w's lifecycle.
func (b *OfflineBackend) Close() error { return nil }
