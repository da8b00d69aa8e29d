// Package limiter implements the engine's master-bus true-peak limiter: a
// brickwall limiter run at an oversampled rate so the inter-sample peaks a
// host-rate signal never directly expresses still get caught before they
// clip on reconstruction.
package limiter

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/dynamics"
	"github.com/justyntemme/sushi-core/pkg/dsp/interpolation"
)

// oversampleFactor is fixed at 4x: enough to catch the inter-sample overs a
// brickwall limiter running at the host rate would miss, without the cost
// of a full polyphase filter bank.
const oversampleFactor = 4

// TruePeak wraps a dynamics.Limiter running at oversampleFactor times the
// host sample rate. The signal is upsampled with cubic interpolation,
// limited at the higher rate, then decimated back down with linear
// interpolation.
type TruePeak struct {
	inner *dynamics.Limiter

	up     []float32
	capped []float32
}

// New constructs a single-channel true-peak limiter for a host running at
// sampleRate.
func New(sampleRate float64) *TruePeak {
	return &TruePeak{inner: dynamics.NewLimiter(sampleRate * oversampleFactor)}
}

// SetThreshold sets the ceiling, in dB, above which the limiter starts
// reducing gain.
func (t *TruePeak) SetThreshold(dB float64) { t.inner.SetThreshold(dB) }

// SetRelease sets the release time, in seconds, at the host rate; it is
// applied to the inner limiter unscaled, since dynamics.Limiter derives its
// own per-sample release coefficient from the sample rate it was
// constructed with.
func (t *TruePeak) SetRelease(seconds float64) { t.inner.SetRelease(seconds) }

// Reset clears the inner limiter's envelope state.
func (t *TruePeak) Reset() { t.inner.Reset() }

// ProcessBuffer true-peak-limits in into out; in and out may alias.
func (t *TruePeak) ProcessBuffer(in, out []float32) {
	n := len(in)
	if n == 0 {
		return
	}

	osLen := n * oversampleFactor
	if cap(t.up) < osLen {
		t.up = make([]float32, osLen)
		t.capped = make([]float32, osLen)
	}
	up := t.up[:osLen]
	capped := t.capped[:osLen]

	written := interpolation.ResampleCubic(in, float32(oversampleFactor), up)
	holdTail(up, written)

	t.inner.ProcessBuffer(up, capped)

	written = interpolation.Resample(capped, 1.0/float32(oversampleFactor), out[:n])
	holdTail(out[:n], written)
}

// holdTail fills buf[written:] by repeating the last written sample.
// Resample/ResampleCubic stop a few samples short of a full fill near a
// chunk's trailing edge (there is no history across calls to interpolate
// against); holding the last value rather than leaving stale or zeroed
// samples keeps the tail finite and click-free.
func holdTail(buf []float32, written int) {
	if written >= len(buf) {
		return
	}
	if written <= 0 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	last := buf[written-1]
	for i := written; i < len(buf); i++ {
		buf[i] = last
	}
}
