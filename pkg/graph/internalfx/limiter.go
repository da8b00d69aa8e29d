package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	dsplimiter "github.com/justyntemme/sushi-core/pkg/dsp/limiter"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramLimiterThreshold uint32 = iota
	paramLimiterRelease
)

// MasterLimiter is a track's optional final-stage true-peak limiter: one
// dsp/limiter.TruePeak per channel, installed via Track.SetLimiter rather
// than the ordinary processor chain, so it always runs last regardless of
// chain edits.
type MasterLimiter struct {
	*graph.InternalPluginBase
	channels int
	limiters []*dsplimiter.TruePeak
}

// NewMasterLimiter constructs a master limiter for channels at sampleRate.
func NewMasterLimiter(channels int, sampleRate float64, toNonRT *rtevent.Ring) *MasterLimiter {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Master Limiter",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "dynamics",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramLimiterThreshold, Name: "Threshold", ShortName: "Thresh", Unit: "dB", Min: -24.0, Max: 0.0, DefaultValue: -1.0, Flags: param.CanAutomate},
		&param.Parameter{ID: paramLimiterRelease, Name: "Release", ShortName: "Rel", Unit: "ms", Min: 1.0, Max: 1000.0, DefaultValue: 50.0, Flags: param.CanAutomate},
	)

	m := &MasterLimiter{InternalPluginBase: base}
	m.rebuild(channels, sampleRate)
	return m
}

func (m *MasterLimiter) rebuild(channels int, sampleRate float64) {
	m.channels = channels
	m.limiters = make([]*dsplimiter.TruePeak, channels)
	for i := range m.limiters {
		m.limiters[i] = dsplimiter.New(sampleRate)
	}
}

// Configure rebuilds every channel's oversampled limiter at the new sample
// rate; the oversampling ratio is baked in against sampleRate at
// construction.
func (m *MasterLimiter) Configure(sampleRate float64) {
	m.rebuild(m.channels, sampleRate)
}

// ProcessAudio true-peak-limits every channel independently to the
// configured threshold and release.
func (m *MasterLimiter) ProcessAudio(in, out *buffer.SampleBuffer) {
	thresholdDB := m.Parameters().Get(paramLimiterThreshold).GetPlainValue()
	releaseMS := m.Parameters().Get(paramLimiterRelease).GetPlainValue()

	for ch := 0; ch < out.ChannelCount() && ch < len(m.limiters); ch++ {
		l := m.limiters[ch]
		l.SetThreshold(thresholdDB)
		l.SetRelease(releaseMS / 1000.0)
		l.ProcessBuffer(in.Channel(ch), out.Channel(ch))
	}
}
