package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/analysis"
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const (
	paramMeterPeakDB uint32 = iota
	paramMeterRMSDB
)

// Meter is a transparent pass-through that reports the peak and RMS level of
// whatever passes through it, one peak/RMS meter pair per channel,
// aggregated to the loudest channel per chunk.
type Meter struct {
	*graph.InternalPluginBase
	peaks   []*analysis.PeakMeter
	rms     []*analysis.RMSMeter
	scratch []float64
}

// NewMeter constructs a metering tap for channels.
func NewMeter(channels int, sampleRate float64, toNonRT *rtevent.Ring) *Meter {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name:     "Meter",
		Vendor:   "sushi-core",
		Version:  "1.0.0",
		Category: "analysis",
	}, channels, channels, toNonRT)

	base.Parameters().Add(
		&param.Parameter{ID: paramMeterPeakDB, Name: "Peak", ShortName: "Peak", Unit: "dB", Min: -200.0, Max: 12.0, DefaultValue: -200.0, Flags: param.IsReadOnly},
		&param.Parameter{ID: paramMeterRMSDB, Name: "RMS", ShortName: "RMS", Unit: "dB", Min: -200.0, Max: 12.0, DefaultValue: -200.0, Flags: param.IsReadOnly},
	)

	m := &Meter{InternalPluginBase: base}
	for i := 0; i < channels; i++ {
		m.peaks = append(m.peaks, analysis.NewPeakMeter(sampleRate))
		m.rms = append(m.rms, analysis.NewRMSMeter(int(sampleRate/10)))
	}
	return m
}

// Configure rebuilds every channel's peak/RMS meter pair at the new sample
// rate; their integration windows are sized against it at construction.
func (m *Meter) Configure(sampleRate float64) {
	channels := len(m.peaks)
	m.peaks = m.peaks[:0]
	m.rms = m.rms[:0]
	for i := 0; i < channels; i++ {
		m.peaks = append(m.peaks, analysis.NewPeakMeter(sampleRate))
		m.rms = append(m.rms, analysis.NewRMSMeter(int(sampleRate/10)))
	}
}

// ProcessAudio copies in to out unchanged and updates the peak/RMS
// parameters with the loudest channel observed this chunk.
func (m *Meter) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.ReplaceAll(in)

	n := out.ChunkSize()
	if cap(m.scratch) < n {
		m.scratch = make([]float64, n)
	}
	scratch := m.scratch[:n]

	var peakDB, rmsDB float64 = -200.0, -200.0
	for ch := 0; ch < out.ChannelCount() && ch < len(m.peaks); ch++ {
		samples := out.Channel(ch)
		for i, v := range samples {
			scratch[i] = float64(v)
		}
		m.peaks[ch].Process(scratch)
		m.rms[ch].Process(scratch)
		if v := m.peaks[ch].GetPeakDB(); v > peakDB {
			peakDB = v
		}
		if v := m.rms[ch].GetRMSDB(); v > rmsDB {
			rmsDB = v
		}
	}
	m.Parameters().Get(paramMeterPeakDB).SetPlainValue(peakDB)
	m.Parameters().Get(paramMeterRMSDB).SetPlainValue(rmsDB)
}
