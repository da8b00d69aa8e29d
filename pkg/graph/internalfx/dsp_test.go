package internalfx

import (
	"math"
	"testing"

	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
)

func fillSine(buf *buffer.SampleBuffer, freq, sampleRate float64) {
	for ch := 0; ch < buf.ChannelCount(); ch++ {
		s := buf.Channel(ch)
		for i := range s {
			s[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		}
	}
}

func assertFinite(t *testing.T, name string, buf *buffer.SampleBuffer) {
	t.Helper()
	for ch := 0; ch < buf.ChannelCount(); ch++ {
		for i, v := range buf.Channel(ch) {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("%s: non-finite sample at channel %d index %d: %v", name, ch, i, v)
			}
		}
	}
}

func TestDynamicsReducesGainAboveThreshold(t *testing.T) {
	d := NewDynamics(1, 48000.0, nil)
	d.Parameters().Get(paramDynThreshold).SetPlainValue(-20.0)
	d.Parameters().Get(paramDynRatio).SetPlainValue(8.0)

	in := buffer.NewSampleBuffer(1, 2048)
	fillSine(in, 220.0, 48000.0)
	out := buffer.NewSampleBuffer(1, 2048)

	for i := 0; i < 20; i++ {
		d.ProcessAudio(in, out)
	}
	assertFinite(t, "dynamics", out)

	inPeak := in.CalcPeakValue(0)
	outPeak := out.CalcPeakValue(0)
	if outPeak > inPeak {
		t.Fatalf("compressor+limiter chain increased peak: in=%v out=%v", inPeak, outPeak)
	}
}

func TestReverbProducesFiniteStereoOutput(t *testing.T) {
	r := NewReverb(48000.0, nil)
	in := buffer.NewSampleBuffer(2, 1024)
	fillSine(in, 440.0, 48000.0)
	out := buffer.NewSampleBuffer(2, 1024)

	for i := 0; i < 10; i++ {
		r.ProcessAudio(in, out)
	}
	assertFinite(t, "reverb", out)
}

func TestToneFilterLowpassAttenuatesHighFrequency(t *testing.T) {
	f := NewToneFilter(1, 48000.0, nil)
	f.Parameters().Get(paramFilterShape).SetPlainValue(float64(FilterLowpass))
	f.Parameters().Get(paramFilterCutoff).SetPlainValue(200.0)

	in := buffer.NewSampleBuffer(1, 4096)
	fillSine(in, 8000.0, 48000.0)
	out := buffer.NewSampleBuffer(1, 4096)

	for i := 0; i < 5; i++ {
		f.ProcessAudio(in, out)
	}
	assertFinite(t, "tonefilter", out)

	if out.CalcRMSValue(0) >= in.CalcRMSValue(0) {
		t.Fatalf("lowpass at 200Hz should attenuate an 8kHz tone: in_rms=%v out_rms=%v", in.CalcRMSValue(0), out.CalcRMSValue(0))
	}
}

func TestDistortionClipsLoudSignal(t *testing.T) {
	d := NewDistortion(1, nil)
	d.Parameters().Get(paramDistDrive).SetPlainValue(10.0)

	in := buffer.NewSampleBuffer(1, 512)
	s := in.Channel(0)
	for i := range s {
		s[i] = 0.9
	}
	out := buffer.NewSampleBuffer(1, 512)
	d.ProcessAudio(in, out)
	assertFinite(t, "distortion", out)

	if peak := out.CalcPeakValue(0); peak > 1.01 {
		t.Fatalf("hard-clip curve should not exceed +/-1.0, got %v", peak)
	}
}

func TestChorusProducesFiniteStereoOutput(t *testing.T) {
	c := NewChorus(48000.0, nil)
	in := buffer.NewSampleBuffer(1, 1024)
	fillSine(in, 440.0, 48000.0)
	out := buffer.NewSampleBuffer(2, 1024)

	for i := 0; i < 5; i++ {
		c.ProcessAudio(in, out)
	}
	assertFinite(t, "chorus", out)
}

func TestDelayProducesFiniteOutputAndPreservesDry(t *testing.T) {
	d := NewDelay(1, 48000.0, nil)
	d.Parameters().Get(paramDelayTime).SetPlainValue(50.0)
	d.Parameters().Get(paramDelayMix).SetPlainValue(0.0)

	in := buffer.NewSampleBuffer(1, 4096)
	fillSine(in, 220.0, 48000.0)
	out := buffer.NewSampleBuffer(1, 4096)

	d.ProcessAudio(in, out)
	assertFinite(t, "delay", out)

	inSamples, outSamples := in.Channel(0), out.Channel(0)
	for i := range inSamples {
		if outSamples[i] != inSamples[i] {
			t.Fatalf("mix=0 should pass the dry signal through unchanged at index %d: in=%v out=%v", i, inSamples[i], outSamples[i])
		}
	}
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	d := NewDCBlocker(1, 48000.0, nil)

	in := buffer.NewSampleBuffer(1, 8192)
	s := in.Channel(0)
	for i := range s {
		s[i] = 0.5 + float32(0.1*math.Sin(2*math.Pi*220.0*float64(i)/48000.0))
	}
	out := buffer.NewSampleBuffer(1, 8192)
	d.ProcessAudio(in, out)
	assertFinite(t, "dcblocker", out)

	var sum float64
	tail := out.Channel(0)[4096:]
	for _, v := range tail {
		sum += float64(v)
	}
	mean := sum / float64(len(tail))
	if mean > 0.05 || mean < -0.05 {
		t.Fatalf("DC blocker should remove most of the 0.5 offset once settled, got mean %v", mean)
	}
}

func TestTestOscillatorProducesToneAcrossChannels(t *testing.T) {
	o := NewTestOscillator(2, 48000.0, nil)
	o.Parameters().Get(paramOscFrequency).SetPlainValue(440.0)
	o.Parameters().Get(paramOscLevel).SetPlainValue(0.8)

	in := buffer.NewSampleBuffer(0, 2048)
	out := buffer.NewSampleBuffer(2, 2048)
	o.ProcessAudio(in, out)
	assertFinite(t, "oscillator", out)

	if out.CalcPeakValue(0) < 0.1 || out.CalcPeakValue(1) < 0.1 {
		t.Fatalf("oscillator should produce a non-trivial tone on every channel, got peaks %v %v", out.CalcPeakValue(0), out.CalcPeakValue(1))
	}
}

func TestMeterPassesAudioThroughAndReportsLevel(t *testing.T) {
	m := NewMeter(1, 48000.0, nil)
	in := buffer.NewSampleBuffer(1, 4096)
	fillSine(in, 440.0, 48000.0)
	out := buffer.NewSampleBuffer(1, 4096)

	m.ProcessAudio(in, out)
	assertFinite(t, "meter", out)

	inSamples, outSamples := in.Channel(0), out.Channel(0)
	for i := range inSamples {
		if outSamples[i] != inSamples[i] {
			t.Fatalf("meter must pass audio through unchanged at index %d", i)
		}
	}

	if peak := m.Parameters().Get(paramMeterPeakDB).GetPlainValue(); peak <= -200.0 {
		t.Fatalf("meter should report a peak level above the floor, got %v", peak)
	}
}

func TestMasterLimiterCapsLoudSignal(t *testing.T) {
	l := NewMasterLimiter(1, 48000.0, nil)
	l.Parameters().Get(paramLimiterThreshold).SetPlainValue(-1.0)

	in := buffer.NewSampleBuffer(1, 2048)
	s := in.Channel(0)
	for i := range s {
		s[i] = float32(1.5 * math.Sin(2*math.Pi*440.0*float64(i)/48000.0))
	}
	out := buffer.NewSampleBuffer(1, 2048)

	for i := 0; i < 10; i++ {
		l.ProcessAudio(in, out)
	}
	assertFinite(t, "masterlimiter", out)

	if peak := out.CalcPeakValue(0); peak > 1.0 {
		t.Fatalf("true-peak limiter should keep a loud signal at or under unity, got %v", peak)
	}
}

func TestAutoPanSweepsWithinUnityGain(t *testing.T) {
	a := NewAutoPan(48000.0, nil)
	in := buffer.NewSampleBuffer(1, 2048)
	fillSine(in, 440.0, 48000.0)
	out := buffer.NewSampleBuffer(2, 2048)

	a.ProcessAudio(in, out)
	assertFinite(t, "autopan", out)

	if out.CalcPeakValue(0) > 0.51 || out.CalcPeakValue(1) > 0.51 {
		t.Fatalf("auto-pan should not amplify a 0.5-peak tone: left=%v right=%v", out.CalcPeakValue(0), out.CalcPeakValue(1))
	}
}
