package audiofrontend

import (
	"bytes"
	"io"
	"testing"

	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
)

func TestOfflineBackendRoundTripsPCM(t *testing.T) {
	var recorded bytes.Buffer
	in := buffer.NewSampleBuffer(2, 4)
	in.Channel(0)[0], in.Channel(0)[1], in.Channel(0)[2], in.Channel(0)[3] = 0.1, 0.2, 0.3, 0.4
	in.Channel(1)[0], in.Channel(1)[1], in.Channel(1)[2], in.Channel(1)[3] = -0.1, -0.2, -0.3, -0.4

	writer := NewOfflineBackend(nil, &recorded, 2)
	if err := writer.Write(in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reader := NewOfflineBackend(bytes.NewReader(recorded.Bytes()), nil, 2)
	out := buffer.NewSampleBuffer(2, 4)
	if err := reader.Read(out); err != nil {
		t.Fatalf("Read: %v", err)
	}

	for ch := 0; ch < 2; ch++ {
		got, want := out.Channel(ch), in.Channel(ch)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("channel %d sample %d: got %v want %v", ch, i, got[i], want[i])
			}
		}
	}
}

func TestOfflineBackendReportsEOFPastEnd(t *testing.T) {
	reader := NewOfflineBackend(bytes.NewReader(nil), nil, 1)
	out := buffer.NewSampleBuffer(1, 4)
	if err := reader.Read(out); err != io.EOF {
		t.Fatalf("expected io.EOF on an exhausted reader, got %v", err)
	}
}

func TestOfflineBackendWithNoReaderReportsEOF(t *testing.T) {
	reader := NewOfflineBackend(nil, nil, 1)
	out := buffer.NewSampleBuffer(1, 4)
	if err := reader.Read(out); err != io.EOF {
		t.Fatalf("expected io.EOF with no reader configured, got %v", err)
	}
}
