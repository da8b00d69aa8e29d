package timing

// PlayingMode is the transport's state-machine position.
type PlayingMode uint8

const (
	Stopped PlayingMode = iota
	Starting
	Playing
	Stopping
	Recording
)

// SyncMode names the authoritative source of tempo/position.
type SyncMode uint8

const (
	SyncInternal SyncMode = iota
	SyncMIDI
	SyncGateInput
	SyncExternalLink
)

// PositionSource says who is allowed to write beats/bar-beats directly.
type PositionSource uint8

const (
	PositionCalculated PositionSource = iota
	PositionExternal
)

// TimeSignature is a musical time signature.
type TimeSignature struct {
	Numerator   int
	Denominator int
}

// Transport is the clock and musical-position authority: it derives beats,
// bars and phase from sample count and tempo, and owns the playing-mode
// state machine. One Transport is shared by the engine (advances it once per
// chunk) and the control plane (reads position, or writes it when
// PositionSource is External).
type Transport struct {
	sampleRate float64

	samplesSinceStart uint64
	tempo             float64
	timeSig           TimeSignature

	mode           PlayingMode
	pendingMode    PlayingMode
	modeChangeSet  bool
	syncMode       SyncMode
	positionSource PositionSource

	beats    float64
	barBeats float64
	barCount int

	// startedThisChunk/stoppedThisChunk are one-shot flags, valid for exactly
	// the chunk in which the transition occurred.
	startedThisChunk bool
	stoppedThisChunk bool

	// pendingExternalTempo/pendingExternalBeats are written by SetTempo/
	// SetCurrentBeats when PositionSource is External and applied on the next
	// Tick, matching "transitions... triggered only at chunk boundaries".
	pendingExternalTempo *float64
	pendingExternalBeats *float64
}

// NewTransport creates a stopped transport at the given sample rate with a
// default 120bpm / 4/4 position.
func NewTransport(sampleRate float64) *Transport {
	return &Transport{
		sampleRate: sampleRate,
		tempo:      120.0,
		timeSig:    TimeSignature{Numerator: 4, Denominator: 4},
		mode:       Stopped,
	}
}

// SetTempo requests a tempo change. When PositionSource is Calculated this
// applies immediately (the RT thread owns the clock); when External it is
// staged and applied on the next Tick, mirroring how externally-driven
// updates arrive as RT events applied between chunks.
func (tr *Transport) SetTempo(bpm float64) {
	if tr.positionSource == PositionExternal {
		tr.pendingExternalTempo = &bpm
		return
	}
	tr.tempo = bpm
}

// SetTimeSignature sets the numerator/denominator used for bar-beat wrapping.
func (tr *Transport) SetTimeSignature(ts TimeSignature) {
	tr.timeSig = ts
}

// SetPlayingMode requests a playing-mode transition, applied on the next Tick.
func (tr *Transport) SetPlayingMode(mode PlayingMode) {
	tr.pendingMode = mode
	tr.modeChangeSet = true
}

// SetSyncMode sets the authoritative tempo/position source.
func (tr *Transport) SetSyncMode(mode SyncMode) {
	tr.syncMode = mode
}

// SetPositionSource switches between engine-calculated and externally-driven position.
func (tr *Transport) SetPositionSource(src PositionSource) {
	tr.positionSource = src
}

// SetCurrentBeats lets an external authority (PositionSource == External)
// write beats directly; staged for the next Tick.
func (tr *Transport) SetCurrentBeats(beats float64) {
	if tr.positionSource != PositionExternal {
		return
	}
	tr.pendingExternalBeats = &beats
}

// Mode returns the current playing mode.
func (tr *Transport) Mode() PlayingMode { return tr.mode }

// StartedThisChunk reports whether playback started during the chunk just ticked.
func (tr *Transport) StartedThisChunk() bool { return tr.startedThisChunk }

// StoppedThisChunk reports whether playback stopped during the chunk just ticked.
func (tr *Transport) StoppedThisChunk() bool { return tr.stoppedThisChunk }

// SamplesSinceStart returns the monotonic sample counter.
func (tr *Transport) SamplesSinceStart() uint64 { return tr.samplesSinceStart }

// Tempo returns the current tempo in bpm.
func (tr *Transport) Tempo() float64 { return tr.tempo }

// Tick advances the transport by one chunk of chunkSize samples. It must be
// called exactly once per processed chunk, from the RT thread.
func (tr *Transport) Tick(chunkSize int) {
	tr.startedThisChunk = false
	tr.stoppedThisChunk = false

	if tr.modeChangeSet {
		tr.applyModeChange()
		tr.modeChangeSet = false
	}

	tr.samplesSinceStart += uint64(chunkSize)

	if tr.syncMode == SyncExternalLink || tr.syncMode == SyncMIDI {
		tr.applyPendingExternalUpdates()
	}

	if (tr.mode == Playing || tr.mode == Recording) && tr.positionSource == PositionCalculated {
		tr.beats += float64(chunkSize) * tr.tempo / (60.0 * tr.sampleRate)
		tr.advanceBarBeats()
	}
}

func (tr *Transport) applyModeChange() {
	wasRunning := tr.mode == Playing || tr.mode == Recording
	willRun := tr.pendingMode == Playing || tr.pendingMode == Recording

	if !wasRunning && willRun {
		tr.startedThisChunk = true
	}
	if wasRunning && !willRun {
		tr.stoppedThisChunk = true
	}
	tr.mode = tr.pendingMode
}

func (tr *Transport) applyPendingExternalUpdates() {
	if tr.pendingExternalTempo != nil {
		tr.tempo = *tr.pendingExternalTempo
		tr.pendingExternalTempo = nil
	}
	if tr.pendingExternalBeats != nil {
		tr.beats = *tr.pendingExternalBeats
		tr.pendingExternalBeats = nil
		tr.advanceBarBeats()
	}
}

func (tr *Transport) advanceBarBeats() {
	num := float64(tr.timeSig.Numerator)
	if num <= 0 {
		num = 4
	}
	if tr.beats < 0 {
		tr.barBeats = 0
		return
	}
	wraps := int(tr.beats / num)
	tr.barBeats = tr.beats - float64(wraps)*num
	tr.barCount = wraps
}

// CurrentBeats returns the beat position interpolated to offset samples into
// the current chunk, for sample-accurate musical scheduling (e.g. a
// step-sequencer internal plugin).
func (tr *Transport) CurrentBeats(offset int) float64 {
	if tr.mode != Playing && tr.mode != Recording {
		return tr.beats
	}
	return tr.beats + float64(offset)*tr.tempo/(60.0*tr.sampleRate)
}

// CurrentBarBeats returns the bar-relative beat position interpolated to
// offset samples into the current chunk; always within [0, numerator).
func (tr *Transport) CurrentBarBeats(offset int) float64 {
	beats := tr.CurrentBeats(offset)
	num := float64(tr.timeSig.Numerator)
	if num <= 0 {
		num = 4
	}
	wraps := int(beats / num)
	return beats - float64(wraps)*num
}

// BarCount returns how many bars have elapsed.
func (tr *Transport) BarCount() int { return tr.barCount }

// TimeSignature returns the current time signature.
func (tr *Transport) TimeSignature() TimeSignature { return tr.timeSig }
