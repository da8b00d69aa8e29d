package graph

import "sync"

// Registry is the engine-owned id -> processor map. The RT thread walks a
// track's own chain directly and never touches the registry; the registry
// exists so the control plane can look up processors by id (for parameter
// queries, state save/restore, and info display) without reaching across
// the RT boundary. Mutations happen only from the dispatcher, in response
// to a completed topology RT event, so the RT side's track chains and this
// map never observe a half-applied change.
type Registry struct {
	mu         sync.RWMutex
	processors map[uint32]Processor
	tracks     map[uint32]*Track
	nextID     uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[uint32]Processor),
		tracks:     make(map[uint32]*Track),
	}
}

// AllocateID hands out the next unused processor/track id.
func (r *Registry) AllocateID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID
}

// RegisterProcessor records p under its own id.
func (r *Registry) RegisterProcessor(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[p.ID()] = p
}

// UnregisterProcessor removes the processor with the given id.
func (r *Registry) UnregisterProcessor(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processors, id)
}

// Processor looks up a processor by id.
func (r *Registry) Processor(id uint32) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[id]
	return p, ok
}

// RegisterTrack records t under its own id.
func (r *Registry) RegisterTrack(t *Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[t.ID()] = t
	r.processors[t.ID()] = t
}

// UnregisterTrack removes the track with the given id.
func (r *Registry) UnregisterTrack(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracks, id)
	delete(r.processors, id)
}

// Track looks up a track by id.
func (r *Registry) Track(id uint32) (*Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tracks[id]
	return t, ok
}

// Tracks returns a snapshot slice of every registered track, in no
// particular order. Safe to call from any thread other than the RT thread.
func (r *Registry) Tracks() []*Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		out = append(out, t)
	}
	return out
}
