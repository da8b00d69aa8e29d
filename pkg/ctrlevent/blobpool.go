package ctrlevent

import (
	"sync"

	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

// BlobPool holds heap payloads that have been handed across the RT boundary
// by handle rather than by pointer, so an rtevent.Event stays POD. Every
// registered blob must eventually be released via a matching delete-* RT
// event flowing back from the RT side; Release is safe to call from the
// dispatcher only (never from the realtime thread).
type BlobPool struct {
	mu     sync.Mutex
	blobs  map[rtevent.BlobHandle][]byte
	nextID uint32
}

// NewBlobPool creates an empty pool.
func NewBlobPool() *BlobPool {
	return &BlobPool{blobs: make(map[rtevent.BlobHandle][]byte)}
}

// Register stores data and returns a handle an RT event can carry by value.
func (p *BlobPool) Register(data []byte) rtevent.BlobHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	handle := rtevent.BlobHandle(p.nextID)
	p.blobs[handle] = data
	return handle
}

// Lookup returns the data registered under handle, if still live.
func (p *BlobPool) Lookup(handle rtevent.BlobHandle) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.blobs[handle]
	return data, ok
}

// Release frees the data registered under handle, in response to a
// delete-blob/delete-string/delete-void RT event arriving from the RT side.
func (p *BlobPool) Release(handle rtevent.BlobHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.blobs, handle)
}

// globalBlobPool backs control events (e.g. PropertyChangeEvent) that need to
// register a payload before a dispatcher instance exists to own one.
var globalBlobPool = NewBlobPool()
