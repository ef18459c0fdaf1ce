// Package snapshot keeps the most recent plate reads for operators. It is
// observability only and never consulted for attendance decisions.
package snapshot

import "sync"

// DefaultSize is how many snapshots the image ingest path keeps.
const DefaultSize = 5

type LastResult struct {
	Plate  string `json:"plate"`
	Time   string `json:"time"`
	Method string `json:"method"`
}

type Snapshot struct {
	Time  string `json:"time"`
	Plate string `json:"plate"`
	// Image is the decoded camera frame as PNG.
	Image []byte `json:"-"`
}

// Ring is a bounded, newest-first buffer of snapshots plus the last result.
type Ring struct {
	mu    sync.RWMutex
	size  int
	items []Snapshot
	last  LastResult
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	return &Ring{
		size:  size,
		items: make([]Snapshot, 0, size),
		last:  LastResult{Plate: "-", Time: "-", Method: "none"},
	}
}

// Record stores last and pushes snap to the front, dropping the oldest
// snapshot once the ring is full.
func (r *Ring) Record(last LastResult, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = last
	if len(r.items) < r.size {
		r.items = append(r.items, Snapshot{})
	}
	copy(r.items[1:], r.items[:len(r.items)-1])
	r.items[0] = snap
}

func (r *Ring) Last() LastResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// List returns the snapshots newest first.
func (r *Ring) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, len(r.items))
	copy(out, r.items)
	return out
}

// Get returns the i-th newest snapshot.
func (r *Ring) Get(i int) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i < 0 || i >= len(r.items) {
		return Snapshot{}, false
	}
	return r.items[i], true
}
