package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"

	"orchd/internal/backend"
	"orchd/pkg/types"
)

// loadedModel is the registry-owned record of one load instance. MemoryBytes
// and identity fields are immutable after insert; access stats are updated
// with atomics so the hot inference path never takes the admission lock.
type loadedModel struct {
	ID           string
	SessionID    string
	Kind         types.ModelKind
	Provider     backend.Provider
	MemoryBytes  uint64
	Pinned       bool
	LoadDuration time.Duration
	LoadedAt     time.Time

	lastAccessed atomic.Int64 // unix nanos, monotonically non-decreasing
	accessCount  atomic.Uint64

	session  backend.Session
	released atomic.Bool
}

// touch records an access. Stat updates are advisory: at-least-once
// increment semantics are acceptable, but LastAccessed never goes backwards.
func (lm *loadedModel) touch() {
	lm.accessCount.Add(1)
	now := time.Now().UnixNano()
	for {
		prev := lm.lastAccessed.Load()
		if now <= prev || lm.lastAccessed.CompareAndSwap(prev, now) {
			return
		}
	}
}

func (lm *loadedModel) lastAccessedTime() time.Time {
	return time.Unix(0, lm.lastAccessed.Load())
}

// registry is the loaded-model table keyed by model id. It guarantees
// atomicity of individual map operations only; the budget invariant is the
// orchestrator's responsibility and is enforced under the admission lock.
type registry struct {
	mu     sync.RWMutex
	models map[string]*loadedModel
}

func newRegistry() *registry {
	return &registry{models: make(map[string]*loadedModel)}
}

func (r *registry) get(id string) (*loadedModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lm, ok := r.models[id]
	return lm, ok
}

// insertIfAbsent adds lm unless its id is already present.
func (r *registry) insertIfAbsent(lm *loadedModel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[lm.ID]; ok {
		return false
	}
	r.models[lm.ID] = lm
	return true
}

func (r *registry) remove(id string) (*loadedModel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lm, ok := r.models[id]
	if ok {
		delete(r.models, id)
	}
	return lm, ok
}

// snapshot returns the current entries for stats and eviction scans.
func (r *registry) snapshot() []*loadedModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*loadedModel, 0, len(r.models))
	for _, lm := range r.models {
		out = append(out, lm)
	}
	return out
}

// usage sums tracked memory across all entries.
func (r *registry) usage() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total uint64
	for _, lm := range r.models {
		total += lm.MemoryBytes
	}
	return total
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
