package indexing

import (
	"sync"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
	domidx "github.com/codeiq-dev/codeiq/internal/domain/index"
)

// Registry maps run ids to their sealed indexes. An index appears here only
// after Build finished, so readers never see a partial index.
type Registry struct {
	mu      sync.RWMutex
	indexes map[analysis.RunID]domidx.Index
}

func NewRegistry() *Registry {
	return &Registry{indexes: make(map[analysis.RunID]domidx.Index)}
}

func (r *Registry) Put(id analysis.RunID, idx domidx.Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes[id] = idx
}

// Get returns ErrIndexNotReady while a run has no sealed index yet.
func (r *Registry) Get(id analysis.RunID) (domidx.Index, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[id]
	if !ok {
		return nil, domidx.ErrIndexNotReady
	}
	return idx, nil
}

// Drop discards a run's index; its chunks become garbage-collectable.
func (r *Registry) Drop(id analysis.RunID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexes, id)
}
