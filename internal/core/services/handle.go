package services

import (
	"sync"

	"github.com/legallink/lexindex/internal/core/ports/driven"
)

// IndexHandle holds the currently served vector index. The builder
// swaps in a fresh index after a successful rebuild; searches read
// whatever index is current. Readers never observe a partially built
// index because the swap is a single pointer write under the lock.
type IndexHandle struct {
	mu    sync.RWMutex
	index driven.VectorIndex
}

// NewIndexHandle creates a handle with no index loaded.
func NewIndexHandle() *IndexHandle {
	return &IndexHandle{}
}

// Get returns the current index, or false if none has been loaded or
// built yet.
func (h *IndexHandle) Get() (driven.VectorIndex, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index, h.index != nil
}

// Swap replaces the served index. Searches in flight keep using the
// index they already obtained from Get.
func (h *IndexHandle) Swap(index driven.VectorIndex) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index = index
}
