// Package buffer implements the passive data model for graphics buffers:
// the SurfaceBuffer value object, its extra-data map, the wire codec, and
// a default heap-backed allocator suitable for tests and standalone use.
//
// Author: momentics <momentics@gmail.com>
package buffer

import (
	"sync"
	"unsafe"

	"github.com/momentics/gfxqueue/api"
)

// heapHandle is the default api.BufferHandle: a plain heap slice, NUMA node
// recorded but not enforced. Production deployments swap in a real
// GPU-memory allocator behind api.Allocator; this one exists so the queue
// and its tests do not depend on a GPU driver being present.
var _ api.BufferHandle = (*heapHandle)(nil)

type heapHandle struct {
	mu       sync.Mutex
	data     []byte
	stride   int32
	numaNode int
	mapped   bool
}

func (h *heapHandle) FD() uintptr { return 0 }

func (h *heapHandle) VirtualAddr() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.mapped || len(h.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&h.data[0]))
}

func (h *heapHandle) Size() int { return len(h.data) }

func (h *heapHandle) Stride() int32 { return h.stride }

func (h *heapHandle) NUMANode() int { return h.numaNode }

// Bytes exposes the backing slice directly for the default allocator's own
// use (FlushCache/InvalidateCache are no-ops on heap memory, but the slice
// itself is what a CPU-side renderer would write into).
func (h *heapHandle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}
