package buffer

import (
	"fmt"
	"sync"

	"github.com/momentics/gfxqueue/api"
)

// DefaultAllocator is a NUMA-aware, heap-backed api.Allocator. It exists for
// tests, standalone demos, and any deployment that has not wired in a real
// GPU-memory allocator. Platform-specific Alloc variants (linux/windows)
// attempt the OS's NUMA-local allocation primitive and fall back silently
// to plain make([]byte, n) when unavailable, matching the teacher's own
// pool.NUMAPool fallback behavior.
type DefaultAllocator struct {
	mu    sync.Mutex
	stats struct {
		allocated int64
		freed     int64
	}
}

var _ api.Allocator = (*DefaultAllocator)(nil)

// NewDefaultAllocator constructs a heap-backed allocator.
func NewDefaultAllocator() *DefaultAllocator {
	return &DefaultAllocator{}
}

func strideFor(cfg api.BufferRequestConfig) int32 {
	bpp := int32(4)
	switch cfg.Format {
	case api.PixelFormatRGB565:
		bpp = 2
	case api.PixelFormatYCbCr420SP, api.PixelFormatYCrCb420SP:
		bpp = 1
	}
	stride := cfg.Width * bpp
	align := cfg.StrideAlignment
	if align <= 0 {
		align = 1
	}
	if rem := stride % align; rem != 0 {
		stride += align - rem
	}
	return stride
}

func sizeFor(cfg api.BufferRequestConfig, stride int32) int {
	rows := cfg.Height
	switch cfg.Format {
	case api.PixelFormatYCbCr420SP, api.PixelFormatYCrCb420SP:
		rows = cfg.Height * 3 / 2 // chroma planes
	}
	return int(stride) * int(rows)
}

// Alloc allocates NUMA-local (best effort) memory sized for cfg.
func (a *DefaultAllocator) Alloc(cfg api.BufferRequestConfig) (api.BufferHandle, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "width and height must be positive")
	}
	stride := strideFor(cfg)
	size := sizeFor(cfg, stride)
	if size <= 0 {
		return nil, fmt.Errorf("%w: computed buffer size %d", api.ErrInvalidArgument, size)
	}
	node := platformAlloc(size)
	h := &heapHandle{
		data:     node.data,
		stride:   stride,
		numaNode: node.numaNode,
	}
	a.mu.Lock()
	a.stats.allocated++
	a.mu.Unlock()
	return h, nil
}

// Map marks the handle's memory visible to the caller. On the heap-backed
// allocator the data is always addressable; Map only flips the bookkeeping
// flag so VirtualAddr returns a non-zero pointer.
func (a *DefaultAllocator) Map(h api.BufferHandle) error {
	hh, ok := h.(*heapHandle)
	if !ok {
		return fmt.Errorf("%w: foreign handle type", api.ErrInvalidArgument)
	}
	hh.mu.Lock()
	hh.mapped = true
	hh.mu.Unlock()
	return nil
}

// Unmap reverses Map.
func (a *DefaultAllocator) Unmap(h api.BufferHandle) error {
	hh, ok := h.(*heapHandle)
	if !ok {
		return fmt.Errorf("%w: foreign handle type", api.ErrInvalidArgument)
	}
	hh.mu.Lock()
	hh.mapped = false
	hh.mu.Unlock()
	return nil
}

// Free releases the handle's memory back to the platform allocator.
func (a *DefaultAllocator) Free(h api.BufferHandle) error {
	hh, ok := h.(*heapHandle)
	if !ok {
		return fmt.Errorf("%w: foreign handle type", api.ErrInvalidArgument)
	}
	platformFree(hh.data, hh.numaNode)
	a.mu.Lock()
	a.stats.freed++
	a.mu.Unlock()
	return nil
}

// FlushCache is a no-op for heap memory: there is no separate device cache
// to push writes through. Real GPU allocators implement this for real.
func (a *DefaultAllocator) FlushCache(h api.BufferHandle) error { return nil }

// InvalidateCache mirrors FlushCache.
func (a *DefaultAllocator) InvalidateCache(h api.BufferHandle) error { return nil }

// Stats reports cumulative allocation counters for debug probes.
func (a *DefaultAllocator) Stats() (allocated, freed int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.allocated, a.stats.freed
}
