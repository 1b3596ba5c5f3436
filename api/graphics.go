// Package api
// Author: momentics <momentics@gmail.com>
//
// Interfaces and value types shared between the buffer queue, the vsync
// distributor, and whatever allocator/transport backs them. Concrete data
// types (SurfaceBuffer, BufferElement) live in core/buffer and core/queue;
// this file only names the seams a caller can substitute.

package api

// PixelFormat mirrors the small enumerated set a buffer allocator needs to
// understand; values above PixelFormatButt are rejected by config validation.
type PixelFormat int32

const (
	PixelFormatRGBA8888 PixelFormat = iota
	PixelFormatRGBX8888
	PixelFormatRGB565
	PixelFormatBGRA8888
	PixelFormatYCbCr420SP
	PixelFormatYCrCb420SP
	PixelFormatButt // sentinel, one past the last valid format
)

// ColorGamut enumerates the color space a buffer's contents are encoded in.
type ColorGamut int32

const (
	ColorGamutSRGB ColorGamut = iota
	ColorGamutDCIP3
	ColorGamutAdobeRGB
	ColorGamutBT2020
)

// TransformType enumerates the rotation/flip applied by the producer.
type TransformType int32

const (
	TransformNone TransformType = iota
	TransformRotate90
	TransformRotate180
	TransformRotate270
	TransformFlipH
	TransformFlipV
)

// ScalingMode enumerates how a consumer should scale a buffer to its target.
type ScalingMode int32

const (
	ScalingModeFreeze ScalingMode = iota
	ScalingModeScaleToWindow
	ScalingModeScaleCrop
	ScalingModeNoScaleCrop
)

// Buffer usage bits. Only the ones the core inspects are named; producers
// may set additional vendor-specific bits in the upper word.
const (
	BufferUsageCPUWrite uint64 = 1 << iota
	BufferUsageCPURead
	BufferUsageMemDMA
	BufferUsageMemShared
)

// Rect is a producer-supplied damage/crop rectangle.
type Rect struct {
	X, Y, W, H int32
}

// BufferRequestConfig is the input to a buffer request/attach/reallocation
// decision. Two configs are compared field-by-field (excluding Timeout,
// which does not affect buffer identity) to decide whether a pooled buffer
// can be reused as-is.
type BufferRequestConfig struct {
	Width           int32
	Height          int32
	StrideAlignment int32
	Format          PixelFormat
	Usage           uint64
	Timeout         int32 // milliseconds; 0 means "do not wait"
	ColorGamut      ColorGamut
	Transform       TransformType
	ScalingMode     ScalingMode
}

// SameShape reports whether two configs describe interchangeable buffers,
// ignoring Timeout (a per-call request parameter, not a buffer property).
func (c BufferRequestConfig) SameShape(o BufferRequestConfig) bool {
	return c.Width == o.Width &&
		c.Height == o.Height &&
		c.StrideAlignment == o.StrideAlignment &&
		c.Format == o.Format &&
		c.Usage == o.Usage &&
		c.ColorGamut == o.ColorGamut &&
		c.Transform == o.Transform &&
		c.ScalingMode == o.ScalingMode
}

// FlushConfig is the input to a producer's Flush call.
type FlushConfig struct {
	Damage    Rect
	Timestamp int64 // microseconds since epoch; 0 means "compute now"
}

// BufferHandle is the opaque, allocator-owned descriptor for a graphics
// buffer's backing memory. Implementations may be a real GPU allocation, a
// shared-memory segment, or (for tests and standalone use) a plain heap
// slice — see core/buffer.DefaultAllocator.
type BufferHandle interface {
	FD() uintptr
	VirtualAddr() uintptr
	Size() int
	Stride() int32
	NUMANode() int
}

// Allocator supplies and reclaims BufferHandles. Alloc/Map/Unmap/Free follow
// the buffer's lifecycle; FlushCache/InvalidateCache are only meaningful for
// CPU-mapped memory and are no-ops for allocators that don't need them.
type Allocator interface {
	Alloc(cfg BufferRequestConfig) (BufferHandle, error)
	Map(h BufferHandle) error
	Unmap(h BufferHandle) error
	Free(h BufferHandle) error
	FlushCache(h BufferHandle) error
	InvalidateCache(h BufferHandle) error
}

// Fence is a cross-process synchronization primitive: a producer signals an
// acquire fence when rendering completes, a consumer signals a release
// fence when compositing completes. A Fence backed by no real
// synchronization object (InvalidFence) is always already signaled.
type Fence interface {
	FD() uintptr
	Valid() bool
	Wait(timeoutMillis int) error
}

// ConsumerListener is notified when a producer flushes a buffer.
type ConsumerListener interface {
	OnBufferAvailable()
}

// BufferDeleteListener observes cache evictions, keyed by sequence number.
type BufferDeleteListener func(sequence uint64)

// BufferReleaseFunc lets a producer intercept a release before the queue
// re-enqueues the buffer; returning nil tells the queue the producer has
// taken custody and the queue must not put the buffer on the free list.
type BufferReleaseFunc func(sequence uint64, fence Fence) error
