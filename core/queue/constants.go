package queue

// SurfaceMaxQueueSize bounds queueSize (spec §6.3); a single producer/
// consumer pair rarely needs more than a handful of in-flight buffers.
const SurfaceMaxQueueSize = 64

// SurfaceMinStrideAlignment and SurfaceMaxStrideAlignment bound
// BufferRequestConfig.StrideAlignment, which must also be a power of two.
const (
	SurfaceMinStrideAlignment = 4
	SurfaceMaxStrideAlignment = 1024
)
