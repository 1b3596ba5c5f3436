// Package queue implements the producer/consumer buffer queue: a bounded
// pool of core/buffer.SurfaceBuffer instances moving through a five-state
// machine under a single mutex, with blocking request semantics and a
// separate free/dirty/deleting bookkeeping FIFO for each.
//
// Author: momentics <momentics@gmail.com>
package queue

// State is a BufferElement's position in the buffer lifecycle.
type State int

const (
	// Released buffers sit in the free list, ready to be requested again.
	Released State = iota
	// Requested buffers are held by the producer, being rendered into.
	Requested
	// Flushed buffers sit in the dirty list, awaiting consumer acquire.
	Flushed
	// Acquired buffers are held by the consumer, being composited.
	Acquired
	// Attached buffers were injected externally and reside in the cache
	// without having gone through Request.
	Attached
)

func (s State) String() string {
	switch s {
	case Released:
		return "Released"
	case Requested:
		return "Requested"
	case Flushed:
		return "Flushed"
	case Acquired:
		return "Acquired"
	case Attached:
		return "Attached"
	default:
		return "Unknown"
	}
}
