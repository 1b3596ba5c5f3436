package queue

import (
	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
)

// BufferElement is the queue's internal cache entry: a SurfaceBuffer plus
// the bookkeeping the state machine needs that does not belong on the
// buffer value object itself.
type BufferElement struct {
	Buffer     *buffer.SurfaceBuffer
	State      State
	IsDeleting bool
	Config     api.BufferRequestConfig
	Fence      api.Fence
	Damage     api.Rect
	Timestamp  int64 // microseconds since epoch, set at flush time
}
