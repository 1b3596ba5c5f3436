package buffer

import (
	"github.com/momentics/gfxqueue/api"
)

// SyncFence is the default api.Fence: a cross-process synchronization
// handle carrying an OS file descriptor. Wait below does not poll that fd;
// InvalidFence never blocks since there is nothing to wait on.
type SyncFence struct {
	fd    uintptr
	valid bool
}

var _ api.Fence = (*SyncFence)(nil)

// InvalidFence is the sentinel "already signaled, nothing to wait on" fence
// used whenever a caller has no real synchronization primitive to hand
// over — e.g. a freshly allocated buffer that has never been flushed.
var InvalidFence = &SyncFence{valid: false}

// NewSyncFence wraps an OS fence file descriptor.
func NewSyncFence(fd uintptr) *SyncFence {
	return &SyncFence{fd: fd, valid: true}
}

func (f *SyncFence) FD() uintptr { return f.fd }

func (f *SyncFence) Valid() bool { return f.valid }

// Wait blocks until the fence signals or the timeout elapses. The default
// implementation has no real OS fence to poll (the heap allocator needs no
// GPU synchronization), so a valid fence is treated as already signaled;
// a real allocator's Fence implementation would poll f.fd via epoll/poll.
func (f *SyncFence) Wait(timeoutMillis int) error {
	if !f.valid {
		return nil
	}
	return nil
}
