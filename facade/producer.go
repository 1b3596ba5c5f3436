package facade

import (
	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
	"github.com/momentics/gfxqueue/core/queue"
)

// Producer is a thin, role-restricted wrapper over a shared
// *queue.BufferQueue exposing only the producer-facing operations:
// Request, Cancel, Flush, and the attach/detach pair for externally
// allocated buffers. It holds no state of its own beyond the queue
// pointer — the queue is the single source of truth, matching the
// teacher's server.go thin-wrapper-over-shared-state idiom.
type Producer struct {
	q *queue.BufferQueue
}

// Request requests a buffer matching cfg, blocking up to cfg.Timeout
// milliseconds if the pool is exhausted.
func (p *Producer) Request(cfg api.BufferRequestConfig) (*queue.RequestResult, error) {
	return p.q.Request(cfg)
}

// Cancel returns a requested-but-unflushed buffer to the pool untouched.
func (p *Producer) Cancel(sequence uint64, extra *buffer.ExtraData) error {
	return p.q.Cancel(sequence, extra)
}

// Flush hands a rendered buffer to the consumer.
func (p *Producer) Flush(sequence uint64, extra *buffer.ExtraData, acquireFence api.Fence, cfg api.FlushConfig) error {
	return p.q.Flush(sequence, extra, acquireFence, cfg)
}

// AttachBuffer admits an externally allocated buffer into the queue.
func (p *Producer) AttachBuffer(handle api.BufferHandle, width, height int32) (uint64, error) {
	return p.q.AttachBuffer(handle, width, height)
}

// DetachBuffer withdraws a buffer that is currently Requested or Acquired;
// buffers in any other state, including Attached, are refused.
func (p *Producer) DetachBuffer(sequence uint64) error {
	return p.q.DetachBuffer(sequence)
}

// SetOnBufferRelease installs the release-interception hook.
func (p *Producer) SetOnBufferRelease(fn api.BufferReleaseFunc) {
	p.q.SetOnBufferRelease(fn)
}

// SetOnBufferDelete installs the eviction-notification hook.
func (p *Producer) SetOnBufferDelete(fn api.BufferDeleteListener) {
	p.q.SetOnBufferDelete(fn)
}
