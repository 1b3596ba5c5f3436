package facade

import (
	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/queue"
	"github.com/momentics/gfxqueue/core/vsync"
)

// Consumer is a thin, role-restricted wrapper over a shared
// *queue.BufferQueue plus a dedicated *vsync.VSyncConnection, exposing
// only the consumer-facing operations: registering the availability
// listener, Acquire/Release, and the vsync pacing calls a compositor
// uses to schedule its own work against the display refresh.
type Consumer struct {
	q    *queue.BufferQueue
	conn *vsync.VSyncConnection
}

// SetConsumerListener installs the sole OnBufferAvailable notification sink.
func (c *Consumer) SetConsumerListener(l api.ConsumerListener) {
	c.q.SetConsumerListener(l)
}

// Acquire dequeues the next flushed buffer.
func (c *Consumer) Acquire() (*queue.AcquireResult, error) {
	return c.q.Acquire()
}

// Release returns a held buffer to the pool once compositing is done.
func (c *Consumer) Release(sequence uint64, releaseFence api.Fence) error {
	return c.q.Release(sequence, releaseFence)
}

// RequestNextVSync arms a one-shot vsync delivery.
func (c *Consumer) RequestNextVSync() error {
	return c.conn.RequestNextVSync()
}

// SetVSyncRate arms periodic vsync delivery every rate-th tick.
func (c *Consumer) SetVSyncRate(rate int32) error {
	return c.conn.SetVSyncRate(rate)
}

// SetHighPriorityVSyncRate arms the high-priority override rate.
func (c *Consumer) SetHighPriorityVSyncRate(rate int32) error {
	return c.conn.SetHighPriorityVSyncRate(rate)
}

// NextVSync pops the next delivered vsync timestamp, if any, without
// blocking.
func (c *Consumer) NextVSync() (int64, bool) {
	return c.conn.Receive()
}

// Close releases the consumer's vsync subscription.
func (c *Consumer) Close() {
	c.conn.Close()
}
