// Package vsync implements the VSyncDistributor: a single hardware or
// software vsync source fanned out to many subscribers, each with an
// independently programmable rate divisor.
//
// Author: momentics <momentics@gmail.com>
package vsync

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/concurrency"
)

// connectionQueueDepth bounds the per-connection timestamp backlog. A
// subscriber that falls this far behind is treated as slow (postBusy)
// rather than blocking the distributor thread.
const connectionQueueDepth = 8

// ConnectionInfo is a read-only snapshot of a connection's identity and
// delivery counters, returned by VSyncDistributor.GetVSyncConnectionInfos.
type ConnectionInfo struct {
	Name           string
	PostVSyncCount int64
}

// VSyncConnection is one subscriber's registration with a VSyncDistributor.
// rate encodes the subscriber's request state: -1 inactive, 0 a pending
// one-shot, >0 an active periodic divisor. highPriorityRate/highPriorityState
// mirror the same tri-state for the high-priority override, which takes
// precedence over rate whenever active. The rate fields are mutated only
// by the owning distributor's methods, under its mutex; closed and
// postVSyncCount are atomics and the timestamp queue is a lock-free ring,
// so VSyncConnection itself holds no lock.
type VSyncConnection struct {
	name        string
	distributor *VSyncDistributor

	rate               int32
	highPriorityRate   int32
	highPriorityState  bool

	postVSyncCount int64
	closed         atomic.Bool
	queue          *concurrency.RingBuffer[int64]
}

func newVSyncConnection(d *VSyncDistributor, name string) *VSyncConnection {
	return &VSyncConnection{
		name:        name,
		distributor: d,
		rate:        -1,
		queue:       concurrency.NewRingBuffer[int64](connectionQueueDepth),
	}
}

// Name returns the subscriber's registered name.
func (c *VSyncConnection) Name() string { return c.name }

// RequestNextVSync arms a one-shot delivery if the connection is currently
// inactive; a no-op if it is already waiting or periodic.
func (c *VSyncConnection) RequestNextVSync() error {
	if c.distributor == nil {
		return fmt.Errorf("%w: distributor reference is gone", api.ErrNullPtr)
	}
	return c.distributor.RequestNextVSync(c)
}

// SetVSyncRate arms periodic delivery every rate-th tick.
func (c *VSyncConnection) SetVSyncRate(rate int32) error {
	if c.distributor == nil {
		return fmt.Errorf("%w: distributor reference is gone", api.ErrNullPtr)
	}
	return c.distributor.SetVSyncRate(rate, c)
}

// SetHighPriorityVSyncRate arms the high-priority override, which takes
// precedence over SetVSyncRate's divisor until the connection is removed.
func (c *VSyncConnection) SetHighPriorityVSyncRate(rate int32) error {
	if c.distributor == nil {
		return fmt.Errorf("%w: distributor reference is gone", api.ErrNullPtr)
	}
	return c.distributor.SetHighPriorityVSyncRate(rate, c)
}

// Receive pops the next delivered timestamp without blocking.
func (c *VSyncConnection) Receive() (int64, bool) {
	return c.queue.Dequeue()
}

// Close marks the connection as gone. The distributor thread evicts it on
// its next delivery attempt, the same way a closed socket write would.
func (c *VSyncConnection) Close() {
	c.closed.Store(true)
}

// postOutcome classifies the result of delivering one timestamp, mirroring
// the success/gone/EAGAIN trichotomy a real socket write would produce.
type postOutcome int

const (
	postOK postOutcome = iota
	postGone
	postBusy
)

// postEvent enqueues a timestamp for the subscriber to Receive.
func (c *VSyncConnection) postEvent(ts int64) postOutcome {
	if c.closed.Load() {
		return postGone
	}
	if !c.queue.Enqueue(ts) {
		return postBusy
	}
	atomic.AddInt64(&c.postVSyncCount, 1)
	return postOK
}

func (c *VSyncConnection) info() ConnectionInfo {
	return ConnectionInfo{Name: c.name, PostVSyncCount: atomic.LoadInt64(&c.postVSyncCount)}
}
