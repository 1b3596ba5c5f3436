// Package queue implements the producer/consumer buffer queue: a bounded
// pool of core/buffer.SurfaceBuffer instances moving through a five-state
// machine under a single mutex, with blocking request semantics and a
// separate free/dirty/deleting bookkeeping FIFO for each.
//
// Author: momentics <momentics@gmail.com>
package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
)

// RequestResult is the producer-visible outcome of a successful Request.
type RequestResult struct {
	Buffer          *buffer.SurfaceBuffer
	Sequence        uint64
	Fence           api.Fence
	DeletingBuffers []uint64
}

// AcquireResult is the consumer-visible outcome of a successful Acquire.
type AcquireResult struct {
	Buffer    *buffer.SurfaceBuffer
	Sequence  uint64
	Fence     api.Fence
	Timestamp int64
	Damage    api.Rect
}

// BufferQueue mediates the exchange of graphics buffers between one
// producer and one consumer. All mutations to cache/free/dirty/deleting/
// queueSize/listener*/onBufferDelete cross mu; user callbacks are always
// invoked after mu is released (spec §5).
type BufferQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	name     string
	uniqueID uint64
	isShared bool

	allocator api.Allocator

	cache                      map[uint64]*BufferElement
	free, dirty, deletingQueue *fifoList

	queueSize int

	defaultWidth, defaultHeight int32
	defaultUsage                uint64
	transform                   api.TransformType

	listener          api.ConsumerListener
	onBufferRelease   api.BufferReleaseFunc
	onBufferDelete    api.BufferDeleteListener
	deleteListenerSet bool

	// DumpPath, when non-empty and present on disk, enables the §6.4 debug
	// side channel: raw buffer bytes are written into that directory at
	// flush time. Empty (the default) disables the dump entirely.
	DumpPath string
}

// NewBufferQueue constructs an empty queue. A nil allocator defaults to
// buffer.NewDefaultAllocator, the heap-backed allocator used by tests and
// standalone demos.
func NewBufferQueue(name string, queueSize int, isShared bool, allocator api.Allocator) (*BufferQueue, error) {
	if isShared {
		queueSize = 1
	} else if queueSize <= 0 || queueSize > SurfaceMaxQueueSize {
		return nil, fmt.Errorf("%w: queueSize must be in [1,%d]", api.ErrInvalidArgument, SurfaceMaxQueueSize)
	}
	if allocator == nil {
		allocator = buffer.NewDefaultAllocator()
	}
	q := &BufferQueue{
		name:          name,
		uniqueID:      nextQueueID(),
		isShared:      isShared,
		allocator:     allocator,
		cache:         make(map[uint64]*BufferElement),
		free:          newFIFOList(),
		dirty:         newFIFOList(),
		deletingQueue: newFIFOList(),
		queueSize:     queueSize,
	}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// Init exists for contract symmetry with the producer/consumer facades; it
// performs no work and always succeeds (spec §9 open question).
func (q *BufferQueue) Init() error { return nil }

func (q *BufferQueue) Name() string     { return q.name }
func (q *BufferQueue) UniqueID() uint64 { return q.uniqueID }
func (q *BufferQueue) IsShared() bool   { return q.isShared }

// SetDefaults records the consumer-side hints a producer may fall back to.
func (q *BufferQueue) SetDefaults(width, height int32, usage uint64, transform api.TransformType) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.defaultWidth, q.defaultHeight, q.defaultUsage, q.transform = width, height, usage, transform
}

// SetConsumerListener installs the sole consumer notification sink,
// replacing any previously installed listener (spec §4.3).
func (q *BufferQueue) SetConsumerListener(l api.ConsumerListener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = l
}

// UnregisterConsumerListener clears the installed listener.
func (q *BufferQueue) UnregisterConsumerListener() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = nil
}

// SetOnBufferRelease installs the producer-side release interception hook.
func (q *BufferQueue) SetOnBufferRelease(fn api.BufferReleaseFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onBufferRelease = fn
}

// SetOnBufferDelete installs the infra-side eviction callback. Only the
// first call for this queue's lifetime takes effect; later calls are
// silently ignored. This is an intentional idempotent install, not a bug
// (spec §9 open question).
func (q *BufferQueue) SetOnBufferDelete(fn api.BufferDeleteListener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deleteListenerSet {
		return
	}
	q.onBufferDelete = fn
	q.deleteListenerSet = true
}

// CheckRequestConfig validates a BufferRequestConfig per spec §4.2.
func CheckRequestConfig(cfg api.BufferRequestConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive", api.ErrInvalidArgument)
	}
	if cfg.StrideAlignment < SurfaceMinStrideAlignment ||
		cfg.StrideAlignment > SurfaceMaxStrideAlignment ||
		cfg.StrideAlignment&(cfg.StrideAlignment-1) != 0 {
		return fmt.Errorf("%w: strideAlignment must be a power of two in [%d,%d]",
			api.ErrInvalidArgument, SurfaceMinStrideAlignment, SurfaceMaxStrideAlignment)
	}
	if cfg.Format < 0 || cfg.Format > api.PixelFormatButt {
		return fmt.Errorf("%w: format out of range", api.ErrInvalidArgument)
	}
	if cfg.ColorGamut < api.ColorGamutSRGB || cfg.ColorGamut > api.ColorGamutBT2020 {
		return fmt.Errorf("%w: colorGamut out of range", api.ErrInvalidArgument)
	}
	if cfg.Transform < api.TransformNone || cfg.Transform > api.TransformFlipV {
		return fmt.Errorf("%w: transform out of range", api.ErrInvalidArgument)
	}
	if cfg.ScalingMode < api.ScalingModeFreeze || cfg.ScalingMode > api.ScalingModeNoScaleCrop {
		return fmt.Errorf("%w: scalingMode out of range", api.ErrInvalidArgument)
	}
	return nil
}

// Request dequeues a buffer for the producer, allocating a fresh one if
// the pool has room or blocking on the queue's condition variable, bounded
// by cfg.Timeout milliseconds, if it does not (spec §4.2).
func (q *BufferQueue) Request(cfg api.BufferRequestConfig) (*RequestResult, error) {
	if err := CheckRequestConfig(cfg); err != nil {
		return nil, err
	}

	q.mu.Lock()
	var callbacks []func()
	defer func() {
		q.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}
	}()

	if q.listener == nil {
		return nil, fmt.Errorf("%w", api.ErrNoConsumer)
	}
	if q.isShared {
		return q.requestSharedLocked(cfg)
	}

	deadline := time.Now().Add(time.Duration(cfg.Timeout) * time.Millisecond)
	for {
		seq, el, found := q.popFreeLocked(cfg)
		if found {
			if el.Config.SameShape(cfg) {
				el.State = Requested
				return &RequestResult{
					Buffer:          el.Buffer,
					Sequence:        seq,
					Fence:           buffer.InvalidFence,
					DeletingBuffers: q.deletingQueue.DrainSlice(),
				}, nil
			}
			// The popped buffer doesn't match the requested shape: evict
			// it and fall through to a fresh allocation below, which
			// hands back a brand new sequence (the producer's mirrored
			// reference to the old one is stale the moment this returns).
			if fn := q.evictLocked(seq); fn != nil {
				callbacks = append(callbacks, fn)
			}
		}
		if len(q.cache) < q.queueSize {
			return q.allocateLocked(cfg)
		}
		if cfg.Timeout <= 0 || !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w", api.ErrNoBuffer)
		}
		q.waitUntilLocked(deadline)
	}
}

// requestSharedLocked implements spec §4.2 step 6: a shared queue always
// returns its single cached buffer, allocating it only the first time.
// Caller holds q.mu.
func (q *BufferQueue) requestSharedLocked(cfg api.BufferRequestConfig) (*RequestResult, error) {
	for seq, el := range q.cache {
		el.State = Requested
		return &RequestResult{
			Buffer:          el.Buffer,
			Sequence:        seq,
			Fence:           buffer.InvalidFence,
			DeletingBuffers: q.deletingQueue.DrainSlice(),
		}, nil
	}
	return q.allocateLocked(cfg)
}

// popFreeLocked pops a buffer off freeList, preferring one whose cached
// config matches cfg exactly but falling back to the head of the list
// regardless (spec §4.2 step 1). Caller holds q.mu.
func (q *BufferQueue) popFreeLocked(cfg api.BufferRequestConfig) (uint64, *BufferElement, bool) {
	if seq, ok := q.free.FindFirst(func(s uint64) bool {
		el, ok := q.cache[s]
		return ok && el.Config.SameShape(cfg)
	}); ok {
		q.free.Remove(seq)
		return seq, q.cache[seq], true
	}
	if seq, ok := q.free.PopFront(); ok {
		return seq, q.cache[seq], true
	}
	return 0, nil, false
}

// allocateLocked allocates a fresh buffer via the allocator and inserts it
// into the cache in state Requested. Caller holds q.mu.
func (q *BufferQueue) allocateLocked(cfg api.BufferRequestConfig) (*RequestResult, error) {
	handle, err := q.allocator.Alloc(cfg)
	if err != nil {
		return nil, err
	}
	if err := q.allocator.Map(handle); err != nil {
		return nil, err
	}
	seq := nextSequence()
	buf := buffer.NewSurfaceBuffer(seq, handle, cfg)
	q.cache[seq] = &BufferElement{
		Buffer: buf,
		State:  Requested,
		Config: cfg,
		Fence:  buffer.InvalidFence,
	}
	return &RequestResult{
		Buffer:          buf,
		Sequence:        seq,
		Fence:           buffer.InvalidFence,
		DeletingBuffers: q.deletingQueue.DrainSlice(),
	}, nil
}

// waitUntilLocked blocks on q.cond until woken or deadline elapses.
// Caller holds q.mu; returns with q.mu held.
func (q *BufferQueue) waitUntilLocked(deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}
	timer := time.AfterFunc(remaining, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	q.cond.Wait()
	timer.Stop()
}

// evictLocked removes seq from the cache, appends it to deletingList (so
// the producer learns of it at its next Request), and returns the
// registered delete callback, if any, for the caller to invoke once q.mu
// is released. Caller holds q.mu.
func (q *BufferQueue) evictLocked(seq uint64) func() {
	delete(q.cache, seq)
	q.deletingQueue.PushBack(seq)
	if q.onBufferDelete == nil {
		return nil
	}
	fn := q.onBufferDelete
	return func() { fn(seq) }
}

// Cancel returns a Requested buffer to the free list without flushing it.
// Refused on shared queues and for sequences not currently Requested
// (spec §4.2).
func (q *BufferQueue) Cancel(sequence uint64, extra *buffer.ExtraData) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isShared {
		return fmt.Errorf("%w: cancel is not allowed on shared queues", api.ErrInvalidOperating)
	}
	el, ok := q.cache[sequence]
	if !ok {
		return fmt.Errorf("%w: sequence %d", api.ErrNoEntry, sequence)
	}
	if el.State != Requested {
		return fmt.Errorf("%w: sequence %d is not Requested", api.ErrNoEntry, sequence)
	}
	if extra != nil {
		el.Buffer.ExtraData().Merge(extra)
	}
	el.State = Released
	q.free.PushBack(sequence)
	q.cond.Broadcast()
	return nil
}

// Flush marks a buffer ready for the consumer. If no listener is
// installed, it undoes the request via Cancel and returns NoConsumer
// (spec §4.2).
func (q *BufferQueue) Flush(sequence uint64, extra *buffer.ExtraData, acquireFence api.Fence, flushCfg api.FlushConfig) error {
	if flushCfg.Damage.W < 0 || flushCfg.Damage.H < 0 {
		return fmt.Errorf("%w: damage rect must be non-negative", api.ErrInvalidArgument)
	}

	q.mu.Lock()

	el, ok := q.cache[sequence]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: sequence %d", api.ErrNoEntry, sequence)
	}
	if !q.flushableLocked(el) {
		q.mu.Unlock()
		return fmt.Errorf("%w: sequence %d is not flushable in its current state", api.ErrNoEntry, sequence)
	}
	if q.listener == nil {
		q.mu.Unlock()
		if !q.isShared {
			_ = q.Cancel(sequence, nil)
		}
		return fmt.Errorf("%w", api.ErrNoConsumer)
	}

	if el.IsDeleting {
		delete(q.cache, sequence)
		q.mu.Unlock()
		return nil
	}

	if extra != nil {
		el.Buffer.ExtraData().Merge(extra)
	}
	el.Fence = acquireFence
	el.Damage = flushCfg.Damage
	if flushCfg.Timestamp != 0 {
		el.Timestamp = flushCfg.Timestamp
	} else {
		el.Timestamp = time.Now().UnixMicro()
	}
	el.State = Flushed
	if !q.isShared {
		q.dirty.PushBack(sequence)
	}
	if el.Buffer.GetUsage()&api.BufferUsageCPUWrite != 0 {
		_ = q.allocator.FlushCache(el.Buffer.GetBufferHandle())
	}
	q.dumpBufferLocked(el)

	listener := q.listener
	q.mu.Unlock()
	listener.OnBufferAvailable()
	return nil
}

// flushableLocked reports whether el may transition to Flushed. Non-shared
// queues only flush from Requested or Attached; shared queues additionally
// tolerate Flushed->Flushed and Acquired->Flushed re-circulation (spec
// §4.1). Caller holds q.mu.
func (q *BufferQueue) flushableLocked(el *BufferElement) bool {
	switch el.State {
	case Requested, Attached:
		return true
	case Flushed, Acquired:
		return q.isShared
	default:
		return false
	}
}

// dumpBufferLocked writes a buffer's raw bytes to DumpPath, if configured
// and present on disk (spec §6.4). Caller holds q.mu.
func (q *BufferQueue) dumpBufferLocked(el *BufferElement) {
	if q.DumpPath == "" {
		return
	}
	if _, err := os.Stat(q.DumpPath); err != nil {
		return
	}
	readable, ok := el.Buffer.GetBufferHandle().(interface{ Bytes() []byte })
	if !ok {
		return
	}
	name := fmt.Sprintf("bq_%d_%s_%d.raw", os.Getpid(), q.name, time.Now().UnixMicro())
	_ = os.WriteFile(filepath.Join(q.DumpPath, name), readable.Bytes(), 0o644)
}

// AttachBuffer admits an externally allocated buffer into the cache in
// state Attached, evicting from free/dirty if necessary to make room
// (spec §4.2). Refused on shared queues.
func (q *BufferQueue) AttachBuffer(handle api.BufferHandle, width, height int32) (uint64, error) {
	if q.isShared {
		return 0, fmt.Errorf("%w: attach is not allowed on shared queues", api.ErrInvalidOperating)
	}

	q.mu.Lock()
	var callbacks []func()
	defer func() {
		q.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}
	}()

	if len(q.cache) >= q.queueSize {
		need := len(q.cache) - q.queueSize + 1
		if q.reclaimLocked(need, &callbacks) < need {
			return 0, fmt.Errorf("%w: cannot evict enough buffers to attach", api.ErrOutOfRange)
		}
	}

	cfg := api.BufferRequestConfig{
		Width:           width,
		Height:          height,
		StrideAlignment: 8,
		Timeout:         0,
	}
	seq := nextSequence()
	buf := buffer.NewSurfaceBuffer(seq, handle, cfg)
	q.cache[seq] = &BufferElement{
		Buffer: buf,
		State:  Attached,
		Config: cfg,
		Fence:  buffer.InvalidFence,
	}
	return seq, nil
}

// reclaimLocked evicts up to need buffers from free then dirty (in that
// order), returning how many it actually freed. Caller holds q.mu.
func (q *BufferQueue) reclaimLocked(need int, callbacks *[]func()) int {
	freed := 0
	for _, list := range []*fifoList{q.free, q.dirty} {
		for freed < need {
			seq, ok := list.PopFront()
			if !ok {
				break
			}
			if fn := q.evictLocked(seq); fn != nil {
				*callbacks = append(*callbacks, fn)
			}
			freed++
		}
	}
	return freed
}

// DetachBuffer removes a Requested or Acquired buffer from the cache
// entirely; any other state fails with NoEntry (spec §4.2).
func (q *BufferQueue) DetachBuffer(sequence uint64) error {
	q.mu.Lock()
	var cb func()
	defer func() {
		q.mu.Unlock()
		if cb != nil {
			cb()
		}
	}()

	el, ok := q.cache[sequence]
	if !ok {
		return fmt.Errorf("%w: sequence %d", api.ErrNoEntry, sequence)
	}
	if el.State != Requested && el.State != Acquired {
		return fmt.Errorf("%w: sequence %d is not Requested or Acquired", api.ErrNoEntry, sequence)
	}
	delete(q.cache, sequence)
	if q.onBufferDelete != nil {
		fn := q.onBufferDelete
		cb = func() { fn(sequence) }
	}
	return nil
}

// Acquire dequeues the next flushed buffer for the consumer. Shared
// queues return the single cached buffer without popping a dirty list
// (spec §4.3).
func (q *BufferQueue) Acquire() (*AcquireResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isShared {
		for seq, el := range q.cache {
			if el.State != Flushed {
				continue
			}
			el.State = Acquired
			return &AcquireResult{
				Buffer:    el.Buffer,
				Sequence:  seq,
				Fence:     el.Fence,
				Timestamp: el.Timestamp,
				Damage:    el.Damage,
			}, nil
		}
		return nil, fmt.Errorf("%w", api.ErrNoBuffer)
	}

	seq, ok := q.dirty.PopFront()
	if !ok {
		return nil, fmt.Errorf("%w", api.ErrNoBuffer)
	}
	el, ok := q.cache[seq]
	if !ok {
		return nil, fmt.Errorf("%w", api.ErrNoBuffer)
	}
	el.State = Acquired
	return &AcquireResult{
		Buffer:    el.Buffer,
		Sequence:  seq,
		Fence:     el.Fence,
		Timestamp: el.Timestamp,
		Damage:    el.Damage,
	}, nil
}

// Release returns a buffer held by the consumer to the free list, unless
// onBufferRelease is installed and reports Ok, in which case the producer
// has taken custody out-of-band and the queue must not re-enqueue
// (spec §4.3).
func (q *BufferQueue) Release(sequence uint64, releaseFence api.Fence) error {
	q.mu.Lock()

	el, ok := q.cache[sequence]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: sequence %d", api.ErrNoEntry, sequence)
	}
	if el.State != Acquired && el.State != Attached {
		q.mu.Unlock()
		return fmt.Errorf("%w: sequence %d is not Acquired or Attached", api.ErrNoEntry, sequence)
	}

	if q.onBufferRelease != nil {
		fn := q.onBufferRelease
		q.mu.Unlock()
		if err := fn(sequence, releaseFence); err == nil {
			return nil
		}
		q.mu.Lock()
		// Re-validate: another goroutine may have mutated this entry
		// (or evicted it) while the callback ran without the lock.
		el, ok = q.cache[sequence]
		if !ok {
			q.mu.Unlock()
			return fmt.Errorf("%w: sequence %d", api.ErrNoEntry, sequence)
		}
	}

	el.Fence = releaseFence
	if el.IsDeleting {
		delete(q.cache, sequence)
	} else {
		el.State = Released
		if !q.isShared {
			q.free.PushBack(sequence)
		}
	}
	q.cond.Broadcast()
	q.mu.Unlock()
	return nil
}

// SetQueueSize resizes the pool's upper bound, evicting buffers from the
// head of free then dirty, then marking any remainder isDeleting, if
// shrinking (spec §4.4).
func (q *BufferQueue) SetQueueSize(n int) error {
	if n <= 0 || n > SurfaceMaxQueueSize {
		return fmt.Errorf("%w: queueSize must be in [1,%d]", api.ErrInvalidArgument, SurfaceMaxQueueSize)
	}
	if q.isShared && n != 1 {
		return fmt.Errorf("%w: shared queues must have queueSize 1", api.ErrInvalidArgument)
	}

	q.mu.Lock()
	var callbacks []func()
	old := q.queueSize
	q.queueSize = n
	if n < old {
		q.deleteBuffersLocked(old-n, &callbacks)
	}
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// deleteBuffersLocked implements spec §4.4's DeleteBuffers: evict count
// entries from free then dirty; anything left over is flagged isDeleting
// so it drops on its next flush or release instead of re-entering the
// pool. Caller holds q.mu.
func (q *BufferQueue) deleteBuffersLocked(count int, callbacks *[]func()) {
	removed := q.reclaimLocked(count, callbacks)
	if removed >= count {
		return
	}
	marked := 0
	for _, el := range q.cache {
		if marked >= count-removed {
			break
		}
		if el.IsDeleting {
			continue
		}
		el.IsDeleting = true
		marked++
	}
}

// CleanCache drops every cached buffer, invoking onBufferDelete for each,
// and wakes any blocked waiters so they observe an empty queue (spec §5,
// the BufferQueue destructor's behavior).
func (q *BufferQueue) CleanCache() {
	q.mu.Lock()
	var callbacks []func()
	for seq := range q.cache {
		if q.onBufferDelete != nil {
			fn := q.onBufferDelete
			callbacks = append(callbacks, func() { fn(seq) })
		}
	}
	q.cache = make(map[uint64]*BufferElement)
	q.free = newFIFOList()
	q.dirty = newFIFOList()
	q.deletingQueue = newFIFOList()
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Stats reports a snapshot suitable for a control.MetricsRegistry probe.
func (q *BufferQueue) Stats() map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return map[string]any{
		"name":       q.name,
		"shared":     q.isShared,
		"queue_size": q.queueSize,
		"cached":     len(q.cache),
		"free":       q.free.Len(),
		"dirty":      q.dirty.Len(),
		"deleting":   q.deletingQueue.Len(),
	}
}

// Dump renders a multi-line textual snapshot of queue state: per-buffer
// config, state, damage, timestamp, and memory footprint (spec §6.4).
func (q *BufferQueue) Dump() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "BufferQueue %q (id=%d shared=%v size=%d/%d)\n",
		q.name, q.uniqueID, q.isShared, len(q.cache), q.queueSize)
	for seq, el := range q.cache {
		fmt.Fprintf(&b, "  seq=%d state=%s deleting=%v damage=%+v ts=%d bytes=%d\n",
			seq, el.State, el.IsDeleting, el.Damage, el.Timestamp, el.Buffer.GetSize())
	}
	fmt.Fprintf(&b, "  free=%v dirty=%v deleting=%v\n",
		q.free.Snapshot(), q.dirty.Snapshot(), q.deletingQueue.Snapshot())
	return b.String()
}
