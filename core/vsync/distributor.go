package vsync

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/gfxqueue/api"
)

// softVSyncPeriod bounds how long the distributor thread waits for a real
// hardware tick before synthesizing one of its own, letting the system
// deliver frames before any hardware vsync source has arrived.
const softVSyncPeriod = 16 * time.Millisecond

// Controller is the hardware vsync source a VSyncDistributor rides on top
// of: SetEnable arms/disarms the hardware interrupt, SetCallback installs
// the sink ticks are fed through.
type Controller interface {
	SetEnable(enable bool) error
	SetCallback(observer HardwareObserver) error
}

// HardwareObserver receives one hardware vsync tick as a monotonic
// nanosecond timestamp.
type HardwareObserver interface {
	OnVSyncEvent(nowNanos int64)
}

type vsyncEvent struct {
	timestamp  int64
	vsyncCount int64
}

// VSyncDistributor fans a single vsync source out to its registered
// connections at each one's independently programmable rate, from one
// dedicated worker goroutine running at elevated scheduling priority to
// minimize delivery jitter.
type VSyncDistributor struct {
	mu   sync.Mutex
	cond *sync.Cond

	name       string
	controller Controller

	connections []*VSyncConnection
	event       vsyncEvent

	vsyncEnabled bool
	running      bool

	wg sync.WaitGroup
}

var _ HardwareObserver = (*VSyncDistributor)(nil)

// NewVSyncDistributor starts the distributor thread immediately. controller
// may be nil, in which case the distributor runs purely on the
// softVSyncPeriod software fallback.
func NewVSyncDistributor(name string, controller Controller) *VSyncDistributor {
	d := &VSyncDistributor{
		name:       name,
		controller: controller,
		running:    true,
	}
	d.cond = sync.NewCond(&d.mu)
	d.wg.Add(1)
	go d.threadMain()
	return d
}

// Name returns the distributor's diagnostic name.
func (d *VSyncDistributor) Name() string { return d.name }

// Stop signals the distributor thread to exit and waits for it to join.
func (d *VSyncDistributor) Stop() {
	d.mu.Lock()
	d.running = false
	d.cond.Broadcast()
	d.mu.Unlock()
	d.wg.Wait()
}

// NewConnection registers and returns a fresh subscriber.
func (d *VSyncDistributor) NewConnection(name string) *VSyncConnection {
	conn := newVSyncConnection(d, name)
	d.mu.Lock()
	d.connections = append(d.connections, conn)
	d.mu.Unlock()
	return conn
}

// AddConnection registers an externally constructed connection. Most
// callers should prefer NewConnection; this exists for symmetry with the
// original API and for tests that need to pre-build a connection.
func (d *VSyncDistributor) AddConnection(conn *VSyncConnection) error {
	if conn == nil {
		return fmt.Errorf("%w: connection is nil", api.ErrNullPtr)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOfLocked(conn) >= 0 {
		return fmt.Errorf("%w: connection already registered", api.ErrInvalidArgument)
	}
	d.connections = append(d.connections, conn)
	return nil
}

// RemoveConnection unregisters a connection; a second removal is a no-op
// error, not a panic.
func (d *VSyncDistributor) RemoveConnection(conn *VSyncConnection) error {
	if conn == nil {
		return fmt.Errorf("%w: connection is nil", api.ErrNullPtr)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexOfLocked(conn)
	if idx < 0 {
		return fmt.Errorf("%w: connection not registered", api.ErrInvalidArgument)
	}
	d.connections = append(d.connections[:idx], d.connections[idx+1:]...)
	return nil
}

func (d *VSyncDistributor) indexOfLocked(conn *VSyncConnection) int {
	for i, c := range d.connections {
		if c == conn {
			return i
		}
	}
	return -1
}

// RequestNextVSync arms a one-shot delivery for conn if it is currently
// inactive.
func (d *VSyncDistributor) RequestNextVSync(conn *VSyncConnection) error {
	if conn == nil {
		return fmt.Errorf("%w: connection is nil", api.ErrNullPtr)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOfLocked(conn) < 0 {
		return fmt.Errorf("%w: connection not registered", api.ErrInvalidArgument)
	}
	if conn.rate < 0 {
		conn.rate = 0
		d.cond.Broadcast()
	}
	return nil
}

// SetVSyncRate arms periodic delivery every rate-th tick. A no-op change
// (setting the same rate again) is rejected.
func (d *VSyncDistributor) SetVSyncRate(rate int32, conn *VSyncConnection) error {
	if rate <= 0 || conn == nil {
		return fmt.Errorf("%w", api.ErrInvalidArgument)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOfLocked(conn) < 0 {
		return fmt.Errorf("%w: connection not registered", api.ErrInvalidArgument)
	}
	if conn.rate == rate {
		return fmt.Errorf("%w: rate unchanged", api.ErrInvalidArgument)
	}
	conn.rate = rate
	d.cond.Broadcast()
	return nil
}

// SetHighPriorityVSyncRate arms the high-priority override rate, which
// takes precedence over the plain rate until the connection is removed.
func (d *VSyncDistributor) SetHighPriorityVSyncRate(rate int32, conn *VSyncConnection) error {
	if rate <= 0 || conn == nil {
		return fmt.Errorf("%w", api.ErrInvalidArgument)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOfLocked(conn) < 0 {
		return fmt.Errorf("%w: connection not registered", api.ErrInvalidArgument)
	}
	if conn.highPriorityRate == rate {
		return fmt.Errorf("%w: high priority rate unchanged", api.ErrInvalidArgument)
	}
	conn.highPriorityRate = rate
	conn.highPriorityState = true
	d.cond.Broadcast()
	return nil
}

// OnVSyncEvent is the hardware-side entry point: it records the tick and
// wakes the distributor thread.
func (d *VSyncDistributor) OnVSyncEvent(nowNanos int64) {
	d.mu.Lock()
	d.event.timestamp = nowNanos
	d.event.vsyncCount++
	d.cond.Broadcast()
	d.mu.Unlock()
}

// GetVSyncConnectionInfos snapshots every registered connection's identity
// and delivery counter, for diagnostics.
func (d *VSyncDistributor) GetVSyncConnectionInfos() []ConnectionInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	infos := make([]ConnectionInfo, len(d.connections))
	for i, c := range d.connections {
		infos[i] = c.info()
	}
	return infos
}

// collectConnectionsLocked walks the connection list once per tick,
// deciding which connections are due a delivery this round and whether
// any connection is still awaiting one. Caller holds d.mu.
func (d *VSyncDistributor) collectConnectionsLocked(timestamp, vsyncCount int64) (waitForVSync bool, conns []*VSyncConnection) {
	for _, c := range d.connections {
		effective := c.rate
		if c.highPriorityState {
			effective = c.highPriorityRate
		}
		switch {
		case effective == 0:
			waitForVSync = true
			if timestamp > 0 {
				c.rate = -1
				conns = append(conns, c)
			}
		case effective > 0 && vsyncCount%int64(effective) == 0:
			switch {
			case c.rate == 0:
				waitForVSync = true
				if timestamp > 0 {
					c.rate = -1
					conns = append(conns, c)
				}
			case c.rate > 0:
				waitForVSync = true
				if timestamp > 0 {
					conns = append(conns, c)
				}
			}
		}
	}
	return waitForVSync, conns
}

// enableVSyncLocked arms the hardware controller, if not already armed.
// Caller holds d.mu.
func (d *VSyncDistributor) enableVSyncLocked() {
	if d.controller == nil || d.vsyncEnabled {
		return
	}
	d.vsyncEnabled = true
	if err := d.controller.SetCallback(d); err != nil {
		log.Printf("[vsync] %s: SetCallback failed: %v", d.name, err)
	}
	if err := d.controller.SetEnable(true); err != nil {
		log.Printf("[vsync] %s: SetEnable failed: %v", d.name, err)
	}
}

// waitSoftVSyncLocked blocks on d.cond for at most softVSyncPeriod,
// reporting whether it woke due to the timeout rather than a real signal.
// Caller holds d.mu; returns with d.mu held.
func (d *VSyncDistributor) waitSoftVSyncLocked() bool {
	timedOut := false
	timer := time.AfterFunc(softVSyncPeriod, func() {
		d.mu.Lock()
		timedOut = true
		d.cond.Broadcast()
		d.mu.Unlock()
	})
	d.cond.Wait()
	timer.Stop()
	return timedOut
}

func (d *VSyncDistributor) threadMain() {
	defer d.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := setDistributorThreadPriority(); err != nil {
		log.Printf("[vsync] %s: failed to raise thread priority: %v", d.name, err)
	}

	for {
		d.mu.Lock()
		if !d.running {
			d.mu.Unlock()
			return
		}

		timestamp := d.event.timestamp
		d.event.timestamp = 0
		vsyncCount := d.event.vsyncCount
		waitForVSync, conns := d.collectConnectionsLocked(timestamp, vsyncCount)

		if timestamp == 0 {
			if waitForVSync {
				d.enableVSyncLocked()
				if d.waitSoftVSyncLocked() {
					now := time.Now().UnixNano()
					d.event.timestamp = now
					d.event.vsyncCount++
				}
			} else if d.running {
				d.cond.Wait()
			}
			d.mu.Unlock()
			continue
		} else if !waitForVSync {
			// A hardware tick arrived with nobody waiting on it. The
			// upstream source deliberately does not disable hardware
			// vsync here, citing instability; this mirrors that.
			d.mu.Unlock()
			continue
		}
		d.mu.Unlock()

		for _, c := range conns {
			switch c.postEvent(timestamp) {
			case postGone:
				_ = d.RemoveConnection(c)
			case postBusy:
				d.mu.Lock()
				if c.rate < 0 {
					c.rate = 0
				}
				d.mu.Unlock()
			case postOK:
			}
		}
	}
}
