package vsync_test

import (
	"testing"
	"time"

	"github.com/momentics/gfxqueue/core/vsync"
)

// drainOne polls Receive for up to the given timeout, returning the first
// delivered timestamp. Used because delivery happens on the distributor's
// own goroutine, asynchronously with respect to the test.
func drainOne(t *testing.T, c *vsync.VSyncConnection, timeout time.Duration) (int64, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ts, ok := c.Receive(); ok {
			return ts, true
		}
		time.Sleep(time.Millisecond)
	}
	return 0, false
}

func TestOneShotDelivery(t *testing.T) {
	d := vsync.NewVSyncDistributor("test", vsync.NullController{})
	defer d.Stop()

	c := d.NewConnection("C")
	if err := c.RequestNextVSync(); err != nil {
		t.Fatal(err)
	}

	d.OnVSyncEvent(1_000_000)

	ts, ok := drainOne(t, c, time.Second)
	if !ok {
		t.Fatal("expected a delivered timestamp")
	}
	if ts != 1_000_000 {
		t.Errorf("timestamp = %d, want 1000000", ts)
	}

	d.OnVSyncEvent(2_000_000)
	if _, ok := drainOne(t, c, 100*time.Millisecond); ok {
		t.Error("expected no further delivery after the one-shot fired, rate should be -1 again")
	}
}

func TestPeriodicRateTwo(t *testing.T) {
	d := vsync.NewVSyncDistributor("test", vsync.NullController{})
	defer d.Stop()

	c := d.NewConnection("C")

	// Advance the tick counter to 9 with no active waiter; these ticks
	// are dropped since nothing is requesting them.
	for i := 1; i <= 9; i++ {
		d.OnVSyncEvent(int64(i))
		time.Sleep(time.Millisecond)
	}

	if err := c.SetVSyncRate(2); err != nil {
		t.Fatal(err)
	}

	// Ticks 10, 11, 12, 13: rate 2 matches 10 and 12 only.
	var delivered []int64
	for i := 10; i <= 13; i++ {
		d.OnVSyncEvent(int64(i) * 1000)
		if ts, ok := drainOne(t, c, 100*time.Millisecond); ok {
			delivered = append(delivered, ts)
		}
	}

	if len(delivered) != 2 || delivered[0] != 10000 || delivered[1] != 12000 {
		t.Errorf("delivered = %v, want [10000 12000]", delivered)
	}
}

func TestSoftVSyncFallbackDeliversOneShot(t *testing.T) {
	d := vsync.NewVSyncDistributor("test", vsync.NullController{})
	defer d.Stop()

	c := d.NewConnection("C")
	if err := c.RequestNextVSync(); err != nil {
		t.Fatal(err)
	}

	// With no hardware source, the 16ms software fallback should still
	// synthesize a tick and deliver it.
	if _, ok := drainOne(t, c, time.Second); !ok {
		t.Fatal("expected a software-synthesized tick")
	}
}

func TestSetVSyncRateRejectsNoopAndNonPositive(t *testing.T) {
	d := vsync.NewVSyncDistributor("test", vsync.NullController{})
	defer d.Stop()

	c := d.NewConnection("C")
	if err := c.SetVSyncRate(0); err == nil {
		t.Error("expected error for non-positive rate")
	}
	if err := c.SetVSyncRate(3); err != nil {
		t.Fatal(err)
	}
	if err := c.SetVSyncRate(3); err == nil {
		t.Error("expected error for no-op rate change")
	}
}

func TestRemoveConnectionStopsDelivery(t *testing.T) {
	d := vsync.NewVSyncDistributor("test", vsync.NullController{})
	defer d.Stop()

	c := d.NewConnection("C")
	if err := c.SetVSyncRate(1); err != nil {
		t.Fatal(err)
	}
	if err := d.RemoveConnection(c); err != nil {
		t.Fatal(err)
	}

	d.OnVSyncEvent(42)
	if _, ok := drainOne(t, c, 100*time.Millisecond); ok {
		t.Error("expected no delivery to a removed connection")
	}
}
