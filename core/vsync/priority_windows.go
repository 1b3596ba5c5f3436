//go:build windows

package vsync

import "golang.org/x/sys/windows"

// setDistributorThreadPriority requests time-critical scheduling for the
// calling OS thread, the closest Windows equivalent to Linux's SCHED_FIFO
// for minimizing vsync delivery jitter.
func setDistributorThreadPriority() error {
	h, err := windows.GetCurrentThread()
	if err != nil {
		return err
	}
	return windows.SetThreadPriority(h, windows.THREAD_PRIORITY_TIME_CRITICAL)
}
