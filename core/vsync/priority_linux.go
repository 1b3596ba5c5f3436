//go:build linux

package vsync

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedFIFO and schedPriority mirror the upstream distributor thread's
// scheduling class and priority; niceValue is the fallback applied
// regardless, since setpriority rarely requires elevated capabilities.
const (
	schedFIFO    = 1
	schedPriority = 2
	niceValue    = -6
)

// schedParam mirrors struct sched_param's layout for the single field the
// FIFO/RR classes use.
type schedParam struct {
	priority int32
}

// setDistributorThreadPriority requests real-time FIFO scheduling for the
// calling OS thread, falling back to a small negative nice value when the
// caller lacks CAP_SYS_NICE. An error is returned only when neither
// request succeeds.
func setDistributorThreadPriority() error {
	niceErr := unix.Setpriority(unix.PRIO_PROCESS, 0, niceValue)

	param := schedParam{priority: schedPriority}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(schedFIFO), uintptr(unsafe.Pointer(&param)))
	if errno != 0 && niceErr != nil {
		return errno
	}
	return nil
}
