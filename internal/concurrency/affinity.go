// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU and NUMA affinity management with runtime detection.

package concurrency

import (
	"runtime"
)

// affinitySupported indicates if CPU affinity is supported on this platform.
var affinitySupported = checkAffinitySupport()

// checkAffinitySupport reports CPU affinity as available on every
// platform; where it is not, the platform functions themselves are no-ops.
func checkAffinitySupport() bool {
	return true
}

// PreferredCPUID returns the preferred CPU for the given NUMA node.
func PreferredCPUID(numaNode int) int {
	if numaNode < 0 {
		return 0
	}
	return platformPreferredCPUID(numaNode)
}

// CurrentNUMANodeID returns the NUMA node of the current thread.
func CurrentNUMANodeID() int {
	return platformCurrentNUMANodeID()
}

// PinCurrentThread binds the current OS thread to cpuID/numaNode. It is
// called by adapters.AffinityAdapter.Pin; the vsync distributor does not
// pin its worker thread.
func PinCurrentThread(numaNode, cpuID int) error {
	if !affinitySupported {
		return nil
	}
	return platformPinCurrentThread(numaNode, cpuID)
}

// UnpinCurrentThread removes CPU affinity constraints from current thread.
func UnpinCurrentThread() error {
	if !affinitySupported {
		return nil
	}
	return platformUnpinCurrentThread()
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// NUMANodes returns the number of NUMA nodes.
func NUMANodes() int {
	return platformNUMANodes()
}
