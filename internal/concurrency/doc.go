// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU and NUMA affinity helpers for gfxqueue: topology queries and
// pinning/unpinning of the current OS thread.
//
// Linux with cgo uses libnuma; Windows uses SetThreadAffinityMask; Linux
// without cgo and all other platforms use no-op fallbacks.
package concurrency
