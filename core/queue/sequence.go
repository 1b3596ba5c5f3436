package queue

import (
	"os"
	"sync/atomic"
)

// pid is mixed into every sequence number's high 32 bits (spec §3.1,
// invariant 5) so sequences stay unique even when buffers cross process
// boundaries over the out-of-scope IPC transport.
var pid = uint64(uint32(os.Getpid()))

var seqCounter uint32

// nextSequence returns a process-unique, monotonically increasing buffer
// identity: low 32 bits from a global counter, high 32 bits the pid.
func nextSequence() uint64 {
	low := atomic.AddUint32(&seqCounter, 1)
	return pid<<32 | uint64(low)
}

var queueIDCounter uint32

// nextQueueID mirrors nextSequence for BufferQueue.uniqueId (spec §3.3).
func nextQueueID() uint64 {
	low := atomic.AddUint32(&queueIDCounter, 1)
	return pid<<32 | uint64(low)
}
