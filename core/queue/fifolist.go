package queue

import eapachequeue "github.com/eapache/queue"

// fifoList is a FIFO of buffer sequence numbers backed by eapache/queue's
// ring-buffer Queue, used for the free, dirty, and deleting lists. The
// eapache queue only pops from the front, so arbitrary removal (needed when
// a config-matching buffer isn't at the head of the free list) rebuilds the
// queue minus the removed element; queueSize is small enough (≤ a few
// dozen) that this is cheap compared to the alternative of hand-rolling a
// doubly linked list.
type fifoList struct {
	q *eapachequeue.Queue
}

func newFIFOList() *fifoList {
	return &fifoList{q: eapachequeue.New()}
}

func (l *fifoList) PushBack(seq uint64) {
	l.q.Add(seq)
}

func (l *fifoList) PopFront() (uint64, bool) {
	if l.q.Length() == 0 {
		return 0, false
	}
	return l.q.Remove().(uint64), true
}

func (l *fifoList) Len() int {
	return l.q.Length()
}

// FindFirst returns the first sequence satisfying pred without removing it.
func (l *fifoList) FindFirst(pred func(uint64) bool) (uint64, bool) {
	for i := 0; i < l.q.Length(); i++ {
		seq := l.q.Peek().(uint64)
		if i == 0 {
			if pred(seq) {
				return seq, true
			}
		} else if pred(l.q.Get(i).(uint64)) {
			return l.q.Get(i).(uint64), true
		}
	}
	return 0, false
}

// Remove deletes the first occurrence of seq, preserving the order of the
// remaining entries. Reports whether seq was found.
func (l *fifoList) Remove(seq uint64) bool {
	n := l.q.Length()
	found := false
	rest := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		v := l.q.Remove().(uint64)
		if !found && v == seq {
			found = true
			continue
		}
		rest = append(rest, v)
	}
	for _, v := range rest {
		l.q.Add(v)
	}
	return found
}

// Snapshot returns the current contents in FIFO order without mutating the
// list, for Dump/DumpCache.
func (l *fifoList) Snapshot() []uint64 {
	n := l.q.Length()
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = l.q.Get(i).(uint64)
	}
	return out
}

// DrainInto pops every entry and calls fn for each, in FIFO order.
func (l *fifoList) DrainInto(fn func(uint64)) {
	for {
		seq, ok := l.PopFront()
		if !ok {
			return
		}
		fn(seq)
	}
}

// DrainSlice pops every entry into a freshly allocated slice, in FIFO
// order. Used by Request to hand the producer its deletingBuffers report.
func (l *fifoList) DrainSlice() []uint64 {
	out := make([]uint64, 0, l.Len())
	l.DrainInto(func(seq uint64) {
		out = append(out, seq)
	})
	return out
}
