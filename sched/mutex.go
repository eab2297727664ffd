package sched

import (
	"sync/atomic"

	"nucleus/defs"
)

// TicketMutex_t is a spin-yield lock for small regions where blocking
// is undesirable -- the hashtable and kernel-state metadata before the
// scheduler exists (spec.md §4.6). Waiters yield directly to the
// current owner's tid instead of spinning, avoiding priority inversion
// when the owner is runnable.
type TicketMutex_t struct {
	next     int64
	owner    int64 // ticket number currently being served, starting at 0
	ownerTid int64 // tid of the thread holding the served ticket
}

// Lock acquires the ticket mutex, yielding to the current owner while
// waiting rather than busy-spinning (spec.md §4.6).
func (m *TicketMutex_t) Lock(self defs.Tid_t, yield func(defs.Tid_t)) {
	my := atomic.AddInt64(&m.next, 1) - 1
	for atomic.LoadInt64(&m.owner) != my {
		if System.Ready() {
			yield(defs.Tid_t(atomic.LoadInt64(&m.ownerTid)))
		}
	}
	atomic.StoreInt64(&m.ownerTid, int64(self))
}

// Unlock releases the ticket mutex, advancing it to the next waiter.
func (m *TicketMutex_t) Unlock() {
	atomic.AddInt64(&m.owner, 1)
}

// QueueMutex_t blocks waiters via the scheduler instead of spinning
// (spec.md §4.6). It is a no-op before the scheduler is initialized,
// since nothing else can be runnable to race with it yet.
type QueueMutex_t struct {
	locked  bool
	owner   Thread
	waiters Queue_t
}

// Lock acquires the mutex, blocking the calling thread if it is
// already held. Re-acquisition by the owning thread is a no-op
// (spec.md §4.6).
func (m *QueueMutex_t) Lock(self Thread) {
	if !System.Ready() {
		return
	}
	disableInterruptsFn()
	if !m.locked {
		m.locked = true
		m.owner = self
		enableInterruptsFn()
		return
	}
	if m.owner != nil && m.owner.Tid() == self.Tid() {
		enableInterruptsFn()
		return
	}
	m.waiters.Push(self)
	System.BlockAndSwitch(self, func() { enableInterruptsFn() })
	disableInterruptsFn()
	m.owner = self
	enableInterruptsFn()
}

// Unlock releases the mutex, waking one waiter (FIFO) if any is
// queued (spec.md §4.6).
func (m *QueueMutex_t) Unlock() {
	if !System.Ready() {
		return
	}
	disableInterruptsFn()
	next := m.waiters.Pop()
	if next == nil {
		m.locked = false
		m.owner = nil
		enableInterruptsFn()
		return
	}
	m.owner = next
	enableInterruptsFn()
	System.AddRunnable(next)
}
