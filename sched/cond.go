package sched

// Cond_t is a condition variable. All operations assume the paired
// QueueMutex_t is held by the caller (spec.md §4.6).
type Cond_t struct {
	waiters Queue_t
}

// Wait enqueues the current thread, releases mu, deschedules, and
// reacquires mu before returning (spec.md §4.6, §5 "a thread waking
// from cond_wait holds the paired mutex before returning").
func (c *Cond_t) Wait(self Thread, mu *QueueMutex_t) {
	disableInterruptsFn()
	c.waiters.Push(self)
	mu.Unlock()
	System.BlockAndSwitch(self, func() { enableInterruptsFn() })
	mu.Lock(self)
}

// Signal wakes one waiter, re-adding it to the ready queue until its
// state reads RUNNABLE or RUNNING: a signal can race with the waiter's
// own descheduling (spec.md §4.6). It does not yield.
func (c *Cond_t) Signal() {
	disableInterruptsFn()
	w := c.waiters.Pop()
	enableInterruptsFn()
	if w == nil {
		return
	}
	for {
		System.AddRunnable(w)
		if w.State() == RUNNABLE || w.State() == RUNNING {
			return
		}
	}
}

// Broadcast wakes every waiter, applying Signal's protocol to each.
func (c *Cond_t) Broadcast() {
	for {
		disableInterruptsFn()
		w := c.waiters.Pop()
		enableInterruptsFn()
		if w == nil {
			return
		}
		for {
			System.AddRunnable(w)
			if w.State() == RUNNABLE || w.State() == RUNNING {
				break
			}
		}
	}
}
