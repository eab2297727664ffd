package sched

import (
	"sync"
)

// Scheduler_t is the process-wide scheduler singleton (part of
// spec.md §3 "Kernel state"): current thread, ready queue, and the
// lock disciplines spec.md §5 requires. There is exactly one instance,
// System, initialized once before interrupts are enabled.
type Scheduler_t struct {
	mu      sync.Mutex // not taken by any Scheduler_t method; ready and current are serialized by disabling interrupts alone
	ready   Queue_t
	current Thread
	ready_  bool // global kernel-ready flag (spec.md §3)
}

// System is the single scheduler instance.
var System = &Scheduler_t{}

// Current returns the currently running thread.
func (s *Scheduler_t) Current() Thread { return s.current }

// SetReady flips the global kernel-ready flag once the scheduler may
// be invoked (queue mutexes are no-ops before this point, spec.md §4.6).
func (s *Scheduler_t) SetReady() { s.ready_ = true }

// Ready reports whether the scheduler is initialized.
func (s *Scheduler_t) Ready() bool { return s.ready_ }

// SetInitial installs t as the running thread without going through a
// context switch, for the very first thread created at boot.
func (s *Scheduler_t) SetInitial(t Thread) {
	t.SetState(RUNNING)
	s.current = t
}

// AddRunnable appends t to the ready queue and marks it RUNNABLE
// (spec.md §4.4 "add_runnable").
func (s *Scheduler_t) AddRunnable(t Thread) {
	disableInterruptsFn()
	t.SetState(RUNNABLE)
	s.ready.Push(t)
	enableInterruptsFn()
}

// switchTo performs the actual context switch: saves the outgoing
// thread's stack pointer, loads the incoming thread's stack pointer
// and page directory, updates Current, and transitions the incoming
// thread to RUNNING (spec.md §4.4 "Context switch semantics"). The
// caller must already hold the scheduler's lock discipline (interrupts
// disabled) and must not touch outgoing/incoming state afterward: by
// the time SwitchStack returns, this goroutine IS the incoming thread
// resuming from its own earlier call into switchTo.
func (s *Scheduler_t) switchTo(outgoing, incoming Thread) {
	if incoming.CR3() != outgoing.CR3() {
		loadCR3Fn(incoming.CR3())
	}
	s.current = incoming
	incoming.SetState(RUNNING)
	switchStackFn(outgoing.SPPtr(), *incoming.SPPtr())
}

// RunNext dequeues a ready thread and switches to it. If none is
// available, current keeps running (the idle thread, spec.md §4.4).
func (s *Scheduler_t) RunNext(current Thread) {
	disableInterruptsFn()
	next := s.ready.Pop()
	if next == nil {
		enableInterruptsFn()
		return
	}
	s.switchTo(current, next)
	enableInterruptsFn()
}

// MakeRunnableAndSwitch appends current to the ready queue and
// switches to whatever runs next (spec.md §4.4). It is what the timer
// tick unconditionally invokes.
func (s *Scheduler_t) MakeRunnableAndSwitch(current Thread) {
	disableInterruptsFn()
	current.SetState(RUNNABLE)
	s.ready.Push(current)
	next := s.ready.Pop()
	if next == current {
		// nothing else is runnable: current came straight back off the
		// queue, so keep running it.
		current.SetState(RUNNING)
		enableInterruptsFn()
		return
	}
	s.switchTo(current, next)
	enableInterruptsFn()
}

// BlockAndSwitch puts current into BLOCKED, optionally unlocks a
// caller-supplied mutex once the state change is visible, and
// switches away (spec.md §4.4). unlock may be nil.
func (s *Scheduler_t) BlockAndSwitch(current Thread, unlock func()) {
	disableInterruptsFn()
	current.SetState(BLOCKED)
	if unlock != nil {
		unlock()
	}
	next := s.ready.Pop()
	if next == nil {
		panic("block_and_switch: no runnable thread (idle must always be runnable)")
	}
	s.switchTo(current, next)
	enableInterruptsFn()
}

// ForceNextThread removes target from the ready queue and switches
// directly to it, failing if target is not RUNNABLE (spec.md §4.4
// "yield to specific thread").
func (s *Scheduler_t) ForceNextThread(current, target Thread) bool {
	disableInterruptsFn()
	defer enableInterruptsFn()
	if target.State() != RUNNABLE {
		return false
	}
	if !s.ready.Remove(target) {
		return false
	}
	current.SetState(RUNNABLE)
	s.ready.Push(current)
	s.switchTo(current, target)
	return true
}
