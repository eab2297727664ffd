package proc

import (
	"sync"
	"unsafe"

	"nucleus/defs"
	"nucleus/sched"
)

// Swexn_t is a thread's registered software-exception handler: all
// three fields are set together or cleared together (spec.md §3 TCB
// field "software-exception handler triple").
type Swexn_t struct {
	Set          bool
	UserStackTop uintptr
	EntryEip     uintptr
	OpaqueArg    uintptr
}

// TCB_t is a thread control block (spec.md §3 "TCB (per thread)"). It
// implements sched.Thread so the scheduler's ready queue, mutexes and
// condition variables can operate on it without a proc<->sched import
// cycle.
type TCB_t struct {
	sched.Node

	mu sync.Mutex // per-thread mutex (spec.md §3)

	Task      *PCB_t // owning task, never owns the TCB
	tid       defs.Tid_t
	state     sched.State
	sp        uintptr
	StackBase uintptr // kernel-stack base

	Swexn Swexn_t

	// ReapedTask is set by wait() on the waiter's own TCB once vanish
	// has handed it the exited task, recording which task it reaped
	// (spec.md §4.7 "wait").
	ReapedTask *PCB_t
}

// NewTCB allocates a thread control block for task, with a synthetic
// kernel-stack base standing in for a real allocated stack page.
func NewTCB(task *PCB_t, tid defs.Tid_t, stackBase uintptr) *TCB_t {
	return &TCB_t{Task: task, tid: tid, state: sched.RUNNABLE, StackBase: stackBase}
}

// Tid satisfies sched.Thread.
func (t *TCB_t) Tid() defs.Tid_t { return t.tid }

func (t *TCB_t) State() sched.State { return t.state }

func (t *TCB_t) SetState(s sched.State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *TCB_t) SPPtr() *uintptr { return &t.sp }

// CR3 is the physical address of the owning task's page directory,
// represented as the directory's Go-heap pointer value, since this
// kernel has no real MMU to assign it one.
func (t *TCB_t) CR3() uintptr {
	return uintptr(unsafe.Pointer(t.Task.AddrSpace.Dir))
}

// ContextOf builds the catalog.Syscalls view for an already-registered
// TCB. Used by the trap dispatch path, which looks a thread up by tid
// out of System.Threads and needs to invoke Vanish/SetStatus on it
// exactly as the thread's own goroutine would.
func ContextOf(t *TCB_t) *Context { return &Context{tcb: t} }
