// Package sched implements the ready queue, context switch, timer-tick
// preemption, sleep service, and the mutex/condition-variable
// primitives built over deschedule/make_runnable (spec.md §4.4-§4.6).
//
// The scheduler never imports proc: proc.TCB satisfies the Thread
// interface below the same way biscuit's page-table code depends on
// mem.Page_i or fdops.Fdops_i instead of a concrete type, so the
// scheduling core can be tested without constructing a full task.
package sched

import "nucleus/defs"

// State is a thread's scheduling state (spec.md §3).
type State int

const (
	RUNNABLE State = iota
	RUNNING
	BLOCKED
	ZOMBIE
)

func (s State) String() string {
	switch s {
	case RUNNABLE:
		return "RUNNABLE"
	case RUNNING:
		return "RUNNING"
	case BLOCKED:
		return "BLOCKED"
	case ZOMBIE:
		return "ZOMBIE"
	default:
		return "?"
	}
}

// Thread is the subset of a TCB the scheduler needs to touch. proc.TCB
// implements it; sched never depends on proc's concrete type.
type Thread interface {
	Tid() defs.Tid_t
	State() State
	SetState(State)
	// SPPtr returns the address of the saved-kernel-stack-pointer
	// field inside the concrete TCB. arch.SwitchStack writes the
	// outgoing thread's live stack pointer through this address before
	// switching away, so it must be a stable field address, not a
	// value copy (spec.md §4.4 "save ... the kernel stack pointer ...
	// into the outgoing TCB").
	SPPtr() *uintptr
	// CR3 is the physical address of this thread's page directory.
	CR3() uintptr
	// QNext/SetQNext provide the intrusive singly-linked queue slot
	// spec.md §9 calls for ("intrusive queues of TCBs ... appear
	// throughout"); exported so any package can embed Node and satisfy
	// Thread without sched needing to know the concrete type.
	QNext() Thread
	SetQNext(Thread)
}

// Node embeds into a concrete TCB to provide the intrusive queue link.
// Embedders get QNext/SetQNext for free.
type Node struct {
	next Thread
}

func (n *Node) QNext() Thread      { return n.next }
func (n *Node) SetQNext(t Thread)  { n.next = t }
