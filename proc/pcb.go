package proc

import (
	"sync"

	"nucleus/defs"
	"nucleus/vm"
)

// TaskState is a task's lifecycle state (spec.md §3 PCB field "state
// {RUNNING, ZOMBIE}"). Distinct from sched.State, which tracks threads.
type TaskState int

const (
	TaskRunning TaskState = iota
	TaskZombie
)

// PCB_t is a task's control block (spec.md §3 "PCB (per task)").
type PCB_t struct {
	mu sync.Mutex // guards every field below except AddrSpace, which has its own lock

	Tid         defs.Tid_t
	OriginalTid defs.Tid_t // the tid of the task's first thread
	Status      int
	State       TaskState
	LiveThreads int

	AddrSpace *vm.AddrSpace_t

	Parent   *PCB_t
	Children map[defs.Tid_t]*PCB_t // live children, keyed by tid
	Zombies  []*PCB_t              // reaped-but-unclaimed children, in arrival order

	// waiters is the queue of threads blocked in wait: each entry is a
	// channel that vanish() closes over with the reaped child (spec.md
	// §3 "queue of threads blocked in wait"). Modeled with channels
	// rather than an intrusive TCB queue since proc drives concurrency
	// through goroutines, not a literal assembly context switch -- see
	// the note in DESIGN.md on the catalog execution model.
	waiters []chan *PCB_t

	LastStackBase uintptr // last thread's kernel-stack base, for reaping
}

// NewPCB allocates a task control block with tid as both its task id
// and original thread id.
func NewPCB(tid defs.Tid_t, parent *PCB_t) *PCB_t {
	return &PCB_t{
		Tid:         tid,
		OriginalTid: tid,
		State:       TaskRunning,
		AddrSpace:   vm.NewAddrSpace(),
		Parent:      parent,
		Children:    make(map[defs.Tid_t]*PCB_t),
	}
}

// AddChild links child into p's running-children list (spec.md §4.7
// "fork"). Acquire order is always child-then-parent (spec.md §5).
func (p *PCB_t) AddChild(child *PCB_t) {
	child.mu.Lock()
	child.Parent = p
	child.mu.Unlock()

	p.mu.Lock()
	p.Children[child.Tid] = child
	p.mu.Unlock()
}

// beginWait dequeues an existing zombie child if one is already
// available. Otherwise, under the same lock reportExit uses (so the
// two can never race past each other), it compares live children
// against threads already waiting: if live children <= threads
// already queued ahead of this one, every live child's eventual
// report is already spoken for and this caller must fail fast rather
// than register and block forever (spec.md §4.7 "wait": "live
// children <= waiting threads"). Only when a report can still reach
// this caller does it append ch to the waiter queue.
func (p *PCB_t) beginWait(ch chan *PCB_t) (zombie *PCB_t, liveChildren, waitingAhead int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Zombies) > 0 {
		z := p.Zombies[0]
		p.Zombies = p.Zombies[1:]
		return z, len(p.Children), len(p.waiters)
	}
	live, waiting := len(p.Children), len(p.waiters)
	if live <= waiting {
		return nil, live, waiting
	}
	p.waiters = append(p.waiters, ch)
	return nil, live, waiting
}

// reportExit is called by a dying child on its parent: either hands
// the child directly to a thread already blocked in wait, or appends
// it to the zombie queue, atomically with beginWait (spec.md §4.7
// "vanish").
func (p *PCB_t) reportExit(child *PCB_t) {
	p.mu.Lock()
	delete(p.Children, child.Tid)
	var w chan *PCB_t
	if len(p.waiters) > 0 {
		w = p.waiters[0]
		p.waiters = p.waiters[1:]
	} else {
		p.Zombies = append(p.Zombies, child)
	}
	p.mu.Unlock()

	if w != nil {
		w <- child
	}
}

// removeChild drops child from the live-children set without zombie
// bookkeeping (used when reparenting, spec.md §4.7 "vanish").
func (p *PCB_t) removeChild(tid defs.Tid_t) {
	p.mu.Lock()
	delete(p.Children, tid)
	p.mu.Unlock()
}
