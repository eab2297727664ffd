// Package proc implements task/thread lifecycle: PCB/TCB control
// blocks, the tid-keyed lookup tables, and fork/exec/wait/vanish/
// thread_fork (spec.md §3, §4.7). Grounded on biscuit's process model
// (biscuit/src/proc/proc.go) for the PCB/TCB split and on gopher-os's
// explicit-singleton style for the kernel-state collaborator.
package proc

import (
	"sync"

	"nucleus/config"
	"nucleus/defs"
)

// gcItem is one entry on the garbage-collection queue: a thread cannot
// free the stack it is standing on, so it queues its own TCB and stack
// here for a later DrainGC (spec.md §3, §9).
type gcItem struct {
	tcb       *TCB_t
	stackBase uintptr
}

// Kernel_t is the process-wide kernel-state singleton (spec.md §3
// "Kernel state"). There is exactly one instance, System.
type Kernel_t struct {
	mu sync.Mutex // guards the id counters and gc queue

	nextTaskId   defs.Tid_t
	nextThreadId defs.Tid_t

	Tasks   *Hashtable_t // PCBs by tid
	Threads *Hashtable_t // TCBs by tid

	InitTask *PCB_t // boot init task, the reparent target

	gc []gcItem
}

// System is the single kernel-state instance.
var System = &Kernel_t{
	Tasks:   NewHashtable(config.TaskHashBuckets),
	Threads: NewHashtable(config.ThreadHashBuckets),
}

// NewTaskId returns the next task id, wrapping to 1 on overflow
// (spec.md §3 "monotonic next-task-id ... counters (wrap to 1 on
// overflow)").
func (k *Kernel_t) NewTaskId() defs.Tid_t {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextTaskId++
	if k.nextTaskId <= 0 {
		k.nextTaskId = 1
	}
	return k.nextTaskId
}

// NewThreadId returns the next thread id, with the same wraparound
// discipline as NewTaskId.
func (k *Kernel_t) NewThreadId() defs.Tid_t {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextThreadId++
	if k.nextThreadId <= 0 {
		k.nextThreadId = 1
	}
	return k.nextThreadId
}

// RegisterTask adds p to the task table.
func (k *Kernel_t) RegisterTask(p *PCB_t) { k.Tasks.Set(p.Tid, p) }

// RegisterThread adds t to the thread table.
func (k *Kernel_t) RegisterThread(t *TCB_t) { k.Threads.Set(t.Tid(), t) }

// LookupTask returns the PCB for tid, if any.
func (k *Kernel_t) LookupTask(tid defs.Tid_t) (*PCB_t, bool) {
	v, ok := k.Tasks.Get(tid)
	if !ok {
		return nil, false
	}
	return v.(*PCB_t), true
}

// LookupThread returns the TCB for tid, if any.
func (k *Kernel_t) LookupThread(tid defs.Tid_t) (*TCB_t, bool) {
	v, ok := k.Threads.Get(tid)
	if !ok {
		return nil, false
	}
	return v.(*TCB_t), true
}

// EnqueueGC appends stackBase and the thread's own TCB to the
// garbage-collection queue (spec.md §3, §9). Vanish and wait do not
// drain the queue; entries stay on it until DrainGC is called.
func (k *Kernel_t) EnqueueGC(t *TCB_t, stackBase uintptr) {
	k.mu.Lock()
	k.gc = append(k.gc, gcItem{tcb: t, stackBase: stackBase})
	k.mu.Unlock()
}

// DrainGC empties the garbage-collection queue, deleting each queued
// TCB's tid from the thread table. It returns nothing.
func (k *Kernel_t) DrainGC() {
	k.mu.Lock()
	items := k.gc
	k.gc = nil
	k.mu.Unlock()
	for _, it := range items {
		k.Threads.Del(it.tcb.Tid())
	}
}
