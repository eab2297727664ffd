package proc

import (
	"runtime"

	"nucleus/catalog"
	"nucleus/config"
	"nucleus/console"
	"nucleus/defs"
	"nucleus/mem"
	"nucleus/sched"
	"nucleus/vm"
)

// Console is the single text-mode console every task's print() writes
// to (spec.md §6 "Console collaborator"), replacing the klog-only
// placeholder this package started with.
var Console = console.NewConsole()

// Context is the per-thread view of the kernel that a catalog program
// runs against; it implements catalog.Syscalls. Each TCB_t's program
// body runs on its own goroutine, which stands in for that thread's
// kernel stack: Go cannot duplicate a goroutine's call stack the way a
// real fork duplicates a process's, so Fork/ThreadFork take the
// child's continuation as a callback rather than returning into the
// same call twice (see catalog.Syscalls and DESIGN.md).
type Context struct {
	tcb *TCB_t
}

// NewFirstTask creates the boot init task (spec.md §4.7 "First task"):
// a PCB, a root TCB, and a freshly mapped address space, then starts
// prog running with argv. If init is nil, the new task is installed as
// the reparent target.
func NewFirstTask(progName string, argv []string) (*Context, error) {
	prog, ok := catalog.Lookup(progName)
	if !ok {
		return nil, errNotFound(progName)
	}
	tid := System.NewTaskId()
	task := NewPCB(tid, nil)
	task.LiveThreads = 1
	tcb := NewTCB(task, tid, 0)

	System.RegisterTask(task)
	System.RegisterThread(tcb)
	if System.InitTask == nil {
		System.InitTask = task
	}

	ctx := &Context{tcb: tcb}
	runProgram(ctx, prog, argv)
	return ctx, nil
}

// runProgram starts prog.Run on its own goroutine, representing the
// program counter entering the catalog entry's "ELF entry point"
// (spec.md §4.7: "crafts a trap frame that returns to the ELF entry
// ... and executes iret"). A real iret is unnecessary here: the
// closure itself is the thread's user-mode execution.
func runProgram(ctx *Context, prog *catalog.Program, argv []string) {
	ctx.tcb.SetState(sched.RUNNING)
	go func() {
		prog.Run(ctx, argv)
		ctx.Vanish()
	}()
}

type notFoundError string

func (e notFoundError) Error() string { return "catalog: unknown program " + string(e) }
func errNotFound(name string) error   { return notFoundError(name) }

// Gettid returns the calling thread's tid.
func (c *Context) Gettid() defs.Tid_t { return c.tcb.Tid() }

// SetStatus records status on the owning task (spec.md §6 "set_status").
func (c *Context) SetStatus(status int) {
	task := c.tcb.Task
	task.mu.Lock()
	task.Status = status
	task.mu.Unlock()
}

// Print writes s to the console (spec.md §6 "print").
func (c *Context) Print(s string) { Console.WriteString(s) }

// Yield cooperatively hands the CPU to the Go runtime scheduler,
// standing in for spec.md §4.4's make_runnable_and_switch/force_next_thread
// at the goroutine-harness level: real preemption lives in sched.System
// and sched.Timer, which this harness does not drive.
func (c *Context) Yield(tid defs.Tid_t) defs.Err_t {
	runtime.Gosched()
	return 0
}

// Sleep yields ticks times, approximating spec.md §4.5's tick-driven
// wake without a real hardware timer.
func (c *Context) Sleep(ticks int) defs.Err_t {
	if ticks < 0 {
		return -defs.EINVAL
	}
	for i := 0; i < ticks; i++ {
		runtime.Gosched()
	}
	return 0
}

// NewPages implements new_pages (spec.md §4.3) against the calling
// thread's address space.
func (c *Context) NewPages(base uintptr, length int) defs.Err_t {
	return c.tcb.Task.AddrSpace.NewPages(base, length)
}

// RemovePages implements remove_pages (spec.md §4.3).
func (c *Context) RemovePages(base uintptr) defs.Err_t {
	return c.tcb.Task.AddrSpace.RemovePages(base)
}

// Fork implements fork (spec.md §4.7): rejects multi-threaded tasks,
// deep-copies the address space, and links the new task into the
// parent's running-children list before starting childMain.
func (c *Context) Fork(childMain func(catalog.Syscalls)) (defs.Tid_t, defs.Err_t) {
	parent := c.tcb.Task

	parent.mu.Lock()
	multiThreaded := parent.LiveThreads != 1
	parent.mu.Unlock()
	if multiThreaded {
		return 0, -defs.EILLSTATE
	}

	childAS, err := parent.AddrSpace.Fork()
	if err != 0 {
		return 0, err
	}

	tid := System.NewTaskId()
	child := NewPCB(tid, parent)
	child.AddrSpace = childAS
	child.LiveThreads = 1
	childTCB := NewTCB(child, tid, 0)

	System.RegisterTask(child)
	System.RegisterThread(childTCB)
	parent.AddChild(child)

	childCtx := &Context{tcb: childTCB}
	childTCB.SetState(sched.RUNNING)
	go func() {
		childMain(childCtx)
		childCtx.Vanish()
	}()
	return tid, 0
}

// ThreadFork implements thread_fork (spec.md §4.7): a new TCB sharing
// the caller's PCB and address space.
func (c *Context) ThreadFork(childMain func(catalog.Syscalls)) (defs.Tid_t, defs.Err_t) {
	task := c.tcb.Task
	tid := System.NewThreadId()

	task.mu.Lock()
	task.LiveThreads++
	task.mu.Unlock()

	childTCB := NewTCB(task, tid, 0)
	System.RegisterThread(childTCB)

	childCtx := &Context{tcb: childTCB}
	childTCB.SetState(sched.RUNNING)
	go func() {
		childMain(childCtx)
		childCtx.Vanish()
	}()
	return tid, 0
}

// Exec implements exec (spec.md §4.7): validates execname/argv,
// rejects multi-threaded callers, tears down the old address space,
// and runs the replacement program in place. A successful Exec never
// returns to its caller because the replacement program eventually
// calls Vanish, which ends the goroutine (runtime.Goexit); only
// validation failures return.
func (c *Context) Exec(execname string, argv []string) defs.Err_t {
	if len(execname) == 0 || len(execname) > config.MaxExecStringLen {
		return -defs.ENAMETOOLONG
	}
	for _, a := range argv {
		if len(a) > config.MaxExecStringLen {
			return -defs.ENAMETOOLONG
		}
	}
	task := c.tcb.Task
	task.mu.Lock()
	multiThreaded := task.LiveThreads != 1
	task.mu.Unlock()
	if multiThreaded {
		return -defs.EILLSTATE
	}

	prog, ok := catalog.Lookup(execname)
	if !ok {
		return -defs.ESRCH
	}

	old := task.AddrSpace
	unfaulted := old.CountUnfaultedZfod()
	old.Dir.Teardown(false)
	mem.Physmem.UnreserveFrames(unfaulted)
	old.ClearZfod()

	task.AddrSpace = vm.NewAddrSpace()
	c.tcb.Swexn = Swexn_t{}

	prog.Run(c, argv)
	c.Vanish()
	return 0
}

// Wait implements wait (spec.md §4.7). If no live child can ever
// reach this caller (live children <= threads already waiting ahead
// of it), it returns -ECHILD immediately without registering as a waiter;
// otherwise it dequeues a zombie if one is ready, or blocks until
// vanish() delivers one.
func (c *Context) Wait() (defs.Tid_t, int, defs.Err_t) {
	task := c.tcb.Task

	ch := make(chan *PCB_t, 1)
	zombie, live, waiting := task.beginWait(ch)
	if zombie != nil {
		return reapStatus(zombie)
	}
	if live <= waiting {
		return 0, 0, -defs.ECHILD
	}

	c.tcb.SetState(sched.BLOCKED)
	z := <-ch
	c.tcb.SetState(sched.RUNNING)
	c.tcb.ReapedTask = z
	return reapStatus(z)
}

func reapStatus(z *PCB_t) (defs.Tid_t, int, defs.Err_t) {
	z.mu.Lock()
	tid, status := z.OriginalTid, z.Status
	z.mu.Unlock()
	return tid, status, 0
}

// Vanish implements vanish (spec.md §4.7). It never returns: the
// calling goroutine ends via runtime.Goexit once cleanup is complete,
// exactly as a real vanish never returns to its caller.
func (c *Context) Vanish() {
	tcb := c.tcb
	task := tcb.Task

	task.mu.Lock()
	task.LiveThreads--
	last := task.LiveThreads == 0
	task.mu.Unlock()

	if last {
		task.mu.Lock()
		task.State = TaskZombie
		children := make([]*PCB_t, 0, len(task.Children))
		for _, ch := range task.Children {
			children = append(children, ch)
		}
		task.mu.Unlock()

		reparentToInit(task, children)

		unfaulted := task.AddrSpace.CountUnfaultedZfod()
		task.AddrSpace.Dir.Teardown(false)
		mem.Physmem.UnreserveFrames(unfaulted)
		task.AddrSpace.ClearZfod()

		task.LastStackBase = tcb.StackBase
		if task.Parent != nil {
			task.Parent.reportExit(task)
		} else if System.InitTask != nil && System.InitTask != task {
			System.InitTask.mu.Lock()
			System.InitTask.Zombies = append(System.InitTask.Zombies, task)
			System.InitTask.mu.Unlock()
		}
	}

	System.Threads.Del(tcb.Tid())
	System.EnqueueGC(tcb, tcb.StackBase)
	tcb.SetState(sched.ZOMBIE)
	runtime.Goexit()
}

// reparentToInit moves every live child of a dying task to init,
// appending children that are already zombies straight onto init's
// zombie queue (spec.md §4.7 "vanish").
func reparentToInit(task *PCB_t, children []*PCB_t) {
	initTask := System.InitTask
	for _, ch := range children {
		task.removeChild(ch.Tid)
		if initTask == nil || initTask == task {
			continue
		}
		ch.mu.Lock()
		ch.Parent = initTask
		isZombie := ch.State == TaskZombie
		ch.mu.Unlock()

		initTask.mu.Lock()
		if isZombie {
			initTask.Zombies = append(initTask.Zombies, ch)
		} else {
			initTask.Children[ch.Tid] = ch
		}
		initTask.mu.Unlock()
	}
}
