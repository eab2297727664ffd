package trap

import (
	"nucleus/arch"
	"nucleus/config"
	"nucleus/klog"
	"nucleus/proc"
)

// Outcome reports what Dispatch decided should happen next.
type Outcome int

const (
	// Resolved means frame needs no further change: either the trap
	// was not a fault (a syscall or IRQ, handled elsewhere), or a
	// page fault was resolved against the ZFOD table.
	Resolved Outcome = iota
	// Reentered means frame was rewritten in place to iret into the
	// thread's registered swexn handler.
	Reentered
	// Unhandled means no ZFOD resolution and no swexn handler applied;
	// the caller must report the faulting thread's exit status and
	// vanish it (spec.md §4.9, §7 "vanishes only the faulting thread").
	Unhandled
)

// Dispatch implements the generic exception path (spec.md §4.9): page
// faults are first attempted against the faulting thread's ZFOD table
// (§4.3); any other unresolved exception falls through to the swexn
// trampoline, then to Unhandled. Non-fault vectors (syscalls, IRQs)
// are always Resolved here -- their own handlers run before Dispatch
// is reached.
func Dispatch(tcb *proc.TCB_t, frame *arch.TrapFrame) Outcome {
	if frame.Vector != config.PageFaultVector {
		return Resolved
	}

	cr2 := arch.ReadCR2()
	if err := tcb.Task.AddrSpace.HandlePageFault(cr2); err == 0 {
		return Resolved
	}

	if tcb.Swexn.Set {
		BuildSwexnFrame(tcb, frame, frame.Vector, cr2)
		return Reentered
	}
	return Unhandled
}

// ReportUnhandled performs the Unhandled outcome's side effects: log a
// register/disassembly dump (proc.Dumpregs, SPEC_FULL.md §3), set the
// task's exit status to -2, and vanish only the faulting thread
// (spec.md §4.9). It must run on the faulting thread's own goroutine,
// since Vanish ends that goroutine via runtime.Goexit and never
// returns to its caller.
func ReportUnhandled(tcb *proc.TCB_t, frame *arch.TrapFrame, code []byte, codeBase uint32) {
	klog.Printf("%s", proc.Dumpregs(tcb, frame, code, codeBase))
	ctx := proc.ContextOf(tcb)
	ctx.SetStatus(-2)
	ctx.Vanish()
}
