package sched

import "nucleus/arch"

// The scheduler's lock discipline and context switch call straight
// into arch's privileged primitives (cli/sti, mov-to-cr3, the stack
// switch trampoline). Every other file in this package calls these
// indirections rather than arch directly so that sched_test.go -- run
// as an ordinary host process, not ring 0 -- can swap in no-ops; any
// of cli/sti/mov-cr3 executed from ring 3 raises #GP. This is the same
// seam technique gopher-os uses for flushTLBEntryFn/activePDTFn
// (kernel/mem/vmm/map.go, pdt.go), extended here to interrupt masking
// and the context switch itself.
var (
	disableInterruptsFn = arch.DisableInterrupts
	enableInterruptsFn  = arch.EnableInterrupts
	loadCR3Fn           = arch.LoadCR3
	switchStackFn       = arch.SwitchStack
)
