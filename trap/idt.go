// Package trap implements the IDT installation, the uniform trap
// dispatch path, and the swexn re-entry trampoline (spec.md §4.9,
// §4.10). Like sched, this is the literal bare-metal-intended layer:
// Install programs a real arch.idt and is meaningful only against
// actual hardware, while Dispatch/BuildSwexnFrame are ordinary Go
// logic exercised directly by tests against synthetic arch.TrapFrame
// values and proc.TCB_t fixtures, independent of the goroutine-based
// catalog execution harness in proc (see DESIGN.md).
package trap

import (
	"nucleus/arch"
	"nucleus/config"
)

// Gates is the full set of assembly entry-stub addresses this kernel
// installs: one per CPU exception (0..31), one for the timer IRQ, one
// for the keyboard IRQ, and one per syscall number, starting at
// config.SyscallVectorBase. A real boot stub supplies these addresses;
// zero entries are left unprogrammed.
type Gates struct {
	Exceptions [config.NumExceptionVectors]uintptr
	Timer      uintptr
	Keyboard   uintptr
	Syscalls   []uintptr // indexed by syscall number
}

// Install programs gates into the IDT (spec.md §4.9 "At boot the IDT
// is programmed with trap gates for each CPU exception vector and the
// single timer and keyboard IRQ vectors, plus one gate per syscall
// number").
func Install(g Gates, codeSeg uint16) {
	for v, stub := range g.Exceptions {
		if stub != 0 {
			arch.SetGate(v, stub, codeSeg)
		}
	}
	if g.Timer != 0 {
		arch.SetGate(config.TimerVector, g.Timer, codeSeg)
	}
	if g.Keyboard != 0 {
		arch.SetGate(config.KeyboardVector, g.Keyboard, codeSeg)
	}
	for n, stub := range g.Syscalls {
		if stub != 0 {
			arch.SetGate(config.SyscallVectorBase+n, stub, codeSeg)
		}
	}
	arch.LoadIDT(arch.IDTBase(), idtLimit)
}

// idtLimit is the pseudo-descriptor limit for a full 256-entry IDT of
// 8-byte gates: 256*8-1.
const idtLimit = 256*8 - 1
