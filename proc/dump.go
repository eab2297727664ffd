package proc

import (
	"fmt"

	"nucleus/arch"
	"nucleus/disasm"
)

// Dumpregs renders a fatal-fault debug dump for tcb: the trap frame's
// full register state, plus -- when code is non-nil -- a disassembly
// window around frame.Eip (SPEC_FULL.md §3, grounded
// on biscuit's practice of printing full register state on a fatal
// kernel-entry path before killing the thread). code is the catalog
// program's text segment bytes, when the caller has them; a task built
// from a bare Go closure has none, and Dumpregs falls back to the
// register listing alone.
func Dumpregs(tcb *TCB_t, frame *arch.TrapFrame, code []byte, codeBase uint32) string {
	s := fmt.Sprintf(
		"tid %d: unhandled exception, vector=%d error=%#x\n"+
			"  eip=%#08x cs=%#04x eflags=%#08x esp3=%#08x ss3=%#04x\n"+
			"  eax=%#08x ebx=%#08x ecx=%#08x edx=%#08x esi=%#08x edi=%#08x ebp=%#08x\n",
		tcb.Tid(), frame.Vector, frame.ErrorCode,
		frame.Eip, frame.Cs, frame.Eflags, frame.Esp3, frame.Ss3,
		frame.Eax, frame.Ebx, frame.Ecx, frame.Edx, frame.Esi, frame.Edi, frame.Ebp,
	)
	if code == nil {
		return s
	}
	lines := disasm.Window(code, codeBase, frame.Eip, 16, 16)
	if len(lines) == 0 {
		return s
	}
	return s + disasm.Format(lines)
}
