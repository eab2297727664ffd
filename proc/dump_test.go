package proc

import (
	"strings"
	"testing"

	"nucleus/arch"
)

func TestDumpregsWithoutCodeListsRegistersOnly(t *testing.T) {
	root := newTestRoot(t)
	frame := &arch.TrapFrame{Vector: 14, ErrorCode: 0x4, Eip: 0x1234, Eax: 0xdead}
	out := Dumpregs(root.tcb, frame, nil, 0)
	if !strings.Contains(out, "vector=14") {
		t.Fatalf("Dumpregs output missing vector: %q", out)
	}
	if !strings.Contains(out, "eip=0x001234") {
		t.Fatalf("Dumpregs output missing eip: %q", out)
	}
}

func TestDumpregsWithCodeAppendsDisassembly(t *testing.T) {
	root := newTestRoot(t)
	code := []byte{0x55, 0x89, 0xE5, 0x90, 0xC3} // push %ebp; mov %esp,%ebp; nop; ret
	frame := &arch.TrapFrame{Vector: 14, Eip: 0x1002}
	out := Dumpregs(root.tcb, frame, code, 0x1000)
	if !strings.Contains(out, "00001000:") {
		t.Fatalf("Dumpregs output missing disassembly window: %q", out)
	}
}
