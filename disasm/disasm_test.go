package disasm

import "testing"

// nopMovRet is push %ebp (0x55); mov %esp,%ebp (0x89 0xE5); nop (0x90);
// ret (0xC3) -- a minimal, recognizable x86-32 function prologue/epilogue.
var nopMovRet = []byte{0x55, 0x89, 0xE5, 0x90, 0xC3}

func TestDecodeWalksFixedLengthInstructions(t *testing.T) {
	lines := Decode(nopMovRet, 0x1000)
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4: %+v", len(lines), lines)
	}
	if lines[0].Addr != 0x1000 || lines[0].Length != 1 {
		t.Fatalf("lines[0] = %+v, want addr 0x1000 len 1 (push %%ebp)", lines[0])
	}
	if lines[1].Addr != 0x1001 || lines[1].Length != 2 {
		t.Fatalf("lines[1] = %+v, want addr 0x1001 len 2 (mov %%esp,%%ebp)", lines[1])
	}
	if lines[3].Length != 1 {
		t.Fatalf("lines[3] (ret) length = %d, want 1", lines[3].Length)
	}
}

func TestDecodeStopsOnUndecodableTail(t *testing.T) {
	truncated := []byte{0x0F} // a lone two-byte-opcode prefix, no operand bytes
	lines := Decode(truncated, 0)
	if len(lines) != 0 {
		t.Fatalf("len(lines) = %d, want 0 on undecodable tail", len(lines))
	}
}

func TestWindowNarrowsAroundEip(t *testing.T) {
	lines := Window(nopMovRet, 0x1000, 0x1003, 8, 8)
	if len(lines) == 0 {
		t.Fatalf("Window returned no instructions")
	}
	if lines[0].Addr != 0x1000 {
		t.Fatalf("Window start addr = %#x, want 0x1000", lines[0].Addr)
	}
}

func TestWindowOutOfRangeIsEmpty(t *testing.T) {
	if lines := Window(nopMovRet, 0x1000, 0x9000, 8, 8); lines != nil {
		t.Fatalf("Window(out of range) = %+v, want nil", lines)
	}
}

func TestFormatRendersAddrAndText(t *testing.T) {
	lines := Decode(nopMovRet, 0x1000)
	out := Format(lines)
	if out == "" {
		t.Fatalf("Format returned empty string")
	}
}
