package console

import (
	"testing"

	"nucleus/config"
	"nucleus/defs"
	"nucleus/keyboard"
	"nucleus/mem"
	"nucleus/sched"
	"nucleus/vm"
)

// This package's tests run as an ordinary host process, not ring 0:
// invlpg (behind vm.FlushTLBEntryFn, reached via NewPages/HandlePageFault
// in readlineFixture below) is a privileged instruction and would
// fault the test binary, the same reasoning vm's own tests stub it
// for (see vm/vm_test.go).
func init() {
	vm.FlushTLBEntryFn = func(uintptr) {}
}

func TestPutbyteAdvancesCursorAndDraws(t *testing.T) {
	c := NewConsole()
	c.Putbyte('a')
	if got := c.GetChar(0, 0); got != 'a' {
		t.Fatalf("GetChar(0,0) = %q, want 'a'", got)
	}
	if row, col := c.GetCursor(); row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
}

func TestPutbyteNewlineAndCarriageReturn(t *testing.T) {
	c := NewConsole()
	c.Putbyte('x')
	c.Putbyte('\n')
	if row, col := c.GetCursor(); row != 1 || col != 0 {
		t.Fatalf("cursor after \\n = (%d,%d), want (1,0)", row, col)
	}
	c.Putbyte('y')
	c.Putbyte('\r')
	if row, col := c.GetCursor(); row != 1 || col != 0 {
		t.Fatalf("cursor after \\r = (%d,%d), want (1,0)", row, col)
	}
}

func TestPutbyteBackspaceErasesPreviousCell(t *testing.T) {
	c := NewConsole()
	c.Putbyte('z')
	c.Putbyte('\b')
	if got := c.GetChar(0, 0); got != 0 {
		t.Fatalf("GetChar(0,0) after backspace = %q, want 0", got)
	}
	if row, col := c.GetCursor(); row != 0 || col != 0 {
		t.Fatalf("cursor after backspace = (%d,%d), want (0,0)", row, col)
	}
}

func TestPutbyteWrapsAndScrollsAtBottomRow(t *testing.T) {
	c := NewConsole()
	c.DrawChar(0, 0, 'X', DefaultColor)
	for r := 0; r < config.ConsoleHeight; r++ {
		c.SetCursor(r, config.ConsoleWidth-1)
		c.Putbyte('z')
	}
	if got := c.GetChar(0, 0); got == 'X' {
		t.Fatalf("row 0 survived a scroll that should have discarded it")
	}
	if row, _ := c.GetCursor(); row != config.ConsoleHeight-1 {
		t.Fatalf("cursor row = %d, want pinned at bottom row %d", row, config.ConsoleHeight-1)
	}
}

func TestDrawCharOutOfBoundsIsIgnored(t *testing.T) {
	c := NewConsole()
	c.DrawChar(-1, 0, 'a', DefaultColor)
	c.DrawChar(0, config.ConsoleWidth, 'a', DefaultColor)
	if got := c.GetChar(-1, 0); got != 0 {
		t.Fatalf("GetChar out of bounds = %q, want 0", got)
	}
}

func TestScrollUpShiftsRowsAndClearsBottom(t *testing.T) {
	c := NewConsole()
	c.DrawChar(0, 0, 'a', DefaultColor)
	c.DrawChar(1, 0, 'b', DefaultColor)
	c.ScrollUp()
	if got := c.GetChar(0, 0); got != 'b' {
		t.Fatalf("GetChar(0,0) after scroll = %q, want 'b'", got)
	}
	if got := c.GetChar(config.ConsoleHeight-1, 0); got != 0 {
		t.Fatalf("GetChar(bottom,0) after scroll = %q, want 0", got)
	}
}

func TestCursorHideShowSentinel(t *testing.T) {
	c := NewConsole()
	c.SetCursor(3, 4)
	c.HideCursor()
	row, col := c.GetCursor()
	if row != config.ConsoleHeight-1 || col != config.ConsoleWidth {
		t.Fatalf("hidden cursor = (%d,%d), want sentinel", row, col)
	}
	c.ShowCursor()
	if row, col := c.GetCursor(); row != 3 || col != 4 {
		t.Fatalf("cursor after show = (%d,%d), want (3,4)", row, col)
	}
}

func TestTermColorRoundTrips(t *testing.T) {
	c := NewConsole()
	c.SetTermColor(0x1F)
	if got := c.GetTermColor(); got != 0x1F {
		t.Fatalf("GetTermColor() = %#x, want 0x1f", got)
	}
}

func TestWriteStringEncodesAndFallsBack(t *testing.T) {
	c := NewConsole()
	c.WriteString("Ab")
	if got := c.GetChar(0, 0); got != 'A' {
		t.Fatalf("GetChar(0,0) = %q, want 'A'", got)
	}
	if got := c.GetChar(0, 1); got != 'b' {
		t.Fatalf("GetChar(0,1) = %q, want 'b'", got)
	}

	c2 := NewConsole()
	c2.WriteString("中") // a CJK ideograph with no CP437 encoding
	if got := c2.GetChar(0, 0); got != fallbackGlyph {
		t.Fatalf("GetChar(0,0) = %q, want fallback %q", got, fallbackGlyph)
	}
}

// fakeThread is the minimal sched.Thread fixture readline's queue mutex
// needs; it never actually blocks in these single-goroutine tests since
// the mutex is always uncontended.
type fakeThread struct {
	sched.Node
	tid   defs.Tid_t
	state sched.State
}

func (f *fakeThread) Tid() defs.Tid_t        { return f.tid }
func (f *fakeThread) State() sched.State     { return f.state }
func (f *fakeThread) SetState(s sched.State) { f.state = s }
func (f *fakeThread) SPPtr() *uintptr        { var sp uintptr; return &sp }
func (f *fakeThread) CR3() uintptr           { return 0 }

func readlineFixture(t *testing.T, nframes int) *vm.AddrSpace_t {
	t.Helper()
	mem.Physmem = &mem.Physmem_t{}
	mem.Physmem.Init(config.KernelTop, nframes)
	vm.InitKernelMappings()
	as := vm.NewAddrSpace()
	return as
}

func TestReadlineEchoesAndReturnsLine(t *testing.T) {
	c := NewConsole()
	var kb keyboard.Keyboard_t
	kb.Interrupt(0x1E) // 'a' make
	kb.Interrupt(0x1E | 0x80)
	kb.Interrupt(0x30) // 'b' make
	kb.Interrupt(0x30 | 0x80)
	kb.Interrupt(0x1C) // enter make
	kb.Interrupt(0x1C | 0x80)

	as := readlineFixture(t, 16)
	const userBuf = config.UserMin + 0x1000
	if err := as.NewPages(userBuf, config.PageSize); err != 0 {
		t.Fatalf("NewPages err = %v", err)
	}
	if err := as.HandlePageFault(userBuf); err != 0 {
		t.Fatalf("HandlePageFault err = %v", err)
	}

	self := &fakeThread{tid: 1}
	n, err := c.Readline(self, &kb, as, userBuf, 16)
	if err != 0 {
		t.Fatalf("Readline err = %v", err)
	}
	if n != 2 {
		t.Fatalf("Readline n = %d, want 2", n)
	}
	got := vm.CopyIn(as, userBuf, n)
	if string(got) != "ab" {
		t.Fatalf("Readline copied %q, want \"ab\"", got)
	}
}

func TestReadlineTruncatesToUserLen(t *testing.T) {
	c := NewConsole()
	var kb keyboard.Keyboard_t
	for _, sc := range []byte{0x1E, 0x1E | 0x80, 0x30, 0x30 | 0x80, 0x1C, 0x1C | 0x80} {
		kb.Interrupt(sc)
	}

	as := readlineFixture(t, 16)
	const userBuf = config.UserMin + 0x1000
	if err := as.NewPages(userBuf, config.PageSize); err != 0 {
		t.Fatalf("NewPages err = %v", err)
	}
	if err := as.HandlePageFault(userBuf); err != 0 {
		t.Fatalf("HandlePageFault err = %v", err)
	}

	self := &fakeThread{tid: 1}
	n, err := c.Readline(self, &kb, as, userBuf, 1)
	if err != 0 {
		t.Fatalf("Readline err = %v", err)
	}
	if n != 1 {
		t.Fatalf("Readline n = %d, want 1 (truncated)", n)
	}
}

func TestReadlineBackspaceEditsBuffer(t *testing.T) {
	c := NewConsole()
	var kb keyboard.Keyboard_t
	kb.Interrupt(0x1E) // 'a'
	kb.Interrupt(0x1E | 0x80)
	kb.Interrupt(0x0E) // backspace
	kb.Interrupt(0x0E | 0x80)
	kb.Interrupt(0x30) // 'b'
	kb.Interrupt(0x30 | 0x80)
	kb.Interrupt(0x1C) // enter
	kb.Interrupt(0x1C | 0x80)

	as := readlineFixture(t, 16)
	const userBuf = config.UserMin + 0x1000
	if err := as.NewPages(userBuf, config.PageSize); err != 0 {
		t.Fatalf("NewPages err = %v", err)
	}
	if err := as.HandlePageFault(userBuf); err != 0 {
		t.Fatalf("HandlePageFault err = %v", err)
	}

	self := &fakeThread{tid: 1}
	n, err := c.Readline(self, &kb, as, userBuf, 16)
	if err != 0 {
		t.Fatalf("Readline err = %v", err)
	}
	got := vm.CopyIn(as, userBuf, n)
	if string(got) != "b" {
		t.Fatalf("Readline copied %q, want \"b\"", got)
	}
}
