package console

import (
	"runtime"

	"nucleus/config"
	"nucleus/defs"
	"nucleus/keyboard"
	"nucleus/sched"
	"nucleus/vm"
)

// readlineState is the single shared consumer side of readline
// (spec.md §4.8): a bounded edit buffer, and the queue mutex that
// serializes every caller onto it ("only one reader may be pending at
// a time; other callers of readline serialize on a queue mutex").
type readlineState struct {
	mu      sched.QueueMutex_t
	editBuf [config.ReadlineBufSize]byte
	editLen int
}

// Readline implements the readline rendezvous: it takes the console's
// readline queue mutex, drains the keyboard ring until a newline,
// echoing printable characters and honoring backspace, then copies up
// to min(userLen, line length) bytes into the caller's address space
// at userBuf through vm.CopyOut, which writes the frames' backing
// storage without switching cr3 (spec.md §4.8). Since this
// harness has no independently running, IRQ-woken consumer thread, the
// calling thread itself drains the ring under the queue mutex -- which
// already guarantees only one reader is ever active, so the
// user-visible behavior (echo, editing, single pending reader) is the
// same as a dedicated consumer thread's (see DESIGN.md).
func (c *Console_t) Readline(self sched.Thread, kb *keyboard.Keyboard_t, as *vm.AddrSpace_t, userBuf uintptr, userLen int) (int, defs.Err_t) {
	c.readline.mu.Lock(self)
	defer c.readline.mu.Unlock()

	c.readline.editLen = 0
	for {
		ch := kb.Readchar()
		if ch < 0 {
			runtime.Gosched()
			continue
		}
		b := byte(ch)
		switch b {
		case '\b':
			if c.readline.editLen > 0 {
				c.readline.editLen--
				c.Putbyte('\b')
			}
		case '\n', '\r':
			c.Putbyte('\n')
			n := c.readline.editLen
			if n > userLen {
				n = userLen
			}
			vm.CopyOut(as, userBuf, c.readline.editBuf[:n])
			return n, 0
		default:
			if c.readline.editLen < config.ReadlineBufSize {
				c.readline.editBuf[c.readline.editLen] = b
				c.readline.editLen++
				c.Putbyte(b)
			}
		}
	}
}
