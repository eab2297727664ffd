// Package keyboard is the scancode ring-buffer producer collaborator
// (spec.md §6 "Keyboard collaborator"): a 2048-entry cyclic buffer fed
// by the IRQ handler, plus readchar() decoding scancodes into ASCII.
// The ring itself is adapted from biscuit's circbuf.Circbuf_t
// (biscuit/src/circbuf/circbuf.go): same head/tail-modulo-capacity
// bookkeeping, specialized to a fixed byte capacity and single-byte
// push/pop instead of Circbuf_t's io.Reader/Writer-oriented interface,
// since an interrupt handler only ever pushes one scancode at a time.
// The decode state machine is grounded on original_source/kern/keyboard.c's
// readchar, simplified to the scancode set a PS/2 "set 1" keyboard
// actually emits for ASCII keys.
package keyboard

import "sync"

const ringCapacity = 2048

// Ring_t is the scancode cyclic buffer an interrupt handler pushes
// into and readchar drains (spec.md §6 "cyclic buffer sized 2048").
type Ring_t struct {
	mu         sync.Mutex
	buf        [ringCapacity]byte
	head, tail int
}

func (r *Ring_t) full() bool  { return r.head-r.tail == ringCapacity }
func (r *Ring_t) empty() bool { return r.head == r.tail }

// Push enqueues one scancode byte, dropping it if the ring is full
// (an interrupt handler cannot block).
func (r *Ring_t) Push(scancode byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full() {
		return
	}
	r.buf[r.head%ringCapacity] = scancode
	r.head++
}

// pop dequeues the next raw scancode, or (0, false) if empty.
func (r *Ring_t) pop() (byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.empty() {
		return 0, false
	}
	b := r.buf[r.tail%ringCapacity]
	r.tail++
	return b, true
}

// decoder tracks the shift state needed to turn a make/break scancode
// stream into ASCII (original_source/kern/keyboard.c's process_scancode,
// collapsed to the subset of set-1 codes with a direct ASCII mapping).
type decoder struct {
	shift bool
}

const (
	scLeftShiftMake   = 0x2A
	scLeftShiftBreak  = 0xAA
	scRightShiftMake  = 0x36
	scRightShiftBreak = 0xB6
	scBackspace       = 0x0E
	scEnter           = 0x1C
	scSpace           = 0x39
	breakBit          = 0x80
)

var lowerTable = map[byte]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
}

var upperTable = map[byte]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
	0x10: 'Q', 0x11: 'W', 0x12: 'E', 0x13: 'R', 0x14: 'T',
	0x15: 'Y', 0x16: 'U', 0x17: 'I', 0x18: 'O', 0x19: 'P',
	0x1E: 'A', 0x1F: 'S', 0x20: 'D', 0x21: 'F', 0x22: 'G',
	0x23: 'H', 0x24: 'J', 0x25: 'K', 0x26: 'L',
	0x2C: 'Z', 0x2D: 'X', 0x2E: 'C', 0x2F: 'V', 0x30: 'B',
	0x31: 'N', 0x32: 'M',
}

// feed processes one scancode and returns the decoded character and
// true only for key-release events that carry printable data (original
// source's readchar loop: "!KH_ISMAKE(aug_char) -> key is released ->
// return").
func (d *decoder) feed(sc byte) (byte, bool) {
	switch sc {
	case scLeftShiftMake, scRightShiftMake:
		d.shift = true
		return 0, false
	case scLeftShiftBreak, scRightShiftBreak:
		d.shift = false
		return 0, false
	}

	make := sc&breakBit == 0
	code := sc &^ breakBit
	if make {
		return 0, false
	}

	switch code {
	case scBackspace:
		return '\b', true
	case scEnter:
		return '\n', true
	case scSpace:
		return ' ', true
	}
	table := lowerTable
	if d.shift {
		table = upperTable
	}
	if ch, ok := table[code]; ok {
		return ch, true
	}
	return 0, false
}

// Keyboard_t is the full collaborator: a ring buffer plus the decode
// state machine, instantiated once and fed by the IRQ handler.
type Keyboard_t struct {
	ring Ring_t
	dec  decoder
}

// Interrupt is called from the keyboard IRQ handler with the byte read
// off the PS/2 data port (spec.md §6; original_source's
// keyboard_c_handler "inb(KEYBOARD_PORT)").
func (k *Keyboard_t) Interrupt(scancode byte) { k.ring.Push(scancode) }

// Readchar drains the ring until it produces a decoded character or
// runs dry, returning -1 on empty exactly as spec.md §6 specifies
// ("readchar() -> int (negative when empty)").
func (k *Keyboard_t) Readchar() int {
	for {
		sc, ok := k.ring.pop()
		if !ok {
			return -1
		}
		if ch, ok := k.dec.feed(sc); ok {
			return int(ch)
		}
	}
}
