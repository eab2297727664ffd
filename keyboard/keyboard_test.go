package keyboard

import "testing"

func TestReadcharEmptyIsNegative(t *testing.T) {
	var k Keyboard_t
	if got := k.Readchar(); got != -1 {
		t.Fatalf("Readchar() = %d, want -1", got)
	}
}

func TestReadcharDecodesLowercaseOnRelease(t *testing.T) {
	var k Keyboard_t
	k.Interrupt(0x1E)            // 'a' make
	k.Interrupt(0x1E | breakBit) // 'a' break
	if got := k.Readchar(); got != int('a') {
		t.Fatalf("Readchar() = %d, want %d ('a')", got, 'a')
	}
	if got := k.Readchar(); got != -1 {
		t.Fatalf("Readchar() after drain = %d, want -1", got)
	}
}

func TestReadcharAppliesShift(t *testing.T) {
	var k Keyboard_t
	k.Interrupt(scLeftShiftMake)
	k.Interrupt(0x1E)
	k.Interrupt(0x1E | breakBit)
	k.Interrupt(scLeftShiftBreak)
	if got := k.Readchar(); got != int('A') {
		t.Fatalf("Readchar() = %d, want %d ('A')", got, 'A')
	}
}

func TestReadcharSpecialKeys(t *testing.T) {
	var k Keyboard_t
	k.Interrupt(scEnter)
	k.Interrupt(scEnter | breakBit)
	k.Interrupt(scBackspace)
	k.Interrupt(scBackspace | breakBit)
	if got := k.Readchar(); got != int('\n') {
		t.Fatalf("Readchar() = %d, want newline", got)
	}
	if got := k.Readchar(); got != int('\b') {
		t.Fatalf("Readchar() = %d, want backspace", got)
	}
}

func TestRingDropsWhenFull(t *testing.T) {
	var r Ring_t
	for i := 0; i < ringCapacity; i++ {
		r.Push(byte(i))
	}
	r.Push(0xFF) // dropped: ring is full
	n := 0
	for {
		if _, ok := r.pop(); !ok {
			break
		}
		n++
	}
	if n != ringCapacity {
		t.Fatalf("drained %d entries, want %d", n, ringCapacity)
	}
}
