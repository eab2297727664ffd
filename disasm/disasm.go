// Package disasm decodes 32-bit x86 machine code into printable
// instruction listings, built on golang.org/x/arch/x86/x86asm exactly
// as the gokvm machine emulator's register decoding uses that package
// to interpret running guest code (SPEC_FULL.md §3). It backs both the
// standalone cmd/disasm ELF listing tool and proc.Dumpregs's
// disassembly window around a faulting eip.
package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded instruction: its address, raw byte length, and
// GNU-syntax rendering.
type Line struct {
	Addr   uint32
	Length int
	Text   string
}

// Decode disassembles code (the bytes of a loaded text segment) as a
// straight-line sequence of 32-bit instructions starting at base,
// stopping at the first undecodable byte rather than scanning past it
// -- a corrupt or hand-built region (spec.md §4.7's catalog
// collaborator is not a real ELF image) should not produce garbage
// instructions from desynced alignment.
func Decode(code []byte, base uint32) []Line {
	var lines []Line
	off := 0
	for off < len(code) {
		inst, err := x86asm.Decode(code[off:], 32)
		if err != nil || inst.Len == 0 {
			break
		}
		addr := base + uint32(off)
		lines = append(lines, Line{
			Addr:   addr,
			Length: inst.Len,
			Text:   x86asm.GNUSyntax(inst, uint64(addr), nil),
		})
		off += inst.Len
	}
	return lines
}

// Window disassembles the instructions overlapping [eip-before, eip+after)
// within code (addressed starting at base), for proc.Dumpregs's
// around-eip debug listing on an unhandled exception. It decodes from
// max(code start, eip-before) since x86 has no fixed instruction length
// to seek backward by; every line decoded from that point is returned,
// including any resync noise before eip.
func Window(code []byte, base, eip uint32, before, after int) []Line {
	if eip < base || int(eip-base) >= len(code) {
		return nil
	}
	startOff := int(eip - base)
	for startOff > 0 && int(eip)-int(base)-startOff < before {
		startOff--
	}
	endOff := int(eip-base) + after
	if endOff > len(code) {
		endOff = len(code)
	}

	return Decode(code[startOff:endOff], base+uint32(startOff))
}

// Format renders lines as one "addr: text" line per instruction,
// matching the layout objdump-style disassembly listings use.
func Format(lines []Line) string {
	s := ""
	for _, l := range lines {
		s += fmt.Sprintf("%08x: %s\n", l.Addr, l.Text)
	}
	return s
}
