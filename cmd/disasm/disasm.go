// Command disasm disassembles the text segment of an ELF32 executable,
// in the layout tools/makelogo.go uses for gopher-os's standalone build
// tools: a flat package main with flag-parsed arguments and os.Exit on
// error (SPEC_FULL.md §3). It is the one place golang.org/x/arch/x86/x86asm
// is exercised from a real ELF image on disk, matching how biscuit's own
// build wires disassembly listings in as tooling rather than kernel code.
package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"os"

	"nucleus/disasm"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "disasm: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	path := flag.String("f", "", "path to an ELF32 executable")
	addr := flag.Uint64("addr", 0, "address to center a disassembly window on (0 = whole .text)")
	before := flag.Int("before", 32, "bytes before -addr to include")
	after := flag.Int("after", 32, "bytes after -addr to include")
	flag.Parse()

	if *path == "" {
		exit(fmt.Errorf("missing -f"))
	}

	f, err := elf.Open(*path)
	if err != nil {
		exit(err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		exit(fmt.Errorf("%s is not a 32-bit ELF image", *path))
	}

	sec := f.Section(".text")
	if sec == nil {
		exit(fmt.Errorf("%s has no .text section", *path))
	}
	code, err := sec.Data()
	if err != nil {
		exit(err)
	}

	var lines []disasm.Line
	if *addr == 0 {
		lines = disasm.Decode(code, uint32(sec.Addr))
	} else {
		lines = disasm.Window(code, uint32(sec.Addr), uint32(*addr), *before, *after)
	}
	fmt.Print(disasm.Format(lines))
}
