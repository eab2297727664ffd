// Package arch declares the handful of primitives that cannot be
// expressed in portable Go: interrupt masking, cr3 load/read, TLB
// invalidation, and the context-switch/iret trampolines. Each is a
// bodyless Go function backed by a hand-written assembly stub, the
// same split gopher-os uses for kernel/cpu.EnableInterrupts and
// friends (kernel/cpu/cpu_amd64.go) -- adapted here to 32-bit x86.
//
// arch_386.s only compiles under GOARCH=386 (the filename suffix is a
// build constraint the Go toolchain applies automatically); there is
// no companion _amd64.s or _arm64.s, since this package declares
// primitives specific to 32-bit protected mode. Build, vet, and test
// this module with `make build`/`make test`/`make vet` (see the
// top-level Makefile), which pin GOARCH=386 -- a plain `go build`/`go
// test` on a host's native arch fails to link any package that
// imports arch. sched (cli/sti, mov-cr3, the stack switch) and vm
// (invlpg) keep their privileged instructions behind function-pointer
// seams, so their test suites run rather than raising #GP from ring 3
// once linked. trap calls arch.ReadCR2 and arch.LoadIDT directly, on
// paths its tests do not enter; proc reaches invlpg only through vm's
// seam.
package arch

import "unsafe"

// EnableInterrupts executes sti.
func EnableInterrupts()

// DisableInterrupts executes cli.
func DisableInterrupts()

// InterruptsEnabled reports the IF flag of eflags.
func InterruptsEnabled() bool

// Halt executes hlt, waiting for the next interrupt.
func Halt()

// LoadCR3 installs pa as the active page directory and implicitly
// flushes every non-global TLB entry.
func LoadCR3(pa uintptr)

// ReadCR3 returns the physical address of the active page directory.
func ReadCR3() uintptr

// FlushTLBEntry invalidates the single TLB entry mapping va (invlpg).
func FlushTLBEntry(va uintptr)

// ReadCR2 returns the faulting address the CPU latched on the most
// recent #PF (spec.md §4.3 "Page-fault path": "on fault at address A").
func ReadCR2() uintptr

// TrapFrame mirrors the uniform register frame every gate stub pushes
// on the kernel stack before calling into Go (spec.md §4.9). Field
// order matches the push order in the assembly stub: the stack grows
// downward, so the last-pushed register sits at the lowest address and
// is the struct's first field.
type TrapFrame struct {
	// general-purpose registers, pusha order
	Edi, Esi, Ebp, espDummy, Ebx, Edx, Ecx, Eax uint32
	// vector/error code pushed by the stub or the CPU
	Vector, ErrorCode uint32
	// pushed by the CPU on any privilege-level change
	Eip, Cs, Eflags, Esp3, Ss3 uint32
}

// IRet loads frame's register state and executes iret, resuming
// execution at frame.Eip in the context it describes. It never
// returns to its caller.
func IRet(frame *TrapFrame)

// SwitchStack saves the current callee-save registers and stack
// pointer into *oldSP, loads newSP, and returns to the caller found on
// the new stack (spec.md §4.4 "Context switch semantics"). The first
// return into a freshly created kernel stack lands in the
// new-task-return stub described in spec.md §4.7 instead of here.
func SwitchStack(oldSP *uintptr, newSP uintptr)

// entry points installed by trap.Install; kept here because the
// IDT gate table itself is raw memory laid out by this package.
type idtGate struct {
	offsetLow  uint16
	selector   uint16
	zero       uint8
	typeAttr   uint8
	offsetHigh uint16
}

const numVectors = 256

var idt [numVectors]idtGate

// SetGate installs a trap gate for vector v pointing at the given
// handler stub offset within the kernel code segment.
func SetGate(v int, handler uintptr, codeSeg uint16) {
	idt[v] = idtGate{
		offsetLow:  uint16(handler),
		selector:   codeSeg,
		zero:       0,
		typeAttr:   0x8F, // present, DPL=0, 32-bit trap gate
		offsetHigh: uint16(handler >> 16),
	}
}

// IDTBase returns the address lidt should load, for use by the
// assembly boot stub.
func IDTBase() uintptr { return uintptr(unsafe.Pointer(&idt[0])) }

// LoadIDT executes lidt against the table SetGate populated.
func LoadIDT(base uintptr, limit uint16)
