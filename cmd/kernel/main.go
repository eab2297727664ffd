// Command kernel is the boot entry point: the only package in this
// module meaningful on real hardware rather than as a goroutine-harness
// test fixture (spec.md §4.7 "First task", §4.9 "At boot"), in the same
// sense trap.Install and sched.Timer are literal bare-metal layers
// exercised directly by their own package tests rather than by proc's
// catalog harness (see DESIGN.md). A real boot loader supplies the
// physical memory map and the assembly entry-stub addresses main hands
// to trap.Install; here they are placeholders since nothing in this
// module runs as ring-0 machine code.
package main

import (
	"nucleus/arch"
	"nucleus/config"
	"nucleus/keyboard"
	"nucleus/klog"
	"nucleus/mem"
	"nucleus/proc"
	"nucleus/sched"
	"nucleus/trap"
	"nucleus/vm"
)

// Keyboard is the single hardware keyboard collaborator (spec.md §6).
// installIDT leaves the IRQ1 gate zero, so nothing in this module calls
// Keyboard.Interrupt.
var Keyboard = &keyboard.Keyboard_t{}

func main() {
	bootMemoryMap()
	vm.InitKernelMappings()
	klog.SetOutput(proc.Console)

	installIDT()

	sched.System.SetReady()

	if _, err := proc.NewFirstTask("init", nil); err != nil {
		klog.Printf("boot: cannot start init: %s\n", err.Error())
		for {
			arch.Halt()
		}
	}

	for {
		arch.Halt()
	}
}

// bootMemoryMap seeds mem.Physmem with the frames above config.KernelTop.
// A real boot loader discovers usable RAM from the multiboot/e820 map
// (gopher-os's kernel/hal/multiboot package is the idiom this would
// follow); without one, this reserves a fixed-size arena of 1<<16
// frames, larger than any package test's fixture.
func bootMemoryMap() {
	const bootFrames = 1 << 16 // 256 MiB worth of 4 KiB frames
	mem.Physmem = &mem.Physmem_t{}
	mem.Physmem.Init(config.KernelTop, bootFrames)
}

// installIDT loads the IDT with every gate left zero, including
// Exceptions[config.PageFaultVector], Timer, and Keyboard: their assembly entry stubs (the pusha/call-Dispatch/popa/iret
// trampoline spec.md §4.9 describes) are boot-loader-supplied machine
// code no Go source in this module stands in for, matching the
// no-literal-IDT-stub boundary already drawn for trap.Install.
func installIDT() {
	trap.Install(trap.Gates{}, config.KernelCodeSeg)
}
