// Package vm implements per-task two-level page tables, zero-fill-on-
// demand page reservation, and user-buffer/string validation
// (spec.md §4.2-§4.3). It is grounded on biscuit's Vm_t/pmap walk in
// biscuit/src/vm/as.go, collapsed from biscuit's four-level 64-bit
// tables and direct-mapped physical memory to the spec's two-level
// 32-bit tables and the narrower 16 MiB direct map.
package vm

import (
	"sync"
	"unsafe"

	"nucleus/arch"
	"nucleus/config"
	"nucleus/defs"
	"nucleus/mem"
)

// FlushTLBEntryFn is swapped out in tests, which run as an ordinary
// host process rather than ring 0: invlpg is a privileged instruction
// and faults the test binary, the same reasoning gopher-os documents
// for its own flushTLBEntryFn seam (kernel/mem/vmm/map.go). Exported
// because HandlePageFault/RemovePages are reached from proc's, trap's,
// and console's own test fixtures, not only vm's.
var FlushTLBEntryFn = arch.FlushTLBEntry

// PTE is one page-directory or page-table entry: a frame address in
// the high bits plus the flags of spec.md §3.
type PTE uintptr

const (
	PTE_P    PTE = 1 << 0 // present
	PTE_W    PTE = 1 << 1 // writable
	PTE_U    PTE = 1 << 2 // user-accessible
	PTE_G    PTE = 1 << 8 // global (kernel mappings only)
	PTE_ZFOD PTE = 1 << 9 // reserved bit repurposed as "ZFOD requested"

	pteAddrMask PTE = ^PTE(config.PageSize - 1)
)

// Addr returns the frame address encoded in the entry.
func (e PTE) Addr() mem.Pa_t { return mem.Pa_t(e & pteAddrMask) }

// PageTable_t is a leaf table of 1024 PTEs.
type PageTable_t [config.NumPTEntries]PTE

// PageDir_t is the top-level directory of 1024 entries, the first
// config.KernelPinnedTables of which always point at the shared
// kernel tables (spec.md §4.2).
type PageDir_t struct {
	sync.Mutex // not taken by this package; the owning AddrSpace_t's pmap lock serializes mutation
	Entries    [config.NumPDEntries]PTE
	tables     [config.NumPDEntries]*PageTable_t // nil until faulted in
}

// kernelTables holds the four statically pinned page tables that
// identity-map the lower config.KernelTop bytes, shared (and
// pointer-copied, never deep-copied) into every task's directory.
var kernelTables [config.KernelPinnedTables]*PageTable_t
var kernelInit sync.Once

// InitKernelMappings builds the shared kernel page tables once at
// boot. It must run before any task's directory is created.
func InitKernelMappings() {
	kernelInit.Do(func() {
		for ti := range kernelTables {
			pt := &PageTable_t{}
			for i := range pt {
				pa := mem.Pa_t(ti*config.NumPTEntries+i) * config.PageSize
				pt[i] = PTE(pa) | PTE_P | PTE_W | PTE_G
			}
			kernelTables[ti] = pt
		}
	})
}

// NewPageDir allocates a directory for a new task. The kernel portion
// is pointer-copied (shared, not duplicated); only user-space tables
// are created lazily as pages are mapped (spec.md §4.2).
func NewPageDir() *PageDir_t {
	pd := &PageDir_t{}
	for ti, pt := range kernelTables {
		pd.tables[ti] = pt
		base := mem.Pa_t(ti*config.NumPTEntries) * config.PageSize
		pd.Entries[ti] = PTE(base) | PTE_P | PTE_W | PTE_G
	}
	return pd
}

// dirSlot/tabSlot split a virtual address as dir_index:10 | tab_index:10
// | offset:12 (spec.md §4.2).
func dirSlot(va uintptr) int { return int((va >> 22) & 0x3ff) }
func tabSlot(va uintptr) int { return int((va >> 12) & 0x3ff) }

// Walk returns a pointer to the PTE for va, allocating the backing
// page table if create is true and it does not yet exist. It returns
// nil if the entry does not exist and create is false, or if va falls
// in the pinned kernel range (callers must not mutate that).
func (pd *PageDir_t) Walk(va uintptr, create bool) *PTE {
	di := dirSlot(va)
	if di < config.KernelPinnedTables {
		return nil
	}
	pt := pd.tables[di]
	if pt == nil {
		if !create {
			return nil
		}
		pt = &PageTable_t{}
		pd.tables[di] = pt
		pd.Entries[di] = PTE(uintptr(unsafe.Pointer(pt))) | PTE_P | PTE_W | PTE_U
	}
	return &pt[tabSlot(va)]
}

// Unmap clears the PTE for va, if present, and returns its prior
// frame address together with whether a mapping was removed.
func (pd *PageDir_t) Unmap(va uintptr) (mem.Pa_t, bool) {
	pte := pd.Walk(va, false)
	if pte == nil || *pte&PTE_P == 0 {
		return 0, false
	}
	pa := (*pte).Addr()
	*pte = 0
	return pa, true
}

// Teardown walks the directory skipping the pinned kernel entries,
// frees every present user frame, frees each page table, then leaves
// the directory itself for the caller to discard (spec.md §4.2).
// preserveFrames, when true, drops only the kernel's table references
// without freeing the user frames. Exec and vanish both pass false.
func (pd *PageDir_t) Teardown(preserveFrames bool) {
	for di := config.KernelPinnedTables; di < config.NumPDEntries; di++ {
		pt := pd.tables[di]
		if pt == nil {
			continue
		}
		if !preserveFrames {
			for i := range pt {
				if pt[i]&PTE_P != 0 {
					pa := pt[i].Addr()
					if pa >= config.KernelTop {
						mem.Physmem.FreeFrame(pa)
					}
				}
			}
		}
		pd.tables[di] = nil
		pd.Entries[di] = 0
	}
}

// zeroFrame zero-fills the frame's backing storage (spec.md §4.2 "Map
// user frame"). Earlier drafts modeled this as a temporary cr3 switch
// that dereferenced the user virtual address directly; that address
// has no real mapping in this process, so it faulted the kernel
// binary itself rather than the task being set up. Content now always
// flows through mem.Physmem.FrameBytes, addressed by physical frame
// rather than by the virtual address any particular page directory
// happens to map it at.
func zeroFrame(pa mem.Pa_t) {
	p := mem.Physmem.FrameBytes(pa)
	for i := range p {
		p[i] = 0
	}
}

// InvalidatePage flushes exactly the virtual page whose entry was
// just mutated (spec.md §4.2 "TLB").
func InvalidatePage(va uintptr) {
	FlushTLBEntryFn(va & ^uintptr(config.PageSize-1))
}

// MapUserFrame creates directory/table entries as needed, allocates a
// frame, zeroes it, and sets permissions from the segment type
// (spec.md §4.2 "Map user frame").
func MapUserFrame(pd *PageDir_t, va uintptr, writable bool) (mem.Pa_t, defs.Err_t) {
	pa, err := mem.Physmem.AllocFrame()
	if err != 0 {
		return 0, err
	}
	pte := pd.Walk(va, true)
	perms := PTE_P | PTE_U
	if writable {
		perms |= PTE_W
	}
	*pte = PTE(pa) | perms
	zeroFrame(pa)
	InvalidatePage(va)
	return pa, 0
}
