package vm

import (
	"sync"

	"nucleus/config"
	"nucleus/defs"
	"nucleus/mem"
)

// ZfodRegion_t records one outstanding new_pages reservation
// (spec.md §3 "list of ZFOD reservations").
type ZfodRegion_t struct {
	Base      uintptr
	PageCount int
}

// AddrSpace_t is the per-task address space: the page directory plus
// the bookkeeping new_pages/remove_pages need (spec.md §3 PCB fields
// relocated here since they are purely a VM concern). Grounded on
// biscuit's Vm_t (biscuit/src/vm/as.go), collapsed to this spec's
// eager-copy, no-COW, no-file-mapping model.
type AddrSpace_t struct {
	sync.Mutex // as.Lock_pmap()/Unlock_pmap() equivalent

	Dir    *PageDir_t
	zfod   []ZfodRegion_t
	locked bool // pgfltaken, for Lockassert-style bug detection
}

// NewAddrSpace allocates a directory with the shared kernel mappings.
func NewAddrSpace() *AddrSpace_t {
	return &AddrSpace_t{Dir: NewPageDir()}
}

// LockPmap/UnlockPmap mirror biscuit's Vm_t.Lock_pmap/Unlock_pmap: the
// single mutex protecting directory, tables and the ZFOD list.
func (as *AddrSpace_t) LockPmap() {
	as.Lock()
	as.locked = true
}

func (as *AddrSpace_t) UnlockPmap() {
	as.locked = false
	as.Unlock()
}

func (as *AddrSpace_t) assertLocked() {
	if !as.locked {
		panic("pmap lock must be held")
	}
}

// NewPages implements the new_pages syscall (spec.md §4.3). It fails,
// without side effects, if base is unaligned, len is not a positive
// multiple of the page size, base is below user memory, the range
// overlaps an existing mapping, or frames cannot be reserved.
func (as *AddrSpace_t) NewPages(base uintptr, length int) defs.Err_t {
	if base%config.PageSize != 0 {
		return -defs.EINVAL
	}
	if length <= 0 || length%config.PageSize != 0 {
		return -defs.EINVAL
	}
	if base < config.UserMin {
		return -defs.EINVAL
	}
	npages := length / config.PageSize

	as.LockPmap()
	defer as.UnlockPmap()

	for i := 0; i < npages; i++ {
		va := base + uintptr(i*config.PageSize)
		if pte := as.Dir.Walk(va, false); pte != nil && *pte&PTE_P != 0 {
			return -defs.EEXIST
		}
	}

	if err := mem.Physmem.ReserveFrames(npages); err != 0 {
		return err
	}

	zero := mem.Physmem.ZeroFrame()
	for i := 0; i < npages; i++ {
		va := base + uintptr(i*config.PageSize)
		pte := as.Dir.Walk(va, true)
		*pte = PTE(zero) | PTE_P | PTE_U | PTE_ZFOD
	}
	as.zfod = append(as.zfod, ZfodRegion_t{Base: base, PageCount: npages})
	return 0
}

// RemovePages implements remove_pages (spec.md §4.3): locates the
// allocation with exactly this base, releases its reserved frames
// (crediting back any that were never faulted in, freeing any that
// were), and invalidates the entries. Any other argument fails.
func (as *AddrSpace_t) RemovePages(base uintptr) defs.Err_t {
	as.LockPmap()
	defer as.UnlockPmap()

	idx := -1
	for i, z := range as.zfod {
		if z.Base == base {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -defs.EINVAL
	}
	z := as.zfod[idx]
	unfaulted := 0
	for i := 0; i < z.PageCount; i++ {
		va := base + uintptr(i*config.PageSize)
		pte := as.Dir.Walk(va, false)
		if pte == nil {
			continue
		}
		if *pte&PTE_ZFOD != 0 {
			unfaulted++
		} else if *pte&PTE_P != 0 {
			// this page was actually faulted in; its private frame
			// must be freed rather than merely uncounted.
			mem.Physmem.FreeFrame((*pte).Addr())
		}
		*pte = 0
		InvalidatePage(va)
	}
	mem.Physmem.UnreserveFrames(unfaulted)
	as.zfod = append(as.zfod[:idx], as.zfod[idx+1:]...)
	return 0
}

// ReservedFrames reports the number of frames this task currently has
// reserved across every ZFOD region, live or faulted in (spec.md §3
// invariant on reserved_frames(task)).
func (as *AddrSpace_t) ReservedFrames() int {
	as.LockPmap()
	defer as.UnlockPmap()
	n := 0
	for _, z := range as.zfod {
		n += z.PageCount
	}
	return n
}

// CountUnfaultedZfod reports how many pages across every ZFOD region
// are still backed by the shared zero frame (never written to). Those
// pages' reservations are never released by Dir.Teardown -- it frees
// materialized frames but the zero frame is exempt from freeing -- so
// vanish must UnreserveFrames this count itself (spec.md §4.7 "vanish":
// "return reserved frames").
func (as *AddrSpace_t) CountUnfaultedZfod() int {
	as.LockPmap()
	defer as.UnlockPmap()
	n := 0
	for _, z := range as.zfod {
		for i := 0; i < z.PageCount; i++ {
			va := z.Base + uintptr(i*config.PageSize)
			pte := as.Dir.Walk(va, false)
			if pte != nil && *pte&PTE_ZFOD != 0 {
				n++
			}
		}
	}
	return n
}

// ClearZfod drops the bookkeeping for every ZFOD region without
// touching the global frame counter; used by vanish once the whole
// address space is being torn down and its frames already freed.
func (as *AddrSpace_t) ClearZfod() {
	as.zfod = nil
}

// HandlePageFault resolves a fault at addr against the ZFOD table
// (spec.md §4.3). If the PTE's reserved bit is set, a real frame is
// allocated, installed writable/user, and the TLB entry is
// invalidated. A fault on a page that is already present and writable
// (another thread resolved it first) returns success as well. Any
// other fault is left to the generic exception path.
func (as *AddrSpace_t) HandlePageFault(addr uintptr) defs.Err_t {
	as.LockPmap()
	defer as.UnlockPmap()

	pte := as.Dir.Walk(addr, false)
	if pte != nil && *pte&(PTE_P|PTE_W|PTE_ZFOD) == PTE_P|PTE_W {
		return 0
	}
	if pte == nil || *pte&PTE_ZFOD == 0 {
		return -defs.EFAULT
	}
	page := addr &^ uintptr(config.PageSize-1)
	pa, err := MapUserFrame(as.Dir, page, true)
	if err != 0 {
		return err
	}
	_ = pa
	return 0
}
