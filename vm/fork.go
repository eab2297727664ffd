package vm

import (
	"nucleus/config"
	"nucleus/defs"
	"nucleus/mem"
)

// Fork deep-copies as into a freshly allocated address space, frame by
// frame, through a scratch buffer (spec.md §4.7 "fork": "deep-copies
// the address space (eager copy frame by frame through a scratch
// page)"). Frames are reserved up front so a failure partway through
// cannot leak (spec.md §4.1, §7). ZFOD-reserved-but-not-yet-faulted
// pages are replicated as ZFOD entries pointing at the same shared
// zero frame -- there is no content to copy -- while already-faulted
// pages get a freshly allocated frame with the parent's bytes copied
// in. The copy is addressed by physical frame (mem.Physmem.FrameBytes)
// rather than by switching cr3 and dereferencing the shared virtual
// address, which has no real backing in a hosted process.
func (as *AddrSpace_t) Fork() (*AddrSpace_t, defs.Err_t) {
	as.LockPmap()
	defer as.UnlockPmap()

	need := 0
	for di := config.KernelPinnedTables; di < config.NumPDEntries; di++ {
		pt := as.Dir.tables[di]
		if pt == nil {
			continue
		}
		// one frame per present page: copied pages consume theirs now,
		// ZFOD pages hold theirs as the child's own reservation.
		for ti := range pt {
			if pt[ti]&PTE_P != 0 {
				need++
			}
		}
	}
	if err := mem.Physmem.ReserveFrames(need); err != 0 {
		return nil, err
	}

	child := NewAddrSpace()
	for di := config.KernelPinnedTables; di < config.NumPDEntries; di++ {
		pt := as.Dir.tables[di]
		if pt == nil {
			continue
		}
		for ti, pte := range pt {
			if pte&PTE_P == 0 {
				continue
			}
			va := uintptr(di)<<22 | uintptr(ti)<<12

			if pte&PTE_ZFOD != 0 {
				cpte := child.Dir.Walk(va, true)
				*cpte = pte
				continue
			}

			scratch := *mem.Physmem.FrameBytes(pte.Addr())
			writable := pte&PTE_W != 0
			childPa, err := MapUserFrame(child.Dir, va, writable)
			if err != 0 {
				panic("fork: reservation accounting violated")
			}
			*mem.Physmem.FrameBytes(childPa) = scratch
		}
	}
	child.zfod = append([]ZfodRegion_t(nil), as.zfod...)
	return child, 0
}
