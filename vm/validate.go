package vm

import (
	"nucleus/config"
	"nucleus/defs"
	"nucleus/mem"
)

// wrapPoint is the address at which a buffer validity check must stop
// even if len would otherwise carry it past the top of the address
// space (spec.md §4.3 "below a wrap point").
const wrapPoint = uint64(1) << 32

// IsBufferValid walks from addr to addr+len-1 confirming every page is
// present (and writable if rw), below the wrap point, and in user
// space (spec.md §4.3). It takes no action and returns false on the
// first invalid page.
func (as *AddrSpace_t) IsBufferValid(addr uintptr, length int, rw bool) bool {
	if length < 0 {
		return false
	}
	if length == 0 {
		return addr >= config.UserMin && uint64(addr) < wrapPoint
	}
	if addr < config.UserMin {
		return false
	}
	last := addr + uintptr(length) - 1
	if last < addr || uint64(last) >= wrapPoint {
		return false // overflowed past the wrap point
	}

	as.LockPmap()
	defer as.UnlockPmap()

	start := addr &^ uintptr(config.PageSize-1)
	end := last &^ uintptr(config.PageSize-1)
	for va := start; ; va += config.PageSize {
		pte := as.Dir.Walk(va, false)
		if pte == nil || *pte&PTE_P == 0 {
			return false
		}
		if rw && *pte&PTE_W == 0 {
			return false
		}
		if va == end {
			break
		}
	}
	return true
}

// IsValidString walks page by page from addr looking for a NUL byte,
// failing with -EFAULT if it falls off a valid page first (spec.md
// §4.3). On success it returns the string length (excluding the
// terminator) and 0; a string whose bytes including the terminator
// exceed maxLen fails with -ENAMETOOLONG.
func (as *AddrSpace_t) IsValidString(addr uintptr, maxLen int) (int, defs.Err_t) {
	if addr < config.UserMin {
		return 0, -defs.EFAULT
	}

	as.LockPmap()
	defer as.UnlockPmap()

	n := 0
	va := addr
	for {
		pte := as.Dir.Walk(va&^uintptr(config.PageSize-1), false)
		if pte == nil || *pte&PTE_P == 0 {
			return 0, -defs.EFAULT
		}
		frame := mem.Physmem.FrameBytes(pte.Addr())
		pageEnd := (va &^ uintptr(config.PageSize-1)) + config.PageSize
		for ; va < pageEnd; va++ {
			n++
			if n > maxLen {
				return 0, -defs.ENAMETOOLONG
			}
			off := int(va % config.PageSize)
			if frame[off] == 0 {
				return n - 1, 0
			}
		}
	}
}
