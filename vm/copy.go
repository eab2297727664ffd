package vm

import (
	"nucleus/config"
	"nucleus/mem"
)

// CopyOut writes data into as's address space starting at addr
// (spec.md §4.7 "copying argv strings via a kernel buffer ... to cross
// address spaces safely"). The caller is responsible for having
// reserved/mapped the destination range; CopyOut performs no
// validation of its own. Earlier drafts modeled the cross-space copy
// as a temporary cr3 switch plus a raw pointer dereference of addr;
// that address is never a real mapping in the kernel's own process,
// so instead each page is walked to find its backing physical frame
// and the bytes move through mem.Physmem.FrameBytes.
func CopyOut(as *AddrSpace_t, addr uintptr, data []byte) {
	copyPages(as, addr, data, true)
}

// CopyIn reads length bytes out of as's address space starting at
// addr, the mirror of CopyOut used to cross from a foreign address
// space back into the kernel's own scratch buffer.
func CopyIn(as *AddrSpace_t, addr uintptr, length int) []byte {
	buf := make([]byte, length)
	copyPages(as, addr, buf, false)
	return buf
}

// copyPages walks addr page by page, copying buf into (toUser=true) or
// out of (toUser=false) the frame each page is backed by. It assumes
// the caller already validated the range is present and, for
// CopyOut, writable.
func copyPages(as *AddrSpace_t, addr uintptr, buf []byte, toUser bool) {
	as.LockPmap()
	defer as.UnlockPmap()

	n := 0
	for n < len(buf) {
		va := addr + uintptr(n)
		pte := as.Dir.Walk(va, false)
		if pte == nil || *pte&PTE_P == 0 {
			return
		}
		frame := mem.Physmem.FrameBytes(pte.Addr())
		off := int(va % config.PageSize)
		var cnt int
		if toUser {
			cnt = copy(frame[off:], buf[n:])
		} else {
			cnt = copy(buf[n:], frame[off:])
		}
		n += cnt
	}
}
