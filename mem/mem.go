// Package mem implements the global physical-frame allocator
// (spec.md §4.1). It is grounded on biscuit's Physmem_t singleton
// (biscuit/src/mem/mem.go) but collapsed to the spec's model: a single
// CPU, a bitmap over user frames rather than a refcounted free list,
// and one permanently-zero frame shared as the ZFOD source.
//
// Physmem_t also owns the byte storage every frame's content lives in.
// A hosted process has no MMU behind a "physical address": treating a
// Pa_t as a raw pointer and dereferencing it (as vm's page-fault and
// fork paths once did) faults the test binary itself rather than
// modeling a kernel fault. FrameBytes is the one seam that turns a
// Pa_t into addressable storage, backed by an ordinary Go slice.
package mem

import (
	"sync"

	"nucleus/config"
	"nucleus/defs"
)

// Pa_t is a physical address.
type Pa_t uintptr

// Frame converts a physical address to its frame number relative to
// the bitmap's base (the first byte above config.KernelTop).
func (p Pa_t) Frame(base Pa_t) int {
	return int((p - base) >> config.PageShift)
}

// Bitmap_t is a fixed-size bitmap over every user frame above
// config.KernelTop. Allocation is a linear scan for a clear bit using
// an atomic test-and-set; free clears the bit (spec.md §4.1).
type Bitmap_t struct {
	words []uint64
	nbits int
}

func newBitmap(nframes int) *Bitmap_t {
	return &Bitmap_t{
		words: make([]uint64, (nframes+63)/64),
		nbits: nframes,
	}
}

// testAndSet atomically sets bit i and reports its previous value.
// The bitmap is always mutated under Physmem_t's mutex (spec.md §4.1
// calls this "an atomic test-and-set", which here means "indivisible
// with respect to other allocations", not necessarily a lock-free CAS).
func (b *Bitmap_t) testAndSet(i int) bool {
	w := i / 64
	bit := uint64(1) << uint(i%64)
	was := b.words[w]&bit != 0
	b.words[w] |= bit
	return was
}

func (b *Bitmap_t) clear(i int) {
	w := i / 64
	bit := uint64(1) << uint(i%64)
	b.words[w] &^= bit
}

func (b *Bitmap_t) isSet(i int) bool {
	w := i / 64
	bit := uint64(1) << uint(i%64)
	return b.words[w]&bit != 0
}

// scanClear returns the index of a clear bit, or -1 if the bitmap is
// full. Linear scan per spec.md §4.1.
func (b *Bitmap_t) scanClear() int {
	for w := range b.words {
		if b.words[w] == ^uint64(0) {
			continue
		}
		for bit := 0; bit < 64; bit++ {
			i := w*64 + bit
			if i >= b.nbits {
				break
			}
			if !b.isSet(i) {
				return i
			}
		}
	}
	return -1
}

// Physmem_t is the global physical-frame allocator singleton
// (spec.md §3 "Kernel state"). All fields are guarded by the embedded
// mutex except the permanently-zero frame, which is established once
// at boot and never mutated thereafter.
type Physmem_t struct {
	sync.Mutex

	base      Pa_t // first frame managed by the bitmap
	nframes   int
	bitmap    *Bitmap_t
	freeCount int // invariant: nframes - bits set - reserved-but-unallocated == freeCount
	arena     []byte // backing storage for every managed frame's content

	zeroFrame Pa_t // permanently-zero frame shared as the ZFOD source
	zeroReady bool
}

// Physmem is the global physical memory allocator instance.
var Physmem = &Physmem_t{}

// Init reserves the range [base, base+nframes*PageSize) for user
// frames and establishes the permanently-zero ZFOD source frame. It
// must run once, before the scheduler starts. The backing arena is
// make()'d zeroed, so the zero frame needs no separate zero-fill step.
func (p *Physmem_t) Init(base Pa_t, nframes int) {
	p.Lock()
	defer p.Unlock()
	p.base = base
	p.nframes = nframes
	p.bitmap = newBitmap(nframes)
	p.freeCount = nframes
	p.arena = make([]byte, nframes*config.PageSize)

	// The zero frame is exempt from freeing (spec.md §4.1): claim frame
	// 0 permanently. Its bytes are already zero courtesy of make().
	p.bitmap.testAndSet(0)
	p.freeCount--
	p.zeroFrame = base
	p.zeroReady = true
}

// FrameBytes returns the backing storage for the frame at pa. This is
// the software stand-in for the MMU: every vm operation that touches a
// frame's content (zeroing, copying across tasks during fork, the
// kernel<->user CopyIn/CopyOut path) goes through this instead of
// dereferencing pa or a "virtual address" as a raw host pointer.
func (p *Physmem_t) FrameBytes(pa Pa_t) *[config.PageSize]byte {
	idx := int((pa - p.base) >> config.PageShift)
	lo := idx * config.PageSize
	return (*[config.PageSize]byte)(p.arena[lo : lo+config.PageSize])
}

// ZeroFrame returns the permanently-zero physical frame used as the
// ZFOD source (spec.md §3 "a permanently zero frame").
func (p *Physmem_t) ZeroFrame() Pa_t {
	return p.zeroFrame
}

// FreeCount returns the current value of the global free-frame
// counter, for property tests and leak checks (spec.md §8 scenario 2).
func (p *Physmem_t) FreeCount() int {
	p.Lock()
	defer p.Unlock()
	return p.freeCount
}

// ReserveFrames atomically reserves n frames against the global
// counter without allocating them, so that a bulk operation (exec,
// new_pages) cannot partially succeed (spec.md §4.1, §7). It fails
// without side effects if n exceeds the free-frame count.
func (p *Physmem_t) ReserveFrames(n int) defs.Err_t {
	if n < 0 {
		panic("negative reservation")
	}
	p.Lock()
	defer p.Unlock()
	if n > p.freeCount {
		return -defs.ENOMEM
	}
	p.freeCount -= n
	return 0
}

// UnreserveFrames returns n previously reserved-but-never-allocated
// frames to the global counter (used on error unwind paths).
func (p *Physmem_t) UnreserveFrames(n int) {
	p.Lock()
	p.freeCount += n
	p.Unlock()
}

// AllocFrame allocates one physical frame from a reservation already
// taken via ReserveFrames. It does not itself touch freeCount -- the
// reservation already did -- it only claims a bitmap slot.
func (p *Physmem_t) AllocFrame() (Pa_t, defs.Err_t) {
	p.Lock()
	defer p.Unlock()
	idx := p.bitmap.scanClear()
	if idx < 0 {
		panic("reservation accounting violated: no clear bit but reservation succeeded")
	}
	p.bitmap.testAndSet(idx)
	return p.base + Pa_t(idx)<<config.PageShift, 0
}

// FreeFrame clears the bitmap slot for pa and returns its reservation
// to the global counter (spec.md §4.1 "free clears the bit").
func (p *Physmem_t) FreeFrame(pa Pa_t) {
	if pa == p.zeroFrame {
		// The shared zero frame is exempt from freeing.
		return
	}
	idx := int((pa - p.base) >> config.PageShift)
	p.Lock()
	defer p.Unlock()
	if !p.bitmap.isSet(idx) {
		panic("double free of physical frame")
	}
	p.bitmap.clear(idx)
	p.freeCount++
}

// NFrames reports the total number of user frames under management.
func (p *Physmem_t) NFrames() int {
	return p.nframes
}
