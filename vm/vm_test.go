package vm

import (
	"testing"

	"nucleus/config"
	"nucleus/mem"
)

// invlpg is a privileged instruction; this test binary runs as an
// ordinary host process rather than ring 0, so FlushTLBEntryFn is
// stubbed the same way gopher-os's map_test.go overrides
// flushTLBEntryFn before calling Map.
func init() {
	FlushTLBEntryFn = func(uintptr) {}
}

func initTestPhysmem(t *testing.T, nframes int) {
	t.Helper()
	mem.Physmem = &mem.Physmem_t{}
	mem.Physmem.Init(config.KernelTop, nframes)
	InitKernelMappings()
}

func TestNewPagesRejectsBadArgs(t *testing.T) {
	initTestPhysmem(t, 64)
	as := NewAddrSpace()

	cases := []struct {
		name string
		base uintptr
		len  int
	}{
		{"unaligned base", config.UserMin + 1, config.PageSize},
		{"zero length", config.UserMin, 0},
		{"len not multiple of page size", config.UserMin, config.PageSize + 1},
		{"below user memory", 0, config.PageSize},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := as.NewPages(c.base, c.len); err == 0 {
				t.Fatalf("expected failure, got success")
			}
		})
	}
}

func TestNewPagesThenRemovePages(t *testing.T) {
	initTestPhysmem(t, 64)
	as := NewAddrSpace()
	start := mem.Physmem.FreeCount()

	base := uintptr(config.UserMin)
	if err := as.NewPages(base, 11*config.PageSize); err != 0 {
		t.Fatalf("new_pages failed: %d", err)
	}
	if got := as.ReservedFrames(); got != 11 {
		t.Fatalf("reserved frames = %d, want 11", got)
	}
	if got := mem.Physmem.FreeCount(); got != start-11 {
		t.Fatalf("free count = %d, want %d", got, start-11)
	}

	// a second reservation at the same base must fail (scenario 6,
	// spec.md §8).
	if err := as.NewPages(base, config.PageSize); err == 0 {
		t.Fatalf("overlapping new_pages unexpectedly succeeded")
	}

	if err := as.RemovePages(base); err != 0 {
		t.Fatalf("remove_pages failed: %d", err)
	}
	if got := mem.Physmem.FreeCount(); got != start {
		t.Fatalf("free count after remove = %d, want %d (leak)", got, start)
	}

	// removing a base that was never allocated fails.
	if err := as.RemovePages(base); err == 0 {
		t.Fatalf("remove_pages of unknown base unexpectedly succeeded")
	}
}

func TestHandlePageFaultPromotesZfod(t *testing.T) {
	initTestPhysmem(t, 64)
	as := NewAddrSpace()
	base := uintptr(config.UserMin)
	if err := as.NewPages(base, config.PageSize); err != 0 {
		t.Fatalf("new_pages failed: %d", err)
	}

	if err := as.HandlePageFault(base); err != 0 {
		t.Fatalf("page fault resolution failed: %d", err)
	}

	as.LockPmap()
	pte := as.Dir.Walk(base, false)
	ok := pte != nil && *pte&PTE_P != 0 && *pte&PTE_W != 0 && *pte&PTE_ZFOD == 0
	as.UnlockPmap()
	if !ok {
		t.Fatalf("expected writable private mapping after fault, got %v", pte)
	}

	// a second fault on the same now-present page is a benign race.
	if err := as.HandlePageFault(base); err != 0 {
		t.Fatalf("re-fault on present page should not error, got %d", err)
	}
}

func TestIsBufferValidRejectsUnmapped(t *testing.T) {
	initTestPhysmem(t, 64)
	as := NewAddrSpace()
	base := uintptr(config.UserMin)
	if as.IsBufferValid(base, config.PageSize, false) {
		t.Fatalf("unmapped buffer reported valid")
	}
	if err := as.NewPages(base, config.PageSize); err != 0 {
		t.Fatalf("new_pages failed: %d", err)
	}
	if !as.IsBufferValid(base, config.PageSize, false) {
		t.Fatalf("read-only buffer check failed on present ZFOD page")
	}
	if as.IsBufferValid(base, config.PageSize, true) {
		t.Fatalf("read-write check should fail: ZFOD page is read-only until faulted")
	}
}
