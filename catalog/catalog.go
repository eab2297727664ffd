// Package catalog is the in-memory executable catalog collaborator
// (spec.md §6 "Executable catalog collaborator"): a flat table mapping
// a name to loadable segments and an entry point, in place of a real
// ELF image. Grounded on the flat-array/lookup shape spec.md describes;
// since this kernel runs as ordinary Go rather than ring-0 machine
// code, each catalog entry's "entry point" is a Go closure standing in
// for the compiled 410user/progs/*.c test program it is named after
// (see builtin.go), invoked through the Syscalls seam instead of
// int80/trap gates.
package catalog

import "nucleus/defs"

// SegmentKind classifies one loadable region of an executable, mirroring
// the ELF segment types the loader in spec.md §4.7 walks.
type SegmentKind int

const (
	SegText SegmentKind = iota
	SegRodata
	SegData
	SegBss
)

// Segment describes one loadable region: its virtual start address,
// byte length, and whether it is writable (spec.md §4.2 "set
// permissions from segment type").
type Segment struct {
	Kind     SegmentKind
	Start    uintptr
	Length   int
	Writable bool
}

// Program is one catalog entry: a name, its segment table, an entry
// address, and the closure that stands in for running code at that
// address. Argv is supplied by exec/first-task creation.
type Program struct {
	Name     string
	Segments []Segment
	Entry    uintptr
	Run      func(sc Syscalls, argv []string)
}

// Syscalls is every operation a catalog program can perform, satisfied
// by proc.Context (spec.md §6
// "Syscall surface").
//
// Go cannot duplicate a goroutine's call stack the way fork duplicates
// a process, so Fork/ThreadFork take the child's continuation as a
// callback instead of returning twice: the parent's Run call resumes
// normally after Fork returns, while childMain runs as the new
// task/thread's own entry point with its own Syscalls view. Vanish
// never returns (it ends the calling goroutine), which is what makes
// a successful Exec's "does not return" true in this model too: Exec
// calls the replacement program's Run synchronously, and that program
// eventually vanishes.
type Syscalls interface {
	Gettid() defs.Tid_t
	Fork(childMain func(Syscalls)) (defs.Tid_t, defs.Err_t)
	ThreadFork(childMain func(Syscalls)) (defs.Tid_t, defs.Err_t)
	Exec(execname string, argv []string) defs.Err_t
	Wait() (defs.Tid_t, int, defs.Err_t)
	Vanish()
	SetStatus(status int)
	Yield(tid defs.Tid_t) defs.Err_t
	Sleep(ticks int) defs.Err_t
	NewPages(base uintptr, length int) defs.Err_t
	RemovePages(base uintptr) defs.Err_t
	Print(s string)
}

var catalog = map[string]*Program{}

// Register adds p to the catalog under p.Name, overwriting any program
// already registered with that name. Called from init() in
// catalog/builtin.go.
func Register(p *Program) {
	catalog[p.Name] = p
}

// Lookup returns the program named name, if any (spec.md §6
// "lookup(name) -> (bytes, len)", relocated here since this catalog's
// unit of execution is a closure rather than a byte slice).
func Lookup(name string) (*Program, bool) {
	p, ok := catalog[name]
	return p, ok
}

// Names returns every registered program name, for diagnostics.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	return names
}
