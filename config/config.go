// Package config collects the compile-time constants of the kernel,
// mirroring biscuit's limits.Syslimit_t singleton: a booted kernel has
// no runtime configuration surface, so these are plain constants
// rather than a flag/env-parsed struct.
package config

const (
	// PageShift/PageSize describe one 4 KiB page.
	PageShift = 12
	PageSize  = 1 << PageShift

	// KernelTop is the first byte above the direct-mapped, shared
	// kernel region. The lower 16 MiB is identity-mapped for the
	// kernel's own use per spec.md §1.
	KernelTop = 16 << 20

	// UserMin is the lowest valid user virtual address; ZFOD and
	// new_pages reservations below this address are rejected.
	UserMin = KernelTop

	// UserStackTop is one page below the 4 GiB boundary: the address
	// just below it is the top of a freshly created task's stack.
	UserStackTop = 0xFFFFF000

	// KernelStackPages is the number of pages backing each thread's
	// kernel stack (spec.md §3: "exactly one kernel stack of one page").
	KernelStackPages = 1

	// MaxExecStringLen bounds execname/argv element length (spec.md §4.7).
	MaxExecStringLen = 256

	// NumPDEntries/NumPTEntries are per spec.md §4.2: two levels, 1024
	// entries each, 4 KiB pages.
	NumPDEntries = 1024
	NumPTEntries = 1024

	// KernelPinnedTables is the number of directory entries (and
	// corresponding page tables) pointer-copied into every new
	// directory to cover the identity-mapped kernel range.
	KernelPinnedTables = KernelTop / (NumPTEntries * PageSize)

	// TaskHashBuckets/ThreadHashBuckets size the PCB/TCB lookup tables.
	TaskHashBuckets   = 64
	ThreadHashBuckets = 256

	// TicksPerSecond is the configured PIT/timer tick rate.
	TicksPerSecond = 100

	// PageFaultVector is the CPU exception vector for #PF (spec.md §4.3
	// "Page-fault path").
	PageFaultVector = 14

	// NumExceptionVectors covers every CPU-reserved exception (0-31).
	NumExceptionVectors = 32

	// TimerVector/KeyboardVector are the two IRQ vectors this kernel
	// programs, remapped past the CPU exception range (spec.md §4.9
	// "the single timer and keyboard IRQ vectors").
	TimerVector    = NumExceptionVectors
	KeyboardVector = NumExceptionVectors + 1

	// SyscallVectorBase is the first vector carrying a syscall gate;
	// syscall number n is installed at SyscallVectorBase+n (spec.md
	// §4.9 "one gate per syscall number").
	SyscallVectorBase = 0x80

	// GDT selectors for the two privilege levels this kernel runs at.
	// RPL 3 is or'd into the user selectors, matching the conventional
	// flat GDT layout biscuit's bootloader and gopher-os's loader both
	// use.
	KernelCodeSeg = 0x08
	KernelDataSeg = 0x10
	UserCodeSeg   = 0x1B
	UserDataSeg   = 0x23

	// Eflags bits validated by swexn's newureg path (spec.md §4.10).
	EflagsReservedBit = 1 << 1  // always set on a real CPU
	EflagsACBit       = 1 << 18
	EflagsIFBit       = 1 << 9
	EflagsIOPLMask    = 3 << 12

	// ConsoleHeight/ConsoleWidth size the text-mode cell grid (spec.md
	// §6 "Console collaborator"); cursor position (height-1, width) is
	// the "hidden" sentinel.
	ConsoleHeight = 25
	ConsoleWidth  = 80

	// ReadlineBufSize bounds the console's edit buffer (spec.md §4.8).
	ReadlineBufSize = 256
)
