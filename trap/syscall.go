package trap

import (
	"nucleus/defs"
	"nucleus/vm"
)

// Syscall numbers, one IDT gate each at config.SyscallVectorBase+n
// (spec.md §4.9, §6 syscall table).
const (
	SyscallGettid = iota
	SyscallFork
	SyscallThreadFork
	SyscallExec
	SyscallWait
	SyscallVanish
	SyscallSetStatus
	SyscallYield
	SyscallDeschedule
	SyscallMakeRunnable
	SyscallGetTicks
	SyscallSleep
	SyscallNewPages
	SyscallRemovePages
	SyscallPrint
	SyscallReadline
	SyscallSetTermColor
	SyscallSetCursorPos
	SyscallGetCursorPos
	SyscallReadFile
	SyscallSwexn

	NumSyscalls
)

// ValidateBufferArg is the syscall-entry argument check spec.md §4.9
// requires before touching a user buffer: "argument pointer
// validation" against is_buffer_valid (spec.md §4.3).
func ValidateBufferArg(as *vm.AddrSpace_t, addr uintptr, length int, rw bool) defs.Err_t {
	if !as.IsBufferValid(addr, length, rw) {
		return -defs.EFAULT
	}
	return 0
}

// ValidateStringArg is the equivalent check for a nul-terminated user
// string (is_valid_string, spec.md §4.3), also enforcing maxLen.
func ValidateStringArg(as *vm.AddrSpace_t, addr uintptr, maxLen int) (int, defs.Err_t) {
	return as.IsValidString(addr, maxLen)
}
