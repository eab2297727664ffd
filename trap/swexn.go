package trap

import (
	"bytes"
	"encoding/binary"

	"nucleus/arch"
	"nucleus/config"
	"nucleus/defs"
	"nucleus/proc"
	"nucleus/vm"
)

// Ureg_t is the register snapshot handed to a user swexn handler: the
// kernel trap frame with cause and cr2 prepended (spec.md §4.10: "a
// ureg block copied from the kernel trap frame (with cause and cr2
// prepended)"). Layout is little-endian, matching how a real 32-bit
// stub would lay the struct out on the user stack.
type Ureg_t struct {
	Cause, Cr2                        uint32
	Edi, Esi, Ebp, Ebx, Edx, Ecx, Eax uint32
	Ds, Es, Fs, Gs                    uint32
	Vector, ErrorCode                 uint32
	Eip, Cs, Eflags, Esp3, Ss3        uint32
}

func uregSize() int { return binary.Size(Ureg_t{}) }

// BuildSwexnFrame implements the re-entry half of swexn (spec.md
// §4.10): it writes a ureg block and a {arg, ureg_addr, fake_return}
// call frame onto the registered handler stack, then rewrites frame so
// the pending iret lands at entry_eip with that stack. The handler
// registration is cleared as part of the call (one-shot).
func BuildSwexnFrame(tcb *proc.TCB_t, frame *arch.TrapFrame, cause uint32, cr2 uintptr) {
	h := tcb.Swexn
	tcb.Swexn = proc.Swexn_t{}

	ureg := Ureg_t{
		Cause: cause, Cr2: uint32(cr2),
		Edi: frame.Edi, Esi: frame.Esi, Ebp: frame.Ebp,
		Ebx: frame.Ebx, Edx: frame.Edx, Ecx: frame.Ecx, Eax: frame.Eax,
		Vector: frame.Vector, ErrorCode: frame.ErrorCode,
		Eip: frame.Eip, Cs: frame.Cs, Eflags: frame.Eflags,
		Esp3: frame.Esp3, Ss3: frame.Ss3,
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, ureg)
	uregAddr := h.UserStackTop - uintptr(uregSize())

	as := tcb.Task.AddrSpace
	vm.CopyOut(as, uregAddr, buf.Bytes())

	callFrame := make([]byte, 12)
	binary.LittleEndian.PutUint32(callFrame[0:], 0) // fake return address
	binary.LittleEndian.PutUint32(callFrame[4:], uint32(uregAddr))
	binary.LittleEndian.PutUint32(callFrame[8:], uint32(h.OpaqueArg))
	newEsp := uregAddr - 12
	vm.CopyOut(as, newEsp, callFrame)

	frame.Eip = h.EntryEip
	frame.Esp3 = uint32(newEsp)
}

// ValidateNewUreg checks the fields swexn's newureg variant must
// police before the kernel will adopt them as the outgoing trap frame
// (spec.md §4.10: "validating segment selectors ... and eflags
// (reserved bit set, AC clear, IOPL=3, IF set)"). The caller is
// expected to reject the syscall outright on a non-zero return rather
// than adopt any part of u.
func ValidateNewUreg(u *Ureg_t) defs.Err_t {
	if u.Cs != config.UserCodeSeg {
		return -defs.EINVAL
	}
	for _, sel := range []uint32{u.Ds, u.Es, u.Fs, u.Gs, u.Ss3} {
		if sel != config.UserDataSeg {
			return -defs.EINVAL
		}
	}
	if u.Eflags&config.EflagsReservedBit == 0 {
		return -defs.EINVAL
	}
	if u.Eflags&config.EflagsACBit != 0 {
		return -defs.EINVAL
	}
	if u.Eflags&config.EflagsIFBit == 0 {
		return -defs.EINVAL
	}
	if u.Eflags&config.EflagsIOPLMask != config.EflagsIOPLMask {
		return -defs.EINVAL
	}
	return 0
}

// ApplyNewUreg overwrites frame from u once ValidateNewUreg has
// approved it (spec.md §4.10: "the kernel instead overwrites the
// outgoing trap frame from newureg before returning").
func ApplyNewUreg(frame *arch.TrapFrame, u *Ureg_t) {
	frame.Edi, frame.Esi, frame.Ebp = u.Edi, u.Esi, u.Ebp
	frame.Ebx, frame.Edx, frame.Ecx, frame.Eax = u.Ebx, u.Edx, u.Ecx, u.Eax
	frame.Eip, frame.Cs, frame.Eflags = u.Eip, u.Cs, u.Eflags
	frame.Esp3, frame.Ss3 = u.Esp3, u.Ss3
}
