// Package util contains small helpers shared across the kernel, in
// the spirit of biscuit's util package: no kernel-specific knowledge,
// just arithmetic and byte packing used by the pieces that do.
package util

// Int is satisfied by all built-in integer types.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Min returns the smaller of a and b.
func Min[T Int](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T Int](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Rounddown aligns v down to the nearest multiple of b.
func Rounddown[T Int](v, b T) T {
	return v - (v % b)
}

// Roundup aligns v up to the nearest multiple of b.
func Roundup[T Int](v, b T) T {
	return Rounddown(v+b-1, b)
}

// Readn reads n little-endian bytes from a starting at off.
func Readn(a []uint8, n int, off int) int {
	var ret int
	for i := n - 1; i >= 0; i-- {
		ret <<= 8
		ret |= int(a[off+i])
	}
	return ret
}

// Writen writes the low n bytes of val, little-endian, into a at off.
func Writen(a []uint8, n int, off int, val int) {
	for i := 0; i < n; i++ {
		a[off+i] = uint8(val)
		val >>= 8
	}
}
