// Package klog is the kernel's only logging surface. Biscuit never
// routes kernel diagnostics through a logging library -- mem.Phys_init
// and dmap.Dmap_init both call fmt.Printf directly -- so this package
// keeps that texture instead of introducing one: it is a thin
// fmt.Fprintf wrapper over whatever io.Writer the console installs.
package klog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects kernel log output, normally to the console
// device once it is initialized during boot.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// Printf writes a formatted diagnostic line. Safe for concurrent use
// by multiple kernel threads and interrupt handlers.
func Printf(format string, args ...interface{}) {
	mu.Lock()
	fmt.Fprintf(out, format, args...)
	mu.Unlock()
}
