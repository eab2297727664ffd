package catalog

import "nucleus/config"

// init registers the catalog entries adapted from the 410user/progs
// test suite (original_source/410user/progs/*.c and
// original_source/user/progs/pages_alloc_test.c), reproduced as Go
// closures over Syscalls so the end-to-end scenarios of spec.md §8 can
// run as ordinary tests against proc.Context.
func init() {
	Register(&Program{Name: "idle", Run: runIdle})
	Register(&Program{Name: "init", Run: runInit})
	Register(&Program{Name: "shell", Run: runShell})
	Register(&Program{Name: "exec_basic", Run: runExecBasic})
	Register(&Program{Name: "fork_exit_bomb", Run: runForkExitBomb})
	Register(&Program{Name: "wait_getpid", Run: runWaitGetpid})
	Register(&Program{Name: "pages_alloc_test", Run: runPagesAllocTest})
	Register(&Program{Name: "print_basic", Run: runPrintBasic})
	Register(&Program{Name: "slaughter", Run: runSlaughter})
}

// runIdle mirrors 410user/progs/idle.c: print a fixed banner once, read
// its tid, then yield four times rather than spin, so it never starves
// the test scheduler.
func runIdle(sc Syscalls, argv []string) {
	sc.Print("Idle task running !\n")
	_ = sc.Gettid()
	for i := 0; i < 4; i++ {
		sc.Yield(-1)
	}
}

// runInit mirrors 410user/progs/init.c: fork a child that execs
// "shell", wait for it, and relaunch forever. argv[0] == "once" bounds
// the loop to a single pass for tests.
func runInit(sc Syscalls, argv []string) {
	once := len(argv) > 0 && argv[0] == "once"
	for {
		child, err := sc.Fork(func(csc Syscalls) {
			csc.Exec("shell", nil)
		})
		if err != 0 {
			sc.SetStatus(-1)
			sc.Vanish()
			return
		}
		for {
			tid, _, _ := sc.Wait()
			if tid == child {
				break
			}
		}
		if once {
			return
		}
	}
}

// runShell is a minimal stand-in for the real 15-410 shell: it forks
// and execs whatever argv names (defaulting to exec_basic), then waits.
func runShell(sc Syscalls, argv []string) {
	prog := "exec_basic"
	rest := []string{prog}
	if len(argv) > 0 {
		prog = argv[0]
		rest = argv
	}
	_, err := sc.Fork(func(csc Syscalls) {
		csc.Exec(prog, rest)
	})
	if err != 0 {
		sc.SetStatus(-1)
		sc.Vanish()
		return
	}
	sc.Wait()
}

// runExecBasic mirrors 410user/progs/exec_basic_helper.c: print and
// loop, bounded here for testing.
func runExecBasic(sc Syscalls, argv []string) {
	sc.Print("exec_basic running\n")
	for i := 0; i < 2; i++ {
		sc.Yield(-1)
	}
	sc.SetStatus(0)
	sc.Vanish()
}

// runForkExitBomb mirrors 410user/progs/fork_exit_bomb.c: fork 1000
// times, each child exiting 42, parent counting successes.
func runForkExitBomb(sc Syscalls, argv []string) {
	count := 0
	for count < 1000 {
		_, err := sc.Fork(func(csc Syscalls) {
			csc.SetStatus(42)
			csc.Vanish()
		})
		if err != 0 {
			sc.SetStatus(-1)
			sc.Vanish()
			return
		}
		count++
	}
	sc.SetStatus(42)
	sc.Vanish()
}

// runWaitGetpid mirrors 410user/progs/wait_getpid.c: fork once, the
// child exits with its own tid as status, and the parent asserts wait
// reports that same (tid, status) pair.
func runWaitGetpid(sc Syscalls, argv []string) {
	pid, err := sc.Fork(func(csc Syscalls) {
		t := csc.Gettid()
		csc.SetStatus(int(t))
		csc.Vanish()
	})
	if err != 0 {
		sc.SetStatus(-1)
		sc.Vanish()
		return
	}
	tid, status, _ := sc.Wait()
	if tid != pid || status != int(pid) {
		sc.SetStatus(-1)
		sc.Vanish()
		return
	}
	sc.SetStatus(0)
	sc.Vanish()
}

// runPagesAllocTest mirrors user/progs/pages_alloc_test.c's
// malloc_without_write: new_pages(P, 1 page) then new_pages(P2, 10
// pages), freeing both via remove_pages without ever writing to the
// region, so no ZFOD fault is triggered.
func runPagesAllocTest(sc Syscalls, argv []string) {
	const base1 = 0x2000000
	const base2 = 0x3000000
	if err := sc.NewPages(base1, config.PageSize); err != 0 {
		sc.SetStatus(-1)
		sc.Vanish()
		return
	}
	if err := sc.NewPages(base2, 10*config.PageSize); err != 0 {
		sc.SetStatus(-1)
		sc.Vanish()
		return
	}
	sc.RemovePages(base1)
	sc.RemovePages(base2)
	sc.SetStatus(0)
	sc.Vanish()
}

// runPrintBasic is the grandchild leaf in the slaughter fork tree: it
// simply exits 0.
func runPrintBasic(sc Syscalls, argv []string) {
	sc.SetStatus(0)
	sc.Vanish()
}

// runSlaughter mirrors 410user/progs/slaughter.c's recursive fork
// tree: argv is {depth, fanout, leafProgram}. Every non-leaf level
// forks fanout children, waits for all of them, and propagates status
// 0 only if every child reported 0.
func runSlaughter(sc Syscalls, argv []string) {
	depth := 0
	fanout := 2
	leaf := "print_basic"
	if len(argv) > 0 {
		depth = atoiOr(argv[0], 0)
	}
	if len(argv) > 1 {
		fanout = atoiOr(argv[1], 2)
	}
	if len(argv) > 2 {
		leaf = argv[2]
	}
	if depth == 0 {
		sc.Exec(leaf, nil)
		return
	}
	ok := true
	for i := 0; i < fanout; i++ {
		_, err := sc.Fork(func(csc Syscalls) {
			runSlaughter(csc, []string{itoa(depth - 1), itoa(fanout), leaf})
		})
		if err != 0 {
			ok = false
		}
	}
	for i := 0; i < fanout; i++ {
		_, status, _ := sc.Wait()
		if status != 0 {
			ok = false
		}
	}
	if ok {
		sc.SetStatus(0)
	} else {
		sc.SetStatus(1)
	}
	sc.Vanish()
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
