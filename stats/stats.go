// Package stats is the kernel's ticks-per-thread counter, grounded on
// biscuit's stats/stats.go Counter_t/Stats2String pattern: a small set
// of atomic counters sampled by the timer tick and rendered on demand.
// Where biscuit's counters are compiled out behind a false Stats
// constant and dumped as a text blob, this package's counters are
// always live and render through github.com/google/pprof/profile
// instead of a hand-rolled string, so the same ticks-per-thread data a
// biscuit build would print can be opened in any pprof-compatible
// viewer (SPEC_FULL.md §3).
package stats

import (
	"io"
	"strconv"
	"sync"

	"github.com/google/pprof/profile"

	"nucleus/defs"
)

// Sampler_t accumulates one tick counter per thread id. The zero value
// is ready to use.
type Sampler_t struct {
	mu    sync.Mutex
	ticks map[defs.Tid_t]int64
}

// Default is the single sampler the timer tick feeds (spec.md's single
// timer collaborator has one counter set, not one per CPU, since this
// kernel is uniprocessor).
var Default = &Sampler_t{}

// RecordTick counts one timer tick against tid, the thread that was
// running when the tick fired.
func (s *Sampler_t) RecordTick(tid defs.Tid_t) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticks == nil {
		s.ticks = make(map[defs.Tid_t]int64)
	}
	s.ticks[tid]++
}

// Snapshot returns a point-in-time copy of the per-thread tick counts.
func (s *Sampler_t) Snapshot() map[defs.Tid_t]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[defs.Tid_t]int64, len(s.ticks))
	for tid, n := range s.ticks {
		out[tid] = n
	}
	return out
}

// Profile builds a pprof Profile with one sample per thread id, the
// sample's value being that thread's accumulated tick count. Each
// thread gets a synthetic Function/Location so the profile is viewable
// by name ("tid-<n>") rather than by a bare numeric index.
func (s *Sampler_t) Profile() *profile.Profile {
	snap := s.Snapshot()

	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "ticks", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "tick", Unit: "count"},
		Period:     1,
	}

	tids := make([]defs.Tid_t, 0, len(snap))
	for tid := range snap {
		tids = append(tids, tid)
	}
	sortTids(tids)

	for i, tid := range tids {
		id := uint64(i + 1)
		fn := &profile.Function{ID: id, Name: threadName(tid)}
		loc := &profile.Location{ID: id, Line: []profile.Line{{Function: fn, Line: 0}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{snap[tid]},
			Label:    map[string][]string{"tid": {threadName(tid)}},
		})
	}
	return p
}

// Write renders the current sample set as a gzip-compressed pprof
// profile onto w, suitable for `go tool pprof`.
func (s *Sampler_t) Write(w io.Writer) error {
	return s.Profile().Write(w)
}

func threadName(tid defs.Tid_t) string {
	return "tid-" + strconv.FormatInt(int64(tid), 10)
}

func sortTids(tids []defs.Tid_t) {
	for i := 1; i < len(tids); i++ {
		for j := i; j > 0 && tids[j-1] > tids[j]; j-- {
			tids[j-1], tids[j] = tids[j], tids[j-1]
		}
	}
}
