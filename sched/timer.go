package sched

import "nucleus/stats"

// Timer_t pairs the sleep queue with the scheduler's own tick-driven
// preemption (spec.md §4.5 "the timer handler wakes due sleepers, then
// unconditionally reschedules"). Tick handles one timer tick; no
// installed interrupt gate calls it, only this package's tests do.
type Timer_t struct {
	Sleep SleepQueue_t
}

// Timer is the single timer-tick collaborator.
var Timer = &Timer_t{}

// Tick wakes any sleepers whose countdown has elapsed, samples the
// outgoing thread's tick count (SPEC_FULL.md §3's stats.Sampler_t), and
// always reschedules current, matching spec.md §4.5's preemption
// discipline: the running thread never gets more than one tick
// uninterrupted.
func (t *Timer_t) Tick(current Thread) {
	t.Sleep.Tick()
	if current != nil {
		stats.Default.RecordTick(current.Tid())
	}
	System.MakeRunnableAndSwitch(current)
}
