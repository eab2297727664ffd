package stats

import (
	"bytes"
	"testing"

	"nucleus/defs"
)

func TestRecordTickAccumulatesPerThread(t *testing.T) {
	s := &Sampler_t{}
	s.RecordTick(1)
	s.RecordTick(1)
	s.RecordTick(2)

	snap := s.Snapshot()
	if snap[1] != 2 {
		t.Fatalf("tid 1 ticks = %d, want 2", snap[1])
	}
	if snap[2] != 1 {
		t.Fatalf("tid 2 ticks = %d, want 1", snap[2])
	}
}

func TestProfileCarriesOneSamplePerThread(t *testing.T) {
	s := &Sampler_t{}
	s.RecordTick(7)
	s.RecordTick(7)
	s.RecordTick(9)

	p := s.Profile()
	if len(p.Sample) != 2 {
		t.Fatalf("len(Sample) = %d, want 2", len(p.Sample))
	}
	if err := p.CheckValid(); err != nil {
		t.Fatalf("CheckValid() = %v", err)
	}

	var found7 bool
	for _, sample := range p.Sample {
		if sample.Label["tid"][0] == "tid-7" {
			found7 = true
			if sample.Value[0] != 2 {
				t.Fatalf("tid 7 sample value = %d, want 2", sample.Value[0])
			}
		}
	}
	if !found7 {
		t.Fatalf("no sample labeled tid-7")
	}
}

func TestWriteProducesNonEmptyProfile(t *testing.T) {
	s := &Sampler_t{}
	s.RecordTick(defs.Tid_t(3))

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write() err = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("Write() produced no bytes")
	}
}

func TestSnapshotIsEmptyBeforeAnyTick(t *testing.T) {
	s := &Sampler_t{}
	if snap := s.Snapshot(); len(snap) != 0 {
		t.Fatalf("Snapshot() = %v, want empty", snap)
	}
}
