package scheduler

import (
	"errors"
	"testing"

	"chaos_market/internal/domain"
)

type fakeSource struct{ snap domain.Snapshot }

func (f *fakeSource) Snapshot() domain.Snapshot { return f.snap }

type fakeSink struct {
	saved int
	err   error
}

func (f *fakeSink) SaveSnapshot(domain.Snapshot) error {
	f.saved++
	return f.err
}

func TestSnapshotJob_Run(t *testing.T) {
	sink := &fakeSink{}
	job := NewSnapshotJob(&fakeSource{}, sink)

	if err := job.Run(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sink.saved != 1 {
		t.Errorf("Expected 1 save, got %d", sink.saved)
	}

	sink.err = errors.New("disk full")
	if err := job.Run(); err == nil {
		t.Error("Expected the sink error to propagate")
	}
}

func TestScheduler_AddJob(t *testing.T) {
	s := New()
	job := NewSnapshotJob(&fakeSource{}, &fakeSink{})

	if err := s.AddJob("@every 5m", job); err != nil {
		t.Errorf("Valid schedule rejected: %v", err)
	}
	if err := s.AddJob("not a schedule", job); err == nil {
		t.Error("Invalid schedule accepted")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := New()
	sink := &fakeSink{}
	if err := s.RunNow(NewSnapshotJob(&fakeSource{}, sink)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sink.saved != 1 {
		t.Errorf("Expected immediate run to save once, got %d", sink.saved)
	}
}
