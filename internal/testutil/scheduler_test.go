package testutil

import (
	"testing"
	"time"
)

func TestManualSchedulerAdvance(t *testing.T) {
	s := NewManualScheduler()

	var fired int
	h := s.Every(time.Second, func() { fired++ })

	s.Advance(3)
	if fired != 3 {
		t.Errorf("fired = %d, want 3", fired)
	}
	if s.Live() != 1 {
		t.Errorf("Live() = %d, want 1", s.Live())
	}

	h.Stop()
	s.Advance(2)
	if fired != 3 {
		t.Errorf("fired after stop = %d, want 3", fired)
	}
	if s.Live() != 0 {
		t.Errorf("Live() = %d, want 0", s.Live())
	}
	if s.Acquired() != 1 {
		t.Errorf("Acquired() = %d, want 1", s.Acquired())
	}
}

func TestManualSchedulerStopDuringPeriod(t *testing.T) {
	s := NewManualScheduler()

	var second *ManualHandle
	var firstFired, secondFired int
	s.Every(time.Second, func() {
		firstFired++
		second.Stop()
	})
	second = s.Every(time.Second, func() { secondFired++ }).(*ManualHandle)

	s.Advance(1)
	if firstFired != 1 {
		t.Errorf("firstFired = %d, want 1", firstFired)
	}
	if secondFired != 0 {
		t.Errorf("secondFired = %d, want 0", secondFired)
	}
	if second.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", second.Stops())
	}
	if second.Interval != time.Second {
		t.Errorf("Interval = %v, want 1s", second.Interval)
	}
}
