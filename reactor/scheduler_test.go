package reactor

import "testing"

func TestSchedulerRoundRobinCyclesThroughWorkers(t *testing.T) {
	s := newScheduler(RoundRobin, 4)
	seen := make(map[int]int)
	for i := 0; i < 400; i++ {
		idx := s.Next()
		if idx < 0 || idx >= 4 {
			t.Fatalf("Next() = %d, out of range [0,4)", idx)
		}
		seen[idx]++
	}
	for i := 0; i < 4; i++ {
		if seen[i] != 100 {
			t.Fatalf("worker %d got %d calls, want exactly 100 for a pure round robin", i, seen[i])
		}
	}
}

func TestSchedulerWaterwheelStaysInRange(t *testing.T) {
	s := newScheduler(Waterwheel, 3)
	touched := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		idx := s.Next()
		if idx < 0 || idx >= 3 {
			t.Fatalf("Next() = %d, out of range [0,3)", idx)
		}
		touched[idx] = true
	}
	for i := 0; i < 3; i++ {
		if !touched[i] {
			t.Fatalf("worker %d was never selected across 2000 draws", i)
		}
	}
}

func TestSchedulerSingleWorkerAlwaysZero(t *testing.T) {
	s := newScheduler(RoundRobin, 1)
	for i := 0; i < 10; i++ {
		if idx := s.Next(); idx != 0 {
			t.Fatalf("Next() = %d, want 0 with a single worker", idx)
		}
	}
}
