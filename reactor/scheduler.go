package reactor

import (
	"math/rand/v2"
	"sync/atomic"
)

// Scheduler chooses a worker index for each newly accepted connection
// (spec.md §4.1). Its counter is shared and intentionally
// unsynchronized beyond the target architecture's atomicity of aligned
// integer writes: the policy is a hint for spreading load, not a
// fairness guarantee, so racy updates are tolerated.
type Scheduler struct {
	policy      SchedulerPolicy
	workerCount int
	counter     atomic.Int64
}

// newScheduler builds a Scheduler for workerCount workers using policy.
func newScheduler(policy SchedulerPolicy, workerCount int) *Scheduler {
	return &Scheduler{policy: policy, workerCount: workerCount}
}

// Next returns a worker index in [0, workerCount).
func (s *Scheduler) Next() int {
	switch s.policy {
	case Waterwheel:
		return s.nextWaterwheel()
	default:
		return s.nextRoundRobin()
	}
}

func (s *Scheduler) nextRoundRobin() int {
	n := s.counter.Add(1)
	return int(n % int64(s.workerCount))
}

// nextWaterwheel implements the "Lorentz waterwheel" policy: a 4-bit
// random draw greater than 7 nudges the counter up, otherwise down,
// before taking it modulo worker_count. This is a cheap stochastic
// spread that still touches every worker while resisting phase-lock
// with periodic client arrival patterns.
func (s *Scheduler) nextWaterwheel() int {
	draw := rand.IntN(16)
	var n int64
	if draw > 7 {
		n = s.counter.Add(1)
	} else {
		n = s.counter.Add(-1)
	}
	m := n % int64(s.workerCount)
	if m < 0 {
		m += int64(s.workerCount)
	}
	return int(m)
}
