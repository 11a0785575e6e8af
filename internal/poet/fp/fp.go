// Package fp implements the fixed-priority analyzer: maximum busy-interval
// L, search-space construction, per-offset fixpoint solutions F(A), and
// response-time extraction, for both fully-preemptive and non-preemptive
// FP (spec §4.4-§4.7, FP column).
package fp

import (
	"github.com/prosa-project/poet/internal/poet/fixpoint"
	"github.com/prosa-project/poet/internal/poet/rbf"
	"github.com/prosa-project/poet/internal/poet/task"
)

// BlockingBounds precomputes, for every task in the set, the
// non-preemptive blocking bound: max(t.C-1) over every t with strictly
// lower priority (t.Priority > tsk.Priority), or 0. Read-only after
// construction (spec §5).
type BlockingBounds map[int64]int64

// ComputeBlockingBounds builds the blocking-bound table for FP
// non-preemptive analysis.
func ComputeBlockingBounds(tasks []*task.Task) BlockingBounds {
	bounds := make(BlockingBounds, len(tasks))
	for _, tsk := range tasks {
		var bound int64
		for _, t := range tasks {
			if t.Priority > tsk.Priority && t.WCET-1 > bound {
				bound = t.WCET - 1
			}
		}
		bounds[tsk.ID] = bound
	}
	return bounds
}

// MaxBusyInterval computes L for a task under FP, with or without
// blocking depending on preemption model (blocking is 0 under fully
// preemptive): L = fixpoint(delta -> blocking(tsk) + total_hep_rbf(tsk,
// delta); seed 1). When the higher-or-equal-priority tasks (tsk included)
// have a total utilization of 1 or more, L is reported Unbounded without
// iterating.
func MaxBusyInterval(tasks []*task.Task, tsk *task.Task, blocking int64) int64 {
	var utilization float64
	for _, t := range tasks {
		if t.Priority <= tsk.Priority {
			utilization += t.Utilization()
		}
	}
	if utilization >= 1 {
		return fixpoint.Unbounded
	}
	f := func(delta int64) int64 {
		return blocking + rbf.TotalHEPRBFFP(tasks, tsk, delta)
	}
	return fixpoint.FindDefault(f, 1)
}

// SearchSpace builds the FP candidate-offset list for the analyzed task:
// {max(0, o-1)} over o in time_steps_with_offset(h*r) for r = 0..floor(L/h).
func SearchSpace(tsk *task.Task, l int64) []int64 {
	c := tsk.Curve()
	h := c.Horizon()
	var ss []int64
	for r := int64(0); r <= l/h; r++ {
		for _, o := range c.TimeStepsWithOffset(h * r) {
			a := o - 1
			if a < 0 {
				a = 0
			}
			ss = append(ss, a)
		}
	}
	return ss
}

// FullyPreemptiveF computes F(A) for fully-preemptive FP:
// psi_A(F) = max(0, task_rbf(A+1) + total_ohep_rbf(A+F) - A).
func FullyPreemptiveF(tasks []*task.Task, tsk *task.Task, a int64) int64 {
	taskRBFAtAPlus1 := tsk.RBF(a + 1)
	f := func(fCandidate int64) int64 {
		v := taskRBFAtAPlus1 + rbf.TotalOHEPRBFFP(tasks, tsk, a+fCandidate) - a
		if v < 0 {
			return 0
		}
		return v
	}
	return fixpoint.FindDefault(f, 1)
}

// NonPreemptiveF computes F(A) for non-preemptive FP:
// psi_A(F) = max(0, blocking + task_rbf(A+1) - (C-1) + total_ohep_rbf(A+F) - A).
func NonPreemptiveF(tasks []*task.Task, tsk *task.Task, a, blocking int64) int64 {
	taskRBFAtAPlus1 := tsk.RBF(a + 1)
	cMinusEps := tsk.WCET - 1
	f := func(fCandidate int64) int64 {
		v := blocking + taskRBFAtAPlus1 - cMinusEps + rbf.TotalOHEPRBFFP(tasks, tsk, a+fCandidate) - a
		if v < 0 {
			return 0
		}
		return v
	}
	return fixpoint.FindDefault(f, 1)
}

// ResponseTime extracts R from the per-offset solutions Fs:
// R = max(0, max(Fs)) + C_np, where C_np = C-1 under non-preemptive, else 0.
func ResponseTime(fs []int64, tsk *task.Task, nonPreemptive bool) int64 {
	var m int64
	for _, f := range fs {
		if f > m {
			m = f
		}
	}
	if nonPreemptive {
		m += tsk.WCET - 1
	}
	return m
}
