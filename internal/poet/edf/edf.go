// Package edf implements the earliest-deadline-first analyzer: maximum
// busy-interval L, per-interferer search-space construction via a
// deadline-offset map, per-offset fixpoint solutions F(A) against a
// deadline-clamped workload bound, and response-time extraction, for both
// fully-preemptive and non-preemptive EDF (spec §4.4-§4.7, EDF column).
package edf

import (
	"github.com/prosa-project/poet/internal/poet/fixpoint"
	"github.com/prosa-project/poet/internal/poet/rbf"
	"github.com/prosa-project/poet/internal/poet/task"
)

// BlockingBounds precomputes, for every task in the set, the
// non-preemptive blocking bound: max(t.C-1) over every t with a strictly
// larger deadline (t.Deadline > tsk.Deadline), or 0.
type BlockingBounds map[int64]int64

// ComputeBlockingBounds builds the blocking-bound table for EDF
// non-preemptive analysis.
func ComputeBlockingBounds(tasks []*task.Task) BlockingBounds {
	bounds := make(BlockingBounds, len(tasks))
	for _, tsk := range tasks {
		var bound int64
		for _, t := range tasks {
			if t.Deadline > tsk.Deadline && t.WCET-1 > bound {
				bound = t.WCET - 1
			}
		}
		bounds[tsk.ID] = bound
	}
	return bounds
}

// MaxBusyInterval computes L as the fixpoint of total_rbf: L =
// fixpoint(delta -> total_rbf(delta); seed 1). Identical for fully
// preemptive and non-preemptive EDF (the busy-interval bound does not
// depend on blocking for EDF, per the reference implementation). A task set
// whose total utilization is 1 or more is reported Unbounded without
// iterating.
func MaxBusyInterval(tasks []*task.Task) int64 {
	var utilization float64
	for _, t := range tasks {
		utilization += t.Utilization()
	}
	if utilization >= 1 {
		return fixpoint.Unbounded
	}
	f := func(delta int64) int64 {
		return rbf.TotalRBF(tasks, delta)
	}
	return fixpoint.FindDefault(f, 1)
}

// offsetToSteps maps an interferer tsko's arrival-curve steps (shifted by
// offset) into deadline-adjusted candidate offsets for tsk:
//
//	{max(0, o + tsko.D - tsk.D - 1) | o in tsko.curve.time_steps_with_offset(offset), o + tsko.D >= tsk.D}
func offsetToSteps(tsk, tsko *task.Task, offset int64) []int64 {
	var out []int64
	for _, o := range tsko.Curve().TimeStepsWithOffset(offset) {
		if o+tsko.Deadline >= tsk.Deadline {
			v := o + tsko.Deadline - tsk.Deadline - 1
			if v < 0 {
				v = 0
			}
			out = append(out, v)
		}
	}
	return out
}

// binarySearchLowerBound finds the largest r below which offsetToSteps is
// empty, terminating once rMax-l <= 10 (spec §4.5, design note "Search-space
// binary search edge": the slack is preserved exactly so the caller's
// linear scan over [l, rMax) never misses a step within 10*h of the
// boundary).
func binarySearchLowerBound(tsk, tsko *task.Task, h, rMax int64) int64 {
	l, r := int64(0), rMax
	for r-l > 10 {
		m := (r + l) / 2
		if len(offsetToSteps(tsk, tsko, h*m)) == 0 {
			l = m
		} else {
			r = m
		}
	}
	return l
}

// SearchSpace builds, for every interferer in task-set order (including
// tsk itself), the per-interferer list of candidate offsets.
func SearchSpace(tasks []*task.Task, tsk *task.Task, l int64) [][]int64 {
	ss := make([][]int64, 0, len(tasks))
	for _, tsko := range tasks {
		h := tsko.Curve().Horizon()

		window := tsk.Deadline - tsko.Deadline
		if window < 0 {
			window = 0
		}
		rMax := (l+window)/h + 1

		lower := binarySearchLowerBound(tsk, tsko, h, rMax)

		var perInterferer []int64
		for r := lower; r < rMax; r++ {
			perInterferer = append(perInterferer, offsetToSteps(tsk, tsko, h*r)...)
		}
		ss = append(ss, perInterferer)
	}
	return ss
}

// FullyPreemptiveF computes F(A) for fully-preemptive EDF:
// psi_A(F) = max(0, task_rbf(A+1) + bound_hep_edf(tsk, A, A+F) - A).
func FullyPreemptiveF(tasks []*task.Task, tsk *task.Task, a int64) int64 {
	taskRBFAtAPlus1 := tsk.RBF(a + 1)
	f := func(fCandidate int64) int64 {
		v := taskRBFAtAPlus1 + rbf.BoundHEPEDF(tasks, tsk, a, a+fCandidate) - a
		if v < 0 {
			return 0
		}
		return v
	}
	return fixpoint.FindDefault(f, 1)
}

// NonPreemptiveF computes F(A) for non-preemptive EDF:
// psi_A(F) = max(0, blocking + max(0, task_rbf(A+1)-(C-1)) + bound_hep_edf(tsk, A, A+F) - A).
func NonPreemptiveF(tasks []*task.Task, tsk *task.Task, a, blocking int64) int64 {
	taskRBFAtAPlus1 := tsk.RBF(a + 1)
	cMinusEps := tsk.WCET - 1
	discountedRBF := taskRBFAtAPlus1 - cMinusEps
	if discountedRBF < 0 {
		discountedRBF = 0
	}
	f := func(fCandidate int64) int64 {
		v := blocking + discountedRBF + rbf.BoundHEPEDF(tasks, tsk, a, a+fCandidate) - a
		if v < 0 {
			return 0
		}
		return v
	}
	return fixpoint.FindDefault(f, 1)
}

// ResponseTime flattens the per-interferer Fs lists and extracts R:
// R = max(0, max(flat)) for fully preemptive; add C-1 for non-preemptive.
func ResponseTime(fs [][]int64, tsk *task.Task, nonPreemptive bool) int64 {
	var m int64
	for _, perInterferer := range fs {
		for _, f := range perInterferer {
			if f > m {
				m = f
			}
		}
	}
	if nonPreemptive {
		m += tsk.WCET - 1
	}
	return m
}
