// Package rbf implements the request-bound-function sums shared by both
// schedulers: total workload, higher-or-equal-priority workload under FP,
// and the deadline-clamped workload bound under EDF (spec §4.3).
package rbf

import "github.com/prosa-project/poet/internal/poet/task"

// TotalRBF sums task_rbf(delta) over every task in the set.
func TotalRBF(tasks []*task.Task, delta int64) int64 {
	var sum int64
	for _, t := range tasks {
		sum += t.RBF(delta)
	}
	return sum
}

// TotalHEPRBFFP sums task_rbf(delta) over every task with priority <= tsk's
// priority (higher-or-equal priority, including tsk itself). Ties broken
// with <= per spec §4.3: "the tie-breaking convention for FP priority
// comparisons is <= (a task's own priority class is included in HEP)".
func TotalHEPRBFFP(tasks []*task.Task, tsk *task.Task, delta int64) int64 {
	var sum int64
	for _, t := range tasks {
		if t.Priority <= tsk.Priority {
			sum += t.RBF(delta)
		}
	}
	return sum
}

// TotalOHEPRBFFP is TotalHEPRBFFP minus tsk's own contribution: the
// workload from every OTHER higher-or-equal-priority task.
func TotalOHEPRBFFP(tasks []*task.Task, tsk *task.Task, delta int64) int64 {
	return TotalHEPRBFFP(tasks, tsk, delta) - tsk.RBF(delta)
}

// BoundHEPEDF computes the deadline-clamped higher-or-equal-priority
// workload bound used by the EDF recurrence:
//
//	sum over t != tsk of t.rbf(clamp(min(A+1+tsk.D-t.D, delta), 0))
//
// Interferers with larger deadlines contribute at most when
// A+1+tsk.D-t.D > 0 (spec §4.3).
func BoundHEPEDF(tasks []*task.Task, tsk *task.Task, a, delta int64) int64 {
	var sum int64
	for _, t := range tasks {
		if t == tsk {
			continue
		}
		window := a + 1 + tsk.Deadline - t.Deadline
		if window > delta {
			window = delta
		}
		if window < 0 {
			window = 0
		}
		sum += t.RBF(window)
	}
	return sum
}
