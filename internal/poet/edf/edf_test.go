package edf

import (
	"testing"

	"github.com/prosa-project/poet/internal/poet/task"
)

func mkTask(t *testing.T, id, deadline, wcet, period int64) *task.Task {
	t.Helper()
	tsk, err := task.NewPeriodic(id, deadline, wcet, period)
	if err != nil {
		t.Fatalf("NewPeriodic: %v", err)
	}
	return tsk
}

func TestMaxBusyInterval_Bounded(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5)
	t2 := mkTask(t, 2, 10, 2, 10)
	tasks := []*task.Task{t1, t2}

	l := MaxBusyInterval(tasks)
	if l <= 0 {
		t.Fatalf("expected bounded L, got %d", l)
	}
	if l != rbfSumClosure(tasks, l) {
		t.Errorf("L = %d is not a fixpoint of total_rbf", l)
	}
}

func rbfSumClosure(tasks []*task.Task, delta int64) int64 {
	var sum int64
	for _, tsk := range tasks {
		sum += tsk.RBF(delta)
	}
	return sum
}

func TestMaxBusyInterval_Unbounded(t *testing.T) {
	// total utilization 1 is reported unbounded.
	t1 := mkTask(t, 1, 5, 5, 5)
	l := MaxBusyInterval([]*task.Task{t1})
	if l != -1 {
		t.Errorf("expected unbounded (-1), got %d", l)
	}
}

func TestComputeBlockingBounds_LargerDeadlineOnly(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5)
	t2 := mkTask(t, 2, 50, 10, 50)
	tasks := []*task.Task{t1, t2}

	bounds := ComputeBlockingBounds(tasks)
	// t1 has the smaller deadline: blocked by t2 (t2.D > t1.D), bound = t2.WCET-1 = 9.
	if bounds[t1.ID] != 9 {
		t.Errorf("blocking bound for t1 = %d, want 9", bounds[t1.ID])
	}
	// t2 has the largest deadline: nothing has a strictly larger deadline.
	if bounds[t2.ID] != 0 {
		t.Errorf("blocking bound for t2 = %d, want 0", bounds[t2.ID])
	}
}

func TestOffsetToSteps_FiltersByDeadlineWindow(t *testing.T) {
	tsk := mkTask(t, 1, 5, 1, 10)
	tsko := mkTask(t, 2, 3, 1, 10)

	// tsko.Deadline (3) < tsk.Deadline (5): o+tsko.D >= tsk.D requires o >= 2.
	out := offsetToSteps(tsk, tsko, 0)
	for _, v := range out {
		if v < 0 {
			t.Errorf("offsetToSteps produced negative candidate %d", v)
		}
	}
}

func TestSearchSpace_Containment(t *testing.T) {
	t1 := mkTask(t, 1, 20, 3, 7)
	t2 := mkTask(t, 2, 20, 2, 11)
	tasks := []*task.Task{t1, t2}

	l := MaxBusyInterval(tasks)
	ss := SearchSpace(tasks, t1, l)
	if len(ss) != len(tasks) {
		t.Fatalf("SearchSpace returned %d per-interferer lists, want %d", len(ss), len(tasks))
	}
	for _, perInterferer := range ss {
		for _, a := range perInterferer {
			if a < 0 || a >= l {
				t.Errorf("offset %d out of [0, %d)", a, l)
			}
		}
	}
}

func TestBinarySearchLowerBound_WithinRange(t *testing.T) {
	tsk := mkTask(t, 1, 20, 3, 7)
	tsko := mkTask(t, 2, 15, 2, 11)
	h := tsko.Curve().Horizon()
	rMax := int64(50)

	lower := binarySearchLowerBound(tsk, tsko, h, rMax)

	// Every r below `lower` (by the loop's invariant) should have produced
	// an empty offsetToSteps at the last probed midpoint; sanity check that
	// the returned lower bound itself lies within [0, rMax].
	if lower < 0 || lower > rMax {
		t.Fatalf("lower = %d out of [0, %d]", lower, rMax)
	}
}

func TestFullyPreemptiveF_NonNegative(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5)
	t2 := mkTask(t, 2, 10, 2, 10)
	tasks := []*task.Task{t1, t2}

	f := FullyPreemptiveF(tasks, t1, 0)
	if f < 0 {
		t.Errorf("F(0) = %d, want >= 0", f)
	}
}

func TestNonPreemptiveF_AtLeastFullyPreemptive(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5)
	t2 := mkTask(t, 2, 50, 10, 50)
	tasks := []*task.Task{t1, t2}

	blocking := ComputeBlockingBounds(tasks)
	fPreempt := FullyPreemptiveF(tasks, t1, 0)
	fNonPreempt := NonPreemptiveF(tasks, t1, 0, blocking[t1.ID])

	if fNonPreempt < fPreempt {
		t.Errorf("non-preemptive F(0) = %d should be >= fully preemptive F(0) = %d", fNonPreempt, fPreempt)
	}
}

func TestResponseTime_FlattensAndAddsBlockingTerm(t *testing.T) {
	tsk := mkTask(t, 1, 5, 2, 5)
	fs := [][]int64{{1, 4}, {2}, {}}

	r := ResponseTime(fs, tsk, false)
	if r != 4 {
		t.Errorf("ResponseTime (preemptive) = %d, want 4", r)
	}

	rNP := ResponseTime(fs, tsk, true)
	if rNP != 4+tsk.WCET-1 {
		t.Errorf("ResponseTime (non-preemptive) = %d, want %d", rNP, 4+tsk.WCET-1)
	}
}

func TestResponseTime_EmptyIsZero(t *testing.T) {
	tsk := mkTask(t, 1, 5, 2, 5)
	r := ResponseTime(nil, tsk, false)
	if r != 0 {
		t.Errorf("ResponseTime(nil) = %d, want 0", r)
	}
}
