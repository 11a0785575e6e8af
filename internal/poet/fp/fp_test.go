package fp

import (
	"testing"

	"github.com/prosa-project/poet/internal/poet/task"
	"github.com/stretchr/testify/require"
)

func mkTask(t *testing.T, id, deadline, wcet, period, priority int64) *task.Task {
	t.Helper()
	tsk, err := task.NewPeriodic(id, deadline, wcet, period)
	require.NoError(t, err)
	require.NoError(t, tsk.SetPriority(priority))
	return tsk
}

// FP-FP schedulable scenario from spec §8: three periodic tasks.
func TestEndToEnd_FPFullyPreemptive_Schedulable(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5, 1)
	t2 := mkTask(t, 2, 10, 2, 10, 2)
	t3 := mkTask(t, 3, 20, 3, 20, 3)
	tasks := []*task.Task{t1, t2, t3}

	expect := []struct {
		tsk     *task.Task
		wantL   int64
		wantR   int64
	}{
		{t1, 1, 1},
		{t2, 3, 3},
		{t3, 20, 20},
	}

	for _, e := range expect {
		l := MaxBusyInterval(tasks, e.tsk, 0)
		if l != e.wantL {
			t.Fatalf("task %d: L = %d, want %d", e.tsk.ID, l, e.wantL)
		}
		ss := SearchSpace(e.tsk, l)
		var fs []int64
		for _, a := range ss {
			fs = append(fs, FullyPreemptiveF(tasks, e.tsk, a))
		}
		r := ResponseTime(fs, e.tsk, false)
		if r != e.wantR {
			t.Errorf("task %d: R = %d, want %d", e.tsk.ID, r, e.wantR)
		}
	}
}

// FP-NP unschedulable-by-blocking scenario from spec §8.
func TestEndToEnd_FPNonPreemptive_UnschedulableByBlocking(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5, 1)
	t2 := mkTask(t, 2, 50, 10, 50, 2)
	tasks := []*task.Task{t1, t2}

	blocking := ComputeBlockingBounds(tasks)

	l := MaxBusyInterval(tasks, t1, blocking[t1.ID])
	if l <= 0 {
		t.Fatalf("expected bounded L for t1, got %d", l)
	}
	ss := SearchSpace(t1, l)
	var fs []int64
	for _, a := range ss {
		fs = append(fs, NonPreemptiveF(tasks, t1, a, blocking[t1.ID]))
	}
	r := ResponseTime(fs, t1, true)
	if r < 10 {
		t.Errorf("R for t1 = %d, want >= 10 (blocked by t2's WCET)", r)
	}
	if r <= t1.Deadline {
		t.Errorf("R = %d should exceed deadline %d (unschedulable scenario)", r, t1.Deadline)
	}
}

func TestSearchSpace_Containment(t *testing.T) {
	// spec §8 invariant 3: every offset A in SS satisfies 0 <= A < L.
	t1 := mkTask(t, 1, 20, 3, 7, 1)
	t2 := mkTask(t, 2, 20, 2, 11, 2)
	tasks := []*task.Task{t1, t2}

	l := MaxBusyInterval(tasks, t2, 0)
	ss := SearchSpace(t2, l)
	for _, a := range ss {
		if a < 0 || a >= l {
			t.Errorf("offset %d out of [0, %d)", a, l)
		}
	}
}

func TestComputeBlockingBounds_NonNegative(t *testing.T) {
	t1 := mkTask(t, 1, 5, 1, 5, 1)
	t2 := mkTask(t, 2, 50, 10, 50, 2)
	bounds := ComputeBlockingBounds([]*task.Task{t1, t2})
	for id, b := range bounds {
		if b < 0 {
			t.Errorf("blocking bound for task %d is negative: %d", id, b)
		}
	}
	// t1 (highest priority) is blocked by t2 (lower priority): bound = t2.WCET-1 = 9.
	if bounds[t1.ID] != 9 {
		t.Errorf("blocking bound for t1 = %d, want 9", bounds[t1.ID])
	}
	// t2 is the lowest priority task: nothing has strictly lower priority.
	if bounds[t2.ID] != 0 {
		t.Errorf("blocking bound for t2 = %d, want 0", bounds[t2.ID])
	}
}
