package problem

import (
	"testing"

	"github.com/prosa-project/poet/internal/poet/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func periodicTask(t *testing.T, id int64, priority int64, withPriority bool) *task.Task {
	t.Helper()
	tsk, err := task.NewPeriodic(id, 10, 1, 10)
	require.NoError(t, err)
	if withPriority {
		require.NoError(t, tsk.SetPriority(priority))
	}
	return tsk
}

func TestNew_RejectsEmptyTaskSet(t *testing.T) {
	_, err := New(FixedPriority, FullyPreemptive, nil)
	assert.Error(t, err)
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	t1 := periodicTask(t, 1, 0, true)
	t2 := periodicTask(t, 1, 1, true)
	_, err := New(FixedPriority, FullyPreemptive, []*task.Task{t1, t2})
	assert.Error(t, err)
}

func TestNew_FPRequiresPriority(t *testing.T) {
	t1 := periodicTask(t, 1, 0, false)
	_, err := New(FixedPriority, FullyPreemptive, []*task.Task{t1})
	assert.Error(t, err)
}

func TestNew_EDFForbidsPriority(t *testing.T) {
	t1 := periodicTask(t, 1, 0, true)
	_, err := New(EarliestDeadlineFirst, FullyPreemptive, []*task.Task{t1})
	assert.Error(t, err)
}

func TestNew_ValidProblem(t *testing.T) {
	t1 := periodicTask(t, 1, 0, true)
	t2 := periodicTask(t, 2, 1, true)
	p, err := New(FixedPriority, FullyPreemptive, []*task.Task{t1, t2})
	require.NoError(t, err)
	assert.Len(t, p.Tasks, 2)
}

func TestTotalUtilization(t *testing.T) {
	t1, err := task.NewPeriodic(1, 10, 2, 8) // util 0.25
	require.NoError(t, err)
	require.NoError(t, t1.SetPriority(0))
	t2, err := task.NewPeriodic(2, 10, 1, 4) // util 0.25
	require.NoError(t, err)
	require.NoError(t, t2.SetPriority(1))

	p, err := New(FixedPriority, FullyPreemptive, []*task.Task{t1, t2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.TotalUtilization(), 1e-9)
}
