package task

import (
	"testing"

	"github.com/prosa-project/poet/internal/poet/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriodic_RBFMatchesCeilDivision(t *testing.T) {
	tsk, err := NewPeriodic(1, 10, 2, 5)
	require.NoError(t, err)

	// rbf(delta) = ceil(delta/T) * C for periodic tasks.
	cases := []struct {
		delta int64
		want  int64
	}{
		{0, 0},
		{1, 2},
		{5, 2},
		{6, 4},
		{10, 4},
		{11, 6},
	}
	for _, c := range cases {
		got := tsk.RBF(c.delta)
		assert.Equalf(t, c.want, got, "RBF(%d)", c.delta)
	}
}

func TestNewPeriodic_RejectsInvalidParams(t *testing.T) {
	_, err := NewPeriodic(1, 0, 1, 1)
	assert.Error(t, err)
	_, err = NewPeriodic(1, 1, 0, 1)
	assert.Error(t, err)
	_, err = NewPeriodic(1, 1, 1, 0)
	assert.Error(t, err)
}

func TestArrivalCurveTask_SingleStepEquivalentToPeriodic(t *testing.T) {
	// spec §8 boundary behavior 9: a task with curve (1,1) and horizon T is
	// analytically equivalent to a periodic task of period T.
	ac, err := curve.New(10, []curve.Step{{Time: 1, Count: 1}})
	require.NoError(t, err)
	curveTask, err := NewArrivalCurveTask(1, 10, 1, ac)
	require.NoError(t, err)

	periodicTask, err := NewPeriodic(1, 10, 1, 10)
	require.NoError(t, err)

	for delta := int64(0); delta < 50; delta++ {
		assert.Equal(t, periodicTask.RBF(delta), curveTask.RBF(delta), "delta=%d", delta)
	}
}

func TestRBF_Monotone(t *testing.T) {
	// spec §8 invariant 2: delta <= delta' => rbf(delta) <= rbf(delta').
	tsk, err := NewPeriodic(1, 100, 3, 7)
	require.NoError(t, err)
	prev := int64(-1)
	for delta := int64(0); delta < 200; delta++ {
		v := tsk.RBF(delta)
		assert.GreaterOrEqualf(t, v, prev, "RBF not monotone at delta=%d", delta)
		prev = v
	}
}

func TestSetPriority(t *testing.T) {
	tsk, err := NewPeriodic(1, 10, 1, 10)
	require.NoError(t, err)
	assert.False(t, tsk.HasPriority)

	require.NoError(t, tsk.SetPriority(3))
	assert.True(t, tsk.HasPriority)
	assert.Equal(t, int64(3), tsk.Priority)

	assert.Error(t, tsk.SetPriority(-1))
}

func TestUtilization(t *testing.T) {
	tsk, err := NewPeriodic(1, 10, 2, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, tsk.Utilization(), 1e-9)
}

func TestName(t *testing.T) {
	tsk, err := NewPeriodic(7, 10, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "tsk07", tsk.Name())
}
