package analysis

import (
	"context"
	"testing"

	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/task"
	"github.com/stretchr/testify/require"
)

func buildFPProblem(t *testing.T, preemption problem.PreemptionModel) *problem.Problem {
	t.Helper()
	t1, err := task.NewPeriodic(1, 5, 1, 5)
	require.NoError(t, err)
	require.NoError(t, t1.SetPriority(1))

	t2, err := task.NewPeriodic(2, 10, 2, 10)
	require.NoError(t, err)
	require.NoError(t, t2.SetPriority(2))

	p, err := problem.New(problem.FixedPriority, preemption, []*task.Task{t1, t2})
	require.NoError(t, err)
	return p
}

func buildEDFProblem(t *testing.T, preemption problem.PreemptionModel) *problem.Problem {
	t.Helper()
	t1, err := task.NewPeriodic(1, 5, 1, 5)
	require.NoError(t, err)
	t2, err := task.NewPeriodic(2, 10, 2, 10)
	require.NoError(t, err)

	p, err := problem.New(problem.EarliestDeadlineFirst, preemption, []*task.Task{t1, t2})
	require.NoError(t, err)
	return p
}

func TestAnalyze_FPFullyPreemptive_AllDeadlinesRespected(t *testing.T) {
	p := buildFPProblem(t, problem.FullyPreemptive)
	res, err := Analyze(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)

	if !res.AllDeadlinesRespected() {
		t.Errorf("expected all deadlines respected, got %s", res)
	}
	if !res.ResponseTimeIsBounded() {
		t.Errorf("expected bounded response times")
	}
}

func TestAnalyze_EDFFullyPreemptive_AllDeadlinesRespected(t *testing.T) {
	p := buildEDFProblem(t, problem.FullyPreemptive)
	res, err := Analyze(context.Background(), p)
	require.NoError(t, err)

	for _, tsk := range p.Tasks {
		r := res.Results[tsk.ID]
		if r.SSEDF == nil {
			t.Errorf("task %d: expected EDF nested search space, got nil", tsk.ID)
		}
	}
	if !res.AllDeadlinesRespected() {
		t.Errorf("expected all deadlines respected, got %s", res)
	}
}

func TestAnalyze_UnschedulableHighUtilization(t *testing.T) {
	t1, err := task.NewPeriodic(1, 5, 5, 5)
	require.NoError(t, err)
	require.NoError(t, t1.SetPriority(1))
	p, err := problem.New(problem.FixedPriority, problem.FullyPreemptive, []*task.Task{t1})
	require.NoError(t, err)

	res, err := Analyze(context.Background(), p)
	require.NoError(t, err)

	r := res.Results[t1.ID]
	if r.L != -1 || r.R != -1 {
		t.Errorf("expected unbounded L and R, got L=%d R=%d", r.L, r.R)
	}
	if res.ResponseTimeIsBounded() {
		t.Errorf("expected response time to be reported unbounded")
	}
}

func TestAnalyze_NonPreemptiveBlockingDelaysResponse(t *testing.T) {
	pPreempt := buildFPProblem(t, problem.FullyPreemptive)
	resPreempt, err := Analyze(context.Background(), pPreempt)
	require.NoError(t, err)

	pNonPreempt := buildFPProblem(t, problem.NonPreemptive)
	resNonPreempt, err := Analyze(context.Background(), pNonPreempt)
	require.NoError(t, err)

	rPreempt := resPreempt.Results[int64(1)].R
	rNonPreempt := resNonPreempt.Results[int64(1)].R
	if rNonPreempt < rPreempt {
		t.Errorf("non-preemptive R = %d should be >= preemptive R = %d", rNonPreempt, rPreempt)
	}
}

func TestTaskAnalysisResults_SSSizeAndExactSize(t *testing.T) {
	p := buildFPProblem(t, problem.FullyPreemptive)
	res, err := Analyze(context.Background(), p)
	require.NoError(t, err)

	r := res.Results[int64(1)]
	if r.SSSize() != len(r.SSFP) {
		t.Errorf("SSSize() = %d, want %d", r.SSSize(), len(r.SSFP))
	}
	if r.ExactSize() > r.SSSize() {
		t.Errorf("ExactSize() = %d should not exceed SSSize() = %d", r.ExactSize(), r.SSSize())
	}
}
