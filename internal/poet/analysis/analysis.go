// Package analysis drives the per-task response-time analysis across the
// four scheduler combinations (FP/EDF x fully-preemptive/non-preemptive),
// taking each task through max-busy-interval, search-space
// construction, per-offset fixpoint solutions, and response-time
// extraction (spec §4.4-§4.7, §5).
package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/prosa-project/poet/internal/poet/edf"
	"github.com/prosa-project/poet/internal/poet/fp"
	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/task"
)

// TaskAnalysisResults holds L, the search space, the per-offset fixpoint
// solutions, and the extracted response time for a single task.
//
// Under FP, SS and Fs are flat ([]int64); under EDF they are nested
// ([][]int64), one inner list per interferer. Callers switch on
// Problem.Policy to know which accessor to use; FlatFs/FlatSS give a
// policy-agnostic flattened view for display and statistics.
type TaskAnalysisResults struct {
	Task  *task.Task
	L     int64
	SSFP  []int64
	SSEDF [][]int64
	FsFP  []int64
	FsEDF [][]int64
	R     int64
}

// FlatSS returns every offset in the search space regardless of policy
// shape.
func (r *TaskAnalysisResults) FlatSS() []int64 {
	if r.SSFP != nil {
		return r.SSFP
	}
	var out []int64
	for _, perInterferer := range r.SSEDF {
		out = append(out, perInterferer...)
	}
	return out
}

// FlatFs returns every per-offset fixpoint solution regardless of policy
// shape, in the same order as FlatSS — the certificate emitter needs a
// single flat list paired with the flat search space.
func (r *TaskAnalysisResults) FlatFs() []int64 {
	if r.FsFP != nil {
		return r.FsFP
	}
	var out []int64
	for _, perInterferer := range r.FsEDF {
		out = append(out, perInterferer...)
	}
	return out
}

// SSSize returns the total number of candidate offsets examined.
func (r *TaskAnalysisResults) SSSize() int {
	if r.SSFP != nil {
		return len(r.SSFP)
	}
	n := 0
	for _, perInterferer := range r.SSEDF {
		n += len(perInterferer)
	}
	return n
}

// ExactSize returns the number of distinct offsets strictly below L, per
// the original's "exact search space" diagnostic.
func (r *TaskAnalysisResults) ExactSize() int {
	seen := make(map[int64]bool)
	for _, a := range r.FlatSS() {
		if a < r.L {
			seen[a] = true
		}
	}
	return len(seen)
}

func (r *TaskAnalysisResults) String() string {
	return fmt.Sprintf("L: %d | R: %d | SS size: %d | exact size: %d", r.L, r.R, r.SSSize(), r.ExactSize())
}

// AnalysisResults aggregates every task's results under one Problem.
type AnalysisResults struct {
	Problem *problem.Problem
	Results map[int64]*TaskAnalysisResults
}

// ResponseTimeIsBounded reports whether every task's R is bounded
// (strictly positive).
func (a *AnalysisResults) ResponseTimeIsBounded() bool {
	for _, t := range a.Problem.Tasks {
		if a.Results[t.ID].R <= 0 {
			return false
		}
	}
	return true
}

// AllDeadlinesRespected reports whether every task's R is bounded and does
// not exceed its deadline.
func (a *AnalysisResults) AllDeadlinesRespected() bool {
	for _, t := range a.Problem.Tasks {
		res := a.Results[t.ID]
		if res.R <= 0 || res.R > t.Deadline {
			return false
		}
	}
	return true
}

// String renders the results the way the reference analyzer's report does.
func (a *AnalysisResults) String() string {
	s := "\n#### Analysis Results #### \n"
	for _, t := range a.Problem.Tasks {
		s += fmt.Sprintf("%s : %s \n", t.Name(), a.Results[t.ID])
	}
	s += "##########################\n"
	return s
}

// Analyze runs the response-time analysis for every task in p.Tasks
// concurrently, one goroutine per task (the tasks' results are
// independent: each analyzes task t against the full set, read-only). A
// failure in any one task's analysis is returned once every goroutine has
// finished; the other analyses are not interrupted. In practice analyzeOne never errors (the fixpoint engine
// always terminates with either a bound or Unbounded), but the errgroup
// shape keeps the driver uniform with the toolchain's worker pool.
func Analyze(ctx context.Context, p *problem.Problem) (*AnalysisResults, error) {
	resultsByIndex := make([]*TaskAnalysisResults, len(p.Tasks))

	g, _ := errgroup.WithContext(ctx)
	for i, t := range p.Tasks {
		i, t := i, t
		g.Go(func() error {
			res, err := analyzeOne(p, t)
			if err != nil {
				return fmt.Errorf("task %d: %w", t.ID, err)
			}
			resultsByIndex[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[int64]*TaskAnalysisResults, len(p.Tasks))
	for i, t := range p.Tasks {
		results[t.ID] = resultsByIndex[i]
	}

	return &AnalysisResults{Problem: p, Results: results}, nil
}

func analyzeOne(p *problem.Problem, t *task.Task) (*TaskAnalysisResults, error) {
	switch p.Policy {
	case problem.FixedPriority:
		return analyzeFP(p, t)
	case problem.EarliestDeadlineFirst:
		return analyzeEDF(p, t)
	default:
		return nil, fmt.Errorf("unsupported scheduling policy %v", p.Policy)
	}
}

func analyzeFP(p *problem.Problem, t *task.Task) (*TaskAnalysisResults, error) {
	var blocking int64
	if p.Preemption == problem.NonPreemptive {
		blocking = fp.ComputeBlockingBounds(p.Tasks)[t.ID]
	}

	l := fp.MaxBusyInterval(p.Tasks, t, blocking)
	if l <= 0 {
		return &TaskAnalysisResults{Task: t, L: l, R: -1}, nil
	}

	ss := fp.SearchSpace(t, l)
	fs := make([]int64, len(ss))
	solved := true
	for i, a := range ss {
		var f int64
		if p.Preemption == problem.NonPreemptive {
			f = fp.NonPreemptiveF(p.Tasks, t, a, blocking)
		} else {
			f = fp.FullyPreemptiveF(p.Tasks, t, a)
		}
		if f < 0 {
			solved = false
		}
		fs[i] = f
	}

	r := int64(-1)
	if solved {
		r = fp.ResponseTime(fs, t, p.Preemption == problem.NonPreemptive)
	}

	return &TaskAnalysisResults{Task: t, L: l, SSFP: ss, FsFP: fs, R: r}, nil
}

func analyzeEDF(p *problem.Problem, t *task.Task) (*TaskAnalysisResults, error) {
	var blocking int64
	if p.Preemption == problem.NonPreemptive {
		blocking = edf.ComputeBlockingBounds(p.Tasks)[t.ID]
	}

	l := edf.MaxBusyInterval(p.Tasks)
	if l <= 0 {
		return &TaskAnalysisResults{Task: t, L: l, R: -1}, nil
	}

	ss := edf.SearchSpace(p.Tasks, t, l)
	fs := make([][]int64, len(ss))
	solved := true
	for i, perInterferer := range ss {
		row := make([]int64, len(perInterferer))
		for j, a := range perInterferer {
			var f int64
			if p.Preemption == problem.NonPreemptive {
				f = edf.NonPreemptiveF(p.Tasks, t, a, blocking)
			} else {
				f = edf.FullyPreemptiveF(p.Tasks, t, a)
			}
			if f < 0 {
				solved = false
			}
			row[j] = f
		}
		fs[i] = row
	}

	r := int64(-1)
	if solved {
		r = edf.ResponseTime(fs, t, p.Preemption == problem.NonPreemptive)
	}

	return &TaskAnalysisResults{Task: t, L: l, SSEDF: ss, FsEDF: fs, R: r}, nil
}
