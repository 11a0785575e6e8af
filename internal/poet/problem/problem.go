// Package problem defines the Problem instance: scheduling policy,
// preemption model, and a validated task set.
package problem

import (
	"fmt"

	"github.com/prosa-project/poet/internal/poet/task"
)

// SchedulingPolicy selects the scheduler used for response-time analysis.
type SchedulingPolicy int

const (
	// FixedPriority (FP) schedules by each task's static Priority.
	FixedPriority SchedulingPolicy = iota
	// EarliestDeadlineFirst (EDF) schedules by absolute deadline.
	EarliestDeadlineFirst
)

func (p SchedulingPolicy) String() string {
	switch p {
	case FixedPriority:
		return "FP"
	case EarliestDeadlineFirst:
		return "EDF"
	default:
		return "unknown"
	}
}

// PreemptionModel selects whether a running job can be preempted by a
// higher-priority arrival.
type PreemptionModel int

const (
	// FullyPreemptive allows preemption at any instant.
	FullyPreemptive PreemptionModel = iota
	// NonPreemptive runs every job to completion once started.
	NonPreemptive
)

func (m PreemptionModel) String() string {
	switch m {
	case FullyPreemptive:
		return "fully-preemptive"
	case NonPreemptive:
		return "non-preemptive"
	default:
		return "unknown"
	}
}

// Problem is a read-only, validated task set under a chosen scheduler.
type Problem struct {
	Policy     SchedulingPolicy
	Preemption PreemptionModel
	Tasks      []*task.Task
}

// New validates and constructs a Problem. Policy == FixedPriority requires
// every task to carry a priority; Policy == EarliestDeadlineFirst forbids
// priorities. Task ids must be unique and the task set non-empty.
func New(policy SchedulingPolicy, preemption PreemptionModel, tasks []*task.Task) (*Problem, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("problem: task set must be non-empty")
	}

	seen := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return nil, fmt.Errorf("problem: duplicate task id %d", t.ID)
		}
		seen[t.ID] = true

		if policy == FixedPriority && !t.HasPriority {
			return nil, fmt.Errorf("problem: task %d requires a priority under FP scheduling", t.ID)
		}
		if policy == EarliestDeadlineFirst && t.HasPriority {
			return nil, fmt.Errorf("problem: task %d must not carry a priority under EDF scheduling", t.ID)
		}
	}

	owned := make([]*task.Task, len(tasks))
	copy(owned, tasks)
	return &Problem{Policy: policy, Preemption: preemption, Tasks: owned}, nil
}

// TotalUtilization sums Utilization() over every task.
func (p *Problem) TotalUtilization() float64 {
	var sum float64
	for _, t := range p.Tasks {
		sum += t.Utilization()
	}
	return sum
}
