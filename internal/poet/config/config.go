// Package config reads a YAML problem-instance file into a validated
// problem.Problem: scheduling policy, preemption model, and a task set
// (spec §6, "Input file (YAML)"). Unknown keys are rejected outright.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prosa-project/poet/internal/poet/curve"
	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/task"
)

// ParseError carries a location string describing what was being parsed
// when err occurred, replacing the legacy parser's module-level status
// string with an explicit, composable value (spec §9, design note "Global
// mutable parser state").
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("while %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func wrap(location string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Location: location, Err: err}
}

type rawTask struct {
	ID              *int64    `yaml:"id"`
	WCET            *int64    `yaml:"worst-case execution time"`
	Deadline        *int64    `yaml:"deadline"`
	Period          *int64    `yaml:"period"`
	MinInterarrival *int64    `yaml:"min interarrival"`
	ArrivalCurve    *rawCurve `yaml:"arrival curve"`
	Priority        *int64    `yaml:"priority"`
}

type rawProblem struct {
	SchedulingPolicy string    `yaml:"scheduling policy"`
	PreemptionModel  string    `yaml:"preemption model"`
	TaskSet          []rawTask `yaml:"task set"`
}

// rawCurve decodes the (h, [[t,n], ...]) pair form required by spec §3/§6.
type rawCurve struct {
	Horizon int64
	Steps   [][2]int64
}

// UnmarshalYAML implements custom decoding for the two-element
// (horizon, steps) sequence form of an arrival curve.
func (c *rawCurve) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return fmt.Errorf("curves must be of the form (h, [[t1,n1], ...])")
	}
	if err := node.Content[0].Decode(&c.Horizon); err != nil {
		return fmt.Errorf("curve horizon must be an integer: %w", err)
	}
	var steps [][2]int64
	if err := node.Content[1].Decode(&steps); err != nil {
		return fmt.Errorf("curve steps must be a list of [t, n] pairs: %w", err)
	}
	c.Steps = steps
	return nil
}

// Read opens path and parses it into a validated problem.Problem.
func Read(path string) (*problem.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap("opening the file", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a problem instance from r.
func Parse(r io.Reader) (*problem.Problem, error) {
	var raw rawProblem
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, wrap("parsing the root document", err)
	}

	policy, err := parsePolicy(raw.SchedulingPolicy)
	if err != nil {
		return nil, wrap("parsing the scheduling policy", err)
	}
	preemption, err := parsePreemption(raw.PreemptionModel)
	if err != nil {
		return nil, wrap("parsing the preemption model", err)
	}
	if len(raw.TaskSet) == 0 {
		return nil, wrap("parsing the task set", fmt.Errorf("'task set' is required and cannot be empty"))
	}

	expectPriority := policy == problem.FixedPriority
	tasks := make([]*task.Task, 0, len(raw.TaskSet))
	for i, rt := range raw.TaskSet {
		t, err := parseTask(rt, expectPriority)
		if err != nil {
			return nil, wrap(fmt.Sprintf("parsing task %d of the task set", i), err)
		}
		tasks = append(tasks, t)
	}

	p, err := problem.New(policy, preemption, tasks)
	if err != nil {
		return nil, wrap("finishing the task set creation", err)
	}
	return p, nil
}

func parsePolicy(s string) (problem.SchedulingPolicy, error) {
	switch s {
	case "FP", "fixed-priority":
		return problem.FixedPriority, nil
	case "EDF", "earliest-deadline-first":
		return problem.EarliestDeadlineFirst, nil
	case "":
		return 0, fmt.Errorf("'scheduling policy' is required")
	default:
		return 0, fmt.Errorf("'scheduling policy' has value %q, which is not valid; use one of: FP, fixed-priority, EDF, earliest-deadline-first", s)
	}
}

func parsePreemption(s string) (problem.PreemptionModel, error) {
	switch s {
	case "FP", "fully-preemptive":
		return problem.FullyPreemptive, nil
	case "NP", "non-preemptive":
		return problem.NonPreemptive, nil
	case "LP", "limited-preemptive", "FNPS", "floating-non-preemptive-segments":
		return 0, fmt.Errorf("preemption model %q is not supported", s)
	case "":
		return 0, fmt.Errorf("'preemption model' is required")
	default:
		return 0, fmt.Errorf("'preemption model' has value %q, which is not valid; use one of: FP, fully-preemptive, NP, non-preemptive", s)
	}
}

func parseTask(rt rawTask, expectPriority bool) (*task.Task, error) {
	if rt.ID == nil {
		return nil, fmt.Errorf("'id' is required")
	}
	if rt.Deadline == nil {
		return nil, fmt.Errorf("'deadline' is required")
	}

	arrivalModels := 0
	if rt.Period != nil {
		arrivalModels++
	}
	if rt.MinInterarrival != nil {
		arrivalModels++
	}
	if rt.ArrivalCurve != nil {
		arrivalModels++
	}
	if arrivalModels != 1 {
		return nil, fmt.Errorf("exactly one of 'period', 'min interarrival', 'arrival curve' must be specified")
	}

	if (rt.Priority != nil) != expectPriority {
		if expectPriority {
			return nil, fmt.Errorf("task %d: a priority is required under FP scheduling", *rt.ID)
		}
		return nil, fmt.Errorf("task %d: a priority must not be provided under EDF scheduling", *rt.ID)
	}

	var t *task.Task
	var err error
	switch {
	case rt.Period != nil:
		if rt.WCET == nil {
			return nil, fmt.Errorf("task %d: 'worst-case execution time' is required when 'period' is specified", *rt.ID)
		}
		t, err = task.NewPeriodic(*rt.ID, *rt.Deadline, *rt.WCET, *rt.Period)
	case rt.MinInterarrival != nil:
		if rt.WCET == nil {
			return nil, fmt.Errorf("task %d: 'worst-case execution time' is required when 'min interarrival' is specified", *rt.ID)
		}
		t, err = task.NewSporadic(*rt.ID, *rt.Deadline, *rt.WCET, *rt.MinInterarrival)
	case rt.ArrivalCurve != nil:
		if rt.WCET == nil {
			return nil, fmt.Errorf("task %d: 'worst-case execution time' is required when 'arrival curve' is specified", *rt.ID)
		}
		var ac *curve.ArrivalCurve
		ac, err = buildCurve(*rt.ArrivalCurve)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", *rt.ID, err)
		}
		t, err = task.NewArrivalCurveTask(*rt.ID, *rt.Deadline, *rt.WCET, ac)
	}
	if err != nil {
		return nil, err
	}

	if rt.Priority != nil {
		if err := t.SetPriority(*rt.Priority); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func buildCurve(rc rawCurve) (*curve.ArrivalCurve, error) {
	steps := make([]curve.Step, len(rc.Steps))
	for i, s := range rc.Steps {
		steps[i] = curve.Step{Time: s[0], Count: s[1]}
	}
	return curve.New(rc.Horizon, steps)
}
