// Package task defines the Task data model: deadline, WCET, optional
// priority, and an arrival model (periodic, sporadic, or arrival curve).
package task

import (
	"fmt"

	"github.com/prosa-project/poet/internal/poet/curve"
)

// ArrivalKind tags which arrival model a Task carries.
type ArrivalKind int

const (
	// Periodic tasks activate exactly once every Period.
	Periodic ArrivalKind = iota
	// Sporadic tasks activate at least MinInterarrival apart.
	Sporadic
	// ArrivalCurveKind tasks are bounded by an explicit ArrivalCurve.
	ArrivalCurveKind
)

func (k ArrivalKind) String() string {
	switch k {
	case Periodic:
		return "periodic"
	case Sporadic:
		return "sporadic"
	case ArrivalCurveKind:
		return "arrival-curve"
	default:
		return "unknown"
	}
}

// Task is a single real-time task: deadline, WCET, optional fixed priority,
// and exactly one arrival model.
//
// Periodic and sporadic tasks are represented to the analyzer via an
// internal one-step arrival curve (1,1) over horizon T (spec §3,
// "Derived") — Curve() always returns a usable curve regardless of Kind;
// Period/MinInterarrival are retained only for emission (certificate
// templates distinguish periodic-like tasks from curve tasks).
type Task struct {
	ID       int64
	Deadline int64
	WCET     int64

	// Priority is only meaningful under FP scheduling; HasPriority reports
	// whether it was set.
	Priority    int64
	HasPriority bool

	kind          ArrivalKind
	period        int64 // set for Periodic/Sporadic; the declared T or T_min
	arrivalCurve  *curve.ArrivalCurve
	declaredCurve *curve.ArrivalCurve // the curve as declared in input, for ArrivalCurveKind only
}

// NewPeriodic builds a periodic task with period T.
func NewPeriodic(id, deadline, wcet, period int64) (*Task, error) {
	return newTaskWithPeriod(id, deadline, wcet, period, Periodic)
}

// NewSporadic builds a sporadic task with minimum interarrival time T_min.
func NewSporadic(id, deadline, wcet, minInterarrival int64) (*Task, error) {
	return newTaskWithPeriod(id, deadline, wcet, minInterarrival, Sporadic)
}

func newTaskWithPeriod(id, deadline, wcet, period int64, kind ArrivalKind) (*Task, error) {
	if deadline <= 0 {
		return nil, fmt.Errorf("task %d: deadline must be positive, got %d", id, deadline)
	}
	if wcet <= 0 {
		return nil, fmt.Errorf("task %d: WCET must be positive, got %d", id, wcet)
	}
	if period <= 0 {
		return nil, fmt.Errorf("task %d: period/min-interarrival must be positive, got %d", id, period)
	}
	ac, err := curve.Single(period)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", id, err)
	}
	return &Task{
		ID:           id,
		Deadline:     deadline,
		WCET:         wcet,
		kind:         kind,
		period:       period,
		arrivalCurve: ac,
	}, nil
}

// NewArrivalCurveTask builds a task bounded by an explicit arrival curve.
func NewArrivalCurveTask(id, deadline, wcet int64, ac *curve.ArrivalCurve) (*Task, error) {
	if deadline <= 0 {
		return nil, fmt.Errorf("task %d: deadline must be positive, got %d", id, deadline)
	}
	if wcet <= 0 {
		return nil, fmt.Errorf("task %d: WCET must be positive, got %d", id, wcet)
	}
	if ac == nil {
		return nil, fmt.Errorf("task %d: arrival curve must not be nil", id)
	}
	return &Task{
		ID:            id,
		Deadline:      deadline,
		WCET:          wcet,
		kind:          ArrivalCurveKind,
		arrivalCurve:  ac,
		declaredCurve: ac,
	}, nil
}

// SetPriority assigns the fixed-priority value (lower number = higher
// priority, per the FP recurrence's definition — spec §4.5).
func (t *Task) SetPriority(p int64) error {
	if p < 0 {
		return fmt.Errorf("task %d: priority must be non-negative, got %d", t.ID, p)
	}
	t.Priority = p
	t.HasPriority = true
	return nil
}

// Kind reports the task's arrival model.
func (t *Task) Kind() ArrivalKind { return t.kind }

// Period returns the declared period or minimum interarrival time.
// Only meaningful when Kind() is Periodic or Sporadic.
func (t *Task) Period() int64 { return t.period }

// DeclaredCurve returns the curve as given in the input, for
// ArrivalCurveKind tasks only (nil otherwise). Used by the certificate
// emitter, which must distinguish periodic-like tasks from curve tasks.
func (t *Task) DeclaredCurve() *curve.ArrivalCurve { return t.declaredCurve }

// Curve returns the arrival curve used for RBF math — the declared curve
// for ArrivalCurveKind tasks, or the single-step (1,1) curve for
// periodic/sporadic tasks.
func (t *Task) Curve() *curve.ArrivalCurve { return t.arrivalCurve }

// Name returns the task's certificate-file base name, e.g. "tsk01".
func (t *Task) Name() string { return fmt.Sprintf("tsk%02d", t.ID) }

// RBF is the request-bound function: workload demanded in a window of
// length delta. rbf(0) = 0; otherwise curve.At(delta) * WCET.
func (t *Task) RBF(delta int64) int64 {
	if delta <= 0 {
		return 0
	}
	return t.arrivalCurve.At(delta) * t.WCET
}

// Utilization returns n_last*WCET/h for the task's underlying arrival
// curve, the limit of RBF(delta)/delta as delta -> infinity.
//
// The legacy source computed this via `horizon * 10 ^ 20` (XOR, not
// exponentiation, per spec §9 Open Questions) and took a literal limit;
// that was a bug. Utilization is exactly n_last*WCET/h, computed directly.
func (t *Task) Utilization() float64 {
	steps := t.arrivalCurve.Steps()
	last := steps[len(steps)-1].Count
	return float64(last) * float64(t.WCET) / float64(t.arrivalCurve.Horizon())
}

// NumericalMagnitude is a rough per-task scale used only for diagnostics
// and statistics (not part of the analysis core's invariants).
func (t *Task) NumericalMagnitude() float64 {
	return float64(t.WCET+t.arrivalCurve.Horizon()+t.Deadline) / 3.0
}
