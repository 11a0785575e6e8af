// Package curve implements the η-max prefix arrival curve: a step function
// bounding job activations in any window, periodically extended past its
// horizon.
package curve

import "fmt"

// Step is one (time, count) breakpoint of an ArrivalCurve: at(t) jumps to
// Count for all windows of size >= Time.
type Step struct {
	Time  int64
	Count int64
}

// ArrivalCurve is an η-max prefix: a nonempty, strictly monotone step
// function over [1, Horizon) extended periodically beyond Horizon.
//
// Invariants (enforced by New): 1 = Steps[0].Time < Steps[1].Time < ... <
// Steps[len-1].Time < Horizon, and 0 < Steps[0].Count < Steps[1].Count < ...
// Immutable after construction.
type ArrivalCurve struct {
	horizon int64
	steps   []Step
}

// New validates and constructs an ArrivalCurve. Returns an error describing
// the first invariant violated.
func New(horizon int64, steps []Step) (*ArrivalCurve, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("arrival curve: steps must be non-empty")
	}
	if steps[0].Time != 1 {
		return nil, fmt.Errorf("arrival curve: a window of size 1 must be declared (first step time is %d)", steps[0].Time)
	}
	if steps[0].Count < 1 {
		return nil, fmt.Errorf("arrival curve: first step count must be >= 1, got %d", steps[0].Count)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i-1].Time >= steps[i].Time {
			return nil, fmt.Errorf("arrival curve: step times must be strictly increasing (%d >= %d at index %d)", steps[i-1].Time, steps[i].Time, i)
		}
		if steps[i-1].Count >= steps[i].Count {
			return nil, fmt.Errorf("arrival curve: step counts must be strictly increasing (%d >= %d at index %d)", steps[i-1].Count, steps[i].Count, i)
		}
	}
	last := steps[len(steps)-1]
	if last.Time >= horizon {
		return nil, fmt.Errorf("arrival curve: horizon (%d) must be greater than the last step time (%d)", horizon, last.Time)
	}

	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &ArrivalCurve{horizon: horizon, steps: owned}, nil
}

// Horizon returns the curve's period h.
func (c *ArrivalCurve) Horizon() int64 { return c.horizon }

// Steps returns a copy of the curve's steps.
func (c *ArrivalCurve) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// prefixAt returns prefix(tau) = n_j for the largest j with t_j <= tau, else 0.
// Requires 0 <= tau < c.horizon.
func (c *ArrivalCurve) prefixAt(tau int64) int64 {
	var count int64
	for _, s := range c.steps {
		if s.Time <= tau {
			count = s.Count
		} else {
			break
		}
	}
	return count
}

// At returns the curve's upper bound on job activations in any window of
// length delta: at(delta) = floor(delta/h)*n_last + prefix(delta mod h).
func (c *ArrivalCurve) At(delta int64) int64 {
	if delta < 0 {
		return 0
	}
	last := c.steps[len(c.steps)-1].Count
	q := delta / c.horizon
	r := delta % c.horizon
	return q*last + c.prefixAt(r)
}

// TimeStepAfter returns a value t' > t: the last instant before the next
// step of At after t.
//
// Finds the least step strictly above (t mod h) + 1; if none exists within
// the current period, wraps to h + t0 plus the appropriate multiple of h,
// then subtracts 1 so the returned value is the last instant before the
// next step (matching the convention that At is constant on [t_i, t_{i+1}))).
func (c *ArrivalCurve) TimeStepAfter(t int64) int64 {
	offset := (t / c.horizon) * c.horizon
	within := t % c.horizon

	next := int64(-1)
	for _, s := range c.steps {
		if s.Time > within+1 {
			next = s.Time
			break
		}
	}
	if next == -1 {
		next = c.horizon + c.steps[0].Time
	}
	return offset + next - 1
}

// TimeStepsWithOffset returns [t_i + o] for every step t_i.
func (c *ArrivalCurve) TimeStepsWithOffset(o int64) []int64 {
	out := make([]int64, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.Time + o
	}
	return out
}

// Single builds the one-step arrival curve (1,1) over horizon h, the
// representation used for periodic and sporadic tasks (spec §3, "Derived").
func Single(horizon int64) (*ArrivalCurve, error) {
	return New(horizon, []Step{{Time: 1, Count: 1}})
}
