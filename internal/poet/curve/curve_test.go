package curve

import "testing"

func mustNew(t *testing.T, horizon int64, steps []Step) *ArrivalCurve {
	t.Helper()
	c, err := New(horizon, steps)
	if err != nil {
		t.Fatalf("New(%d, %v) failed: %v", horizon, steps, err)
	}
	return c
}

func TestNew_RejectsInvalidCurves(t *testing.T) {
	cases := []struct {
		name    string
		horizon int64
		steps   []Step
	}{
		{"empty steps", 10, nil},
		{"first step not at 1", 10, []Step{{Time: 2, Count: 1}}},
		{"zero count", 10, []Step{{Time: 1, Count: 0}}},
		{"non-monotone time", 10, []Step{{Time: 1, Count: 1}, {Time: 1, Count: 2}}},
		{"non-monotone count", 10, []Step{{Time: 1, Count: 2}, {Time: 2, Count: 2}}},
		{"horizon too small", 2, []Step{{Time: 1, Count: 1}, {Time: 2, Count: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.horizon, tc.steps); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestAt_ZeroAndPeriodicExtension(t *testing.T) {
	c := mustNew(t, 10, []Step{{Time: 1, Count: 1}, {Time: 5, Count: 3}})

	if got := c.At(0); got != 0 {
		t.Errorf("At(0) = %d, want 0", got)
	}

	// Invariant 1 (spec §8): at(delta + h) = at(delta) + n_last
	last := c.Steps()[len(c.Steps())-1].Count
	for _, delta := range []int64{0, 1, 4, 5, 9, 17} {
		got := c.At(delta + c.Horizon())
		want := c.At(delta) + last
		if got != want {
			t.Errorf("At(%d+h) = %d, want At(%d)+%d = %d", delta, got, delta, last, want)
		}
	}
}

func TestAt_SingleStepMatchesPeriodic(t *testing.T) {
	// A single-step curve (1,1) with horizon T: at(delta) must equal ceil(delta/T).
	c := mustNew(t, 10, []Step{{Time: 1, Count: 1}})
	for delta := int64(0); delta < 40; delta++ {
		got := c.At(delta)
		want := (delta + 9) / 10
		if delta == 0 {
			want = 0
		}
		if got != want {
			t.Errorf("At(%d) = %d, want %d", delta, got, want)
		}
	}
}

func TestAt_Monotone(t *testing.T) {
	c := mustNew(t, 20, []Step{{Time: 1, Count: 1}, {Time: 7, Count: 4}, {Time: 15, Count: 9}})
	prev := int64(-1)
	for delta := int64(0); delta < 100; delta++ {
		v := c.At(delta)
		if v < prev {
			t.Fatalf("At not monotone at delta=%d: %d < %d", delta, v, prev)
		}
		prev = v
	}
}

func TestTimeStepAfter_AboveT(t *testing.T) {
	c := mustNew(t, 10, []Step{{Time: 1, Count: 1}, {Time: 4, Count: 2}, {Time: 8, Count: 3}})
	prev := int64(-1)
	for t0 := int64(0); t0 < 40; t0++ {
		next := c.TimeStepAfter(t0)
		if next <= t0 {
			t.Fatalf("TimeStepAfter(%d) = %d, want > %d", t0, next, t0)
		}
		_ = prev
		prev = next
	}
}

func TestTimeStepsWithOffset(t *testing.T) {
	c := mustNew(t, 10, []Step{{Time: 1, Count: 1}, {Time: 4, Count: 2}})
	got := c.TimeStepsWithOffset(100)
	want := []int64{101, 104}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSingle(t *testing.T) {
	c, err := Single(5)
	if err != nil {
		t.Fatalf("Single(5) failed: %v", err)
	}
	if c.Horizon() != 5 {
		t.Errorf("Horizon() = %d, want 5", c.Horizon())
	}
	steps := c.Steps()
	if len(steps) != 1 || steps[0] != (Step{Time: 1, Count: 1}) {
		t.Errorf("Steps() = %v, want [{1 1}]", steps)
	}
}
