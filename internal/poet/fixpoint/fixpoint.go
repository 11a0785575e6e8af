// Package fixpoint implements the generic monotone least-fixpoint search
// used throughout the analysis core (busy-interval bound L, per-offset
// solutions F).
package fixpoint

// DefaultCeiling is the hard ceiling applied when none is supplied. Spec
// §4.2 asks for 10^30, but that is only representable in Python's
// arbitrary-precision integers; a 31-digit literal overflows int64 (max
// ~9.22*10^18). 10^18 is used instead: it is comfortably representable,
// and it leaves headroom below int64's max so that a caller's f (which
// may multiply this value by a blocking term or a task count before the
// next ceiling check) does not itself wrap around.
const DefaultCeiling int64 = 1_000_000_000_000_000_000

// Unbounded is returned by Find when an iterate exceeds the ceiling. Find
// does not otherwise check the values f returns; an overflow inside f is
// not detected.
const Unbounded int64 = -1

// Find iterates t <- f(t) from seed, halting when two consecutive iterates
// coincide, and returns that fixpoint. For a monotone nondecreasing f with
// f(seed) >= seed this is the least t >= seed with f(t) == t; when
// f(seed) < seed the iterates descend and the result is below seed.
// Returns Unbounded if the iterate exceeds ceiling before converging.
//
// The engine does not verify monotonicity; it is the caller's
// responsibility to supply a monotone nondecreasing f (spec §4.2: "The
// engine does not assume convergence; only monotone growth is required for
// correctness").
func Find(f func(int64) int64, seed int64, ceiling int64) int64 {
	t := seed - 1 // force at least one iteration even if f(seed) == seed
	tn := seed
	for t != tn {
		t = tn
		if t > ceiling {
			return Unbounded
		}
		tn = f(t)
	}
	return t
}

// FindDefault calls Find with DefaultCeiling.
func FindDefault(f func(int64) int64, seed int64) int64 {
	return Find(f, seed, DefaultCeiling)
}
