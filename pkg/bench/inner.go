package bench

import "time"

// calibrateInner finds the inner multiplier: the smallest power of ten whose
// block of invocations takes at least minBlock to run, probing one block per
// candidate. When no candidate below limit reaches the floor the multiplier
// clamps to limit without a further probe, so a callable that never produces
// measurable time still calibrates in a bounded number of steps.
func calibrateInner(fn func(), col Collector, limit int, minBlock time.Duration) (int, error) {
	m := 1
	for m < limit {
		s, err := measureBlock(fn, col, m)
		if err != nil {
			return 0, err
		}
		if s.Elapsed >= minBlock {
			return m, nil
		}
		m *= 10
	}
	if m > limit {
		m = limit
	}
	return m, nil
}
