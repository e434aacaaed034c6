// Package bench measures the per-call cost of a zero-argument function.
//
// Calling code hands Run a callable and gets back a normalized
// [counters.Aggregate] whose metrics (elapsed time, instructions, cycles,
// branches) are expressed per single call, no matter how many times the
// callable was actually invoked to obtain a stable reading:
//
//	agg, err := bench.Run(func() { workload() }, bench.Options{})
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%.2f ns/call\n", agg.ElapsedNS())
//
// Run works in three phases. Calibration finds the inner multiplier M, the
// number of back-to-back invocations folded into one sample, by growing M in
// powers of ten until a single block takes long enough to stand clear of
// clock and counter resolution. Warm-up runs blocks of M until their
// cumulative time crosses a stability floor, growing the outer sample count N
// tenfold as needed; its data is discarded because the early iterations ran
// on cold caches and unstable clock frequency. Measurement then collects
// exactly N fresh samples and normalizes the result by M.
//
// The whole sequence is synchronous and single-threaded: Run blocks its
// caller, typically for a few hundred milliseconds per callable, and there is
// deliberately no cancellation point inside the measurement loops. Callers
// who need pacing or timeouts apply them between Run calls.
package bench
