// Package suite runs an ordered set of benchmark workloads for nanofire.
//
// The suite executes workloads serially on one goroutine, pacing consecutive
// runs with an optional cooldown so one workload's thermal and frequency
// footprint does not bleed into the next measurement.
//
// # Basic Usage
//
// Create a suite with options and run it:
//
//	opts := suite.Options{
//		Workloads: []suite.Workload{
//			{Name: "fib", Fn: func() { fib(20) }},
//		},
//		Cooldown: 250 * time.Millisecond,
//	}
//	s := suite.New(opts)
//	results, err := s.Run(ctx)
//
// # Workloads
//
// A [Workload] pairs a name with a zero-argument function. The function is
// invoked many times per run; it must be repeatable and should write any
// result it computes to a sink the compiler cannot remove.
//
// # Progress
//
// [Suite.Status] returns a point-in-time snapshot safe to call from other
// goroutines while Run is in flight; the terminal progress reporter and the
// dashboard poll it.
//
// # Cancellation
//
// Run honors context cancellation between workloads. A single workload's
// measurement sequence is not interruptible once started.
package suite
