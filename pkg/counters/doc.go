// Package counters provides the measurement substrate for nanofire: raw
// samples, hardware performance counter collection, and aggregation.
//
// # Collector
//
// A [Collector] measures everything that executes between Start and End and
// returns the window as a [Sample]:
//
//	col := counters.NewCollector()
//	defer col.Close()
//
//	col.Start()
//	workload()
//	sample := col.End()
//
// On Linux the collector reads retired instructions, CPU cycles, branches and
// branch misses for the calling thread through perf_event_open, alongside
// monotonic elapsed time. When hardware counters are unavailable (permissions,
// virtualized hosts, unsupported platforms) the collector degrades to
// elapsed-only samples and [Collector.Supported] reports false; counter values
// stay zero and are never fabricated.
//
// A collector belongs to one benchmarking sequence at a time. Start and End
// must pair, and the instance must not be shared across goroutines: the
// counter group is bound to the OS thread the collector was created on.
//
// # Aggregate
//
// An [Aggregate] folds samples into summary statistics (totals, best/worst,
// an HdrHistogram of per-sample elapsed time) and rescales them to a per-call
// basis once the inner repetition count is known:
//
//	agg := counters.NewAggregate()
//	agg.Fold(sample)
//	agg.Normalize(m) // metrics are per single call from here on
package counters
