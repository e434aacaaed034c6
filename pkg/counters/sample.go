package counters

import "time"

// Sample holds one measured window: wall-clock duration plus the hardware
// event counts that accumulated inside it. Counter fields are zero when the
// collector could not observe them; zero values pass through aggregation
// untouched so downstream consumers can tell "not measured" from real counts
// only via Collector.Supported.
//
// Counts are float64 rather than integers because a normalized sample holds
// per-call averages, which are fractional as soon as the inner repetition
// count exceeds one.
type Sample struct {
	Elapsed      time.Duration
	Instructions float64
	Cycles       float64
	Branches     float64
	BranchMisses float64
}
