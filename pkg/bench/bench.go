package bench

import (
	"time"

	"github.com/torosent/nanofire/internal/dispatch"
	"github.com/torosent/nanofire/pkg/counters"
)

// Defaults applied by Run for zero-valued Options fields.
const (
	DefaultMinRepeat    = 10
	DefaultMaxRepeat    = 1_000_000
	DefaultMinTime      = 400 * time.Millisecond
	DefaultInnerCap     = 10_000
	DefaultMinBlockTime = 2 * time.Microsecond
)

// ErrUnsupportedCount reports an inner multiplier the dispatcher cannot
// execute. It aborts the whole run: a multiplier below one is a configuration
// bug, not a condition to measure around.
var ErrUnsupportedCount = dispatch.ErrUnsupportedCount

// Collector is the sampling window consumed by Run. Start opens a window,
// End closes it and returns everything that executed in between as one
// sample. Calls always pair, even when the run aborts. *counters.Collector
// satisfies the interface; tests substitute deterministic fakes.
type Collector interface {
	Start()
	End() counters.Sample
}

// Phase identifies where in the benchmarking sequence a run currently is.
type Phase int

const (
	// PhaseCalibrate probes the callable with growing inner multipliers.
	PhaseCalibrate Phase = iota
	// PhaseWarmup runs discarded samples until the time floor is met.
	PhaseWarmup
	// PhaseMeasure collects the samples that make up the returned result.
	PhaseMeasure
)

func (p Phase) String() string {
	switch p {
	case PhaseCalibrate:
		return "calibrate"
	case PhaseWarmup:
		return "warmup"
	case PhaseMeasure:
		return "measure"
	default:
		return "unknown"
	}
}

// Options configures one Run call. The zero value selects the defaults
// above. Options are read once at the start of Run and never mutated.
type Options struct {
	// MinRepeat is the lower bound on outer samples. Zero selects the
	// default; values below one are clamped to a single sample, the
	// smallest meaningful run.
	MinRepeat int

	// MinTime is the cumulative elapsed time warm-up must accumulate
	// before the sample count is considered large enough.
	MinTime time.Duration

	// MaxRepeat is the hard ceiling on outer samples, bounding worst-case
	// run duration.
	MaxRepeat int

	// InnerCap is the hard ceiling on the inner multiplier, bounding
	// calibration cost for callables that never produce a measurable
	// block (for example, ones the compiler optimized away).
	InnerCap int

	// MinBlockTime is the elapsed time a single block of M invocations
	// must reach before its measurement is trusted.
	MinBlockTime time.Duration

	// Collector supplies measurement windows. When nil, Run opens a
	// hardware counter collector for the calling thread and closes it
	// before returning.
	Collector Collector

	// OnPhase, when set, is called as each phase begins. It runs on the
	// benchmarking goroutine and must be cheap; it exists for progress
	// display and tracing, not for measurement.
	OnPhase func(Phase)

	// OnSize, when set, is called when calibration fixes the inner
	// multiplier and again each time warm-up extends the outer sample
	// count. Same constraints as OnPhase.
	OnSize func(inner, outer int)
}

func (o *Options) normalize() {
	if o.MinRepeat == 0 {
		o.MinRepeat = DefaultMinRepeat
	}
	if o.MinTime == 0 {
		o.MinTime = DefaultMinTime
	}
	if o.MaxRepeat == 0 {
		o.MaxRepeat = DefaultMaxRepeat
	}
	if o.InnerCap == 0 {
		o.InnerCap = DefaultInnerCap
	}
	if o.MinBlockTime == 0 {
		o.MinBlockTime = DefaultMinBlockTime
	}
}

// Run benchmarks fn and returns per-call metrics. It calibrates the inner
// multiplier, warms up while sizing the outer sample count, measures, and
// normalizes, as described in the package documentation. fn is invoked many
// times; it must be safe to call repeatedly and should not retain state that
// makes later calls cheaper than earlier ones.
//
// Run blocks the calling goroutine for the full sequence. The returned
// aggregate is the only thing the caller keeps; its Count reports the outer
// sample count and its InnerCount the multiplier that was calibrated.
func Run(fn func(), opts Options) (*counters.Aggregate, error) {
	opts.normalize()

	col := opts.Collector
	if col == nil {
		c := counters.NewCollector()
		defer c.Close()
		col = c
	}

	opts.phase(PhaseCalibrate)
	m, err := calibrateInner(fn, col, opts.InnerCap, opts.MinBlockTime)
	if err != nil {
		return nil, err
	}

	agg, err := calibrateAndMeasure(fn, col, m, opts)
	if err != nil {
		return nil, err
	}
	if err := agg.Normalize(m); err != nil {
		return nil, err
	}
	return agg, nil
}

func (o *Options) phase(p Phase) {
	if o.OnPhase != nil {
		o.OnPhase(p)
	}
}

func (o *Options) size(inner, outer int) {
	if o.OnSize != nil {
		o.OnSize(inner, outer)
	}
}

// measureBlock times one block of m invocations. The collector window is
// closed even when dispatch fails so Start/End stay paired.
func measureBlock(fn func(), col Collector, m int) (counters.Sample, error) {
	col.Start()
	err := dispatch.CallNTimes(fn, m)
	s := col.End()
	if err != nil {
		return counters.Sample{}, err
	}
	return s, nil
}
