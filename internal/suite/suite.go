package suite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/torosent/nanofire/internal/tracing"
	"github.com/torosent/nanofire/pkg/bench"
	"github.com/torosent/nanofire/pkg/counters"
)

// Result is the outcome of one workload run.
type Result struct {
	Name      string
	Aggregate *counters.Aggregate
	Duration  time.Duration // wall time including calibration and warm-up
}

// Status is a point-in-time snapshot of suite progress.
type Status struct {
	Total      int
	Completed  int
	Current    string // name of the running workload, empty when idle
	Phase      bench.Phase
	InnerCount int // calibrated multiplier of the running workload, zero until calibrated
	Samples    int // planned sample count of the running workload, zero until calibrated
	Results    []Result
	Elapsed    time.Duration
}

// Suite coordinates serial execution of benchmark workloads with cooldown
// pacing between them.
type Suite struct {
	opt     Options
	limiter *rate.Limiter

	mu        sync.Mutex
	current   string
	phase     bench.Phase
	inner     int
	samples   int
	completed []Result
	started   time.Time
}

func New(opt Options) *Suite {
	opt.normalize()
	return &Suite{opt: opt, limiter: opt.LimiterFactory(opt.Cooldown)}
}

// Run executes every workload in order and returns their results. The first
// failure aborts the suite, returning the results collected so far alongside
// the error. Cancellation is honored between workloads, not within one.
func (s *Suite) Run(ctx context.Context) ([]Result, error) {
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	results := make([]Result, 0, len(s.opt.Workloads))
	for _, w := range s.opt.Workloads {
		if err := s.limiter.Wait(ctx); err != nil {
			return results, err
		}

		s.setCurrent(w.Name)
		res, err := s.runOne(ctx, w)
		s.setCurrent("")
		if err != nil {
			return results, fmt.Errorf("workload %q: %w", w.Name, err)
		}
		results = append(results, res)
		s.appendResult(res)
	}
	return results, nil
}

func (s *Suite) runOne(ctx context.Context, w Workload) (Result, error) {
	var span trace.Span
	if s.opt.Tracer != nil {
		_, span = tracing.StartWorkloadSpan(ctx, s.opt.Tracer, w.Name)
	}

	opts := s.opt.Bench
	chainedPhase := opts.OnPhase
	opts.OnPhase = func(p bench.Phase) {
		s.setPhase(p)
		if span != nil {
			tracing.RecordPhase(span, p.String())
		}
		if chainedPhase != nil {
			chainedPhase(p)
		}
	}
	chainedSize := opts.OnSize
	opts.OnSize = func(inner, outer int) {
		s.setSize(inner, outer)
		if chainedSize != nil {
			chainedSize(inner, outer)
		}
	}

	start := time.Now()
	agg, err := bench.Run(w.Fn, opts)
	elapsed := time.Since(start)

	if span != nil {
		var attrs []attribute.KeyValue
		if agg != nil {
			attrs = append(attrs,
				attribute.Int64("nanofire.samples", agg.Count()),
				attribute.Int64("nanofire.inner_count", agg.InnerCount()),
				attribute.Float64("nanofire.ns_per_call", agg.ElapsedNS()),
			)
		}
		tracing.EndSpan(span, err, attrs...)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Name: w.Name, Aggregate: agg, Duration: elapsed}, nil
}

// Status reports progress. Safe to call from any goroutine while Run is in
// flight; Results holds completed workloads only.
func (s *Suite) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Total:      len(s.opt.Workloads),
		Completed:  len(s.completed),
		Current:    s.current,
		Phase:      s.phase,
		InnerCount: s.inner,
		Samples:    s.samples,
		Results:    append([]Result(nil), s.completed...),
	}
	if !s.started.IsZero() {
		st.Elapsed = time.Since(s.started)
	}
	return st
}

func (s *Suite) setCurrent(name string) {
	s.mu.Lock()
	s.current = name
	s.inner = 0
	s.samples = 0
	s.mu.Unlock()
}

func (s *Suite) setPhase(p bench.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Suite) setSize(inner, outer int) {
	s.mu.Lock()
	s.inner = inner
	s.samples = outer
	s.mu.Unlock()
}

func (s *Suite) appendResult(r Result) {
	s.mu.Lock()
	s.completed = append(s.completed, r)
	s.mu.Unlock()
}
