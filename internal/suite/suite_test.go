package suite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/time/rate"

	"github.com/torosent/nanofire/internal/suite"
	"github.com/torosent/nanofire/pkg/bench"
	"github.com/torosent/nanofire/pkg/counters"
)

// fixedSampler reports the same elapsed time for every window, which keeps
// calibration at M=1 and lets suite tests finish in microseconds.
type fixedSampler struct{ d time.Duration }

func (f *fixedSampler) Start()               {}
func (f *fixedSampler) End() counters.Sample { return counters.Sample{Elapsed: f.d} }

func fastBench() bench.Options {
	return bench.Options{
		MinRepeat: 2,
		MinTime:   time.Nanosecond,
		Collector: &fixedSampler{d: 5 * time.Microsecond},
	}
}

func TestSuiteRunsWorkloadsInOrder(t *testing.T) {
	var aCalls, bCalls int
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "alpha", Fn: func() { aCalls++ }},
			{Name: "beta", Fn: func() { bCalls++ }},
		},
		Bench: fastBench(),
	})

	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "alpha" || results[1].Name != "beta" {
		t.Errorf("result order = %q, %q; want alpha, beta", results[0].Name, results[1].Name)
	}
	for _, r := range results {
		if r.Aggregate == nil {
			t.Fatalf("workload %q has nil aggregate", r.Name)
		}
		if got := r.Aggregate.Count(); got != 2 {
			t.Errorf("workload %q Count() = %d, want 2", r.Name, got)
		}
	}
	if aCalls == 0 || bCalls == 0 {
		t.Errorf("workloads ran %d and %d times, want both > 0", aCalls, bCalls)
	}
}

func TestSuiteUsesLimiterFactory(t *testing.T) {
	var gotCooldown time.Duration
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{{Name: "only", Fn: func() {}}},
		Bench:     fastBench(),
		Cooldown:  300 * time.Millisecond,
		LimiterFactory: func(cd time.Duration) *rate.Limiter {
			gotCooldown = cd
			return rate.NewLimiter(rate.Inf, 1)
		},
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if gotCooldown != 300*time.Millisecond {
		t.Errorf("limiter factory got cooldown %v, want 300ms", gotCooldown)
	}
}

func TestSuiteCooldownPacesWorkloads(t *testing.T) {
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "one", Fn: func() {}},
			{Name: "two", Fn: func() {}},
			{Name: "three", Fn: func() {}},
		},
		Bench:    fastBench(),
		Cooldown: 20 * time.Millisecond,
	})

	start := time.Now()
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// First workload starts immediately; the next two each wait a cooldown.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Run finished in %v, want at least two cooldown gaps", elapsed)
	}
}

func TestSuiteStatusDuringRun(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "blocked", Fn: func() { once.Do(func() { <-release }) }},
		},
		Bench: fastBench(),
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for {
		st := s.Status()
		if st.Current == "blocked" {
			if st.Total != 1 || st.Completed != 0 {
				t.Errorf("mid-run Status = %+v, want Total 1 Completed 0", st)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("suite never reported the running workload")
		case <-time.After(time.Millisecond):
		}
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	st := s.Status()
	if st.Completed != 1 || st.Current != "" {
		t.Errorf("final Status = %+v, want Completed 1 and no current workload", st)
	}
	if len(st.Results) != 1 || st.Results[0].Name != "blocked" {
		t.Errorf("final Status results = %+v, want the blocked workload", st.Results)
	}
}

func TestSuiteStatusCarriesSizePlan(t *testing.T) {
	// The callable blocks on its second invocation, which is the first
	// warm-up block: by then calibration has fixed M=1 and the plan N=2.
	release := make(chan struct{})
	calls := 0
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "planned", Fn: func() {
				calls++
				if calls == 2 {
					<-release
				}
			}},
		},
		Bench: fastBench(),
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for {
		st := s.Status()
		if st.InnerCount != 0 || st.Samples != 0 {
			if st.InnerCount != 1 || st.Samples != 2 {
				t.Errorf("mid-run size plan M=%d N=%d, want M=1 N=2", st.InnerCount, st.Samples)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("suite never reported a size plan")
		case <-time.After(time.Millisecond):
		}
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestSuiteAbortsOnError(t *testing.T) {
	var secondRan int
	opts := fastBench()
	opts.InnerCap = -1
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "alpha", Fn: func() {}},
			{Name: "beta", Fn: func() { secondRan++ }},
		},
		Bench: opts,
	})

	results, err := s.Run(context.Background())
	if !errors.Is(err, bench.ErrUnsupportedCount) {
		t.Fatalf("Run error = %v, want ErrUnsupportedCount", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from a failed first workload, want 0", len(results))
	}
	if secondRan != 0 {
		t.Errorf("second workload ran %d times after the first failed", secondRan)
	}
}

func TestSuiteHonorsCancelledContext(t *testing.T) {
	var calls int
	s := suite.New(suite.Options{
		Workloads: []suite.Workload{{Name: "never", Fn: func() { calls++ }}},
		Bench:     fastBench(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(results) != 0 || calls != 0 {
		t.Errorf("cancelled run produced %d results and %d calls, want none", len(results), calls)
	}
}

func TestSuiteEmitsWorkloadSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	s := suite.New(suite.Options{
		Workloads: []suite.Workload{
			{Name: "alpha", Fn: func() {}},
			{Name: "beta", Fn: func() {}},
		},
		Bench:  fastBench(),
		Tracer: tp.Tracer("test"),
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if got := spans[0].Name(); got != "bench alpha" {
		t.Errorf("first span name = %q, want %q", got, "bench alpha")
	}

	var sawMeasure bool
	for _, ev := range spans[0].Events() {
		if ev.Name == "measure" {
			sawMeasure = true
		}
	}
	if !sawMeasure {
		t.Error("workload span has no measure phase event")
	}

	var sawSamples bool
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "nanofire.samples" {
			sawSamples = true
		}
	}
	if !sawSamples {
		t.Error("workload span missing nanofire.samples attribute")
	}
}
