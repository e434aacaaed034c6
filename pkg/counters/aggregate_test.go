package counters_test

import (
	"math"
	"testing"
	"time"

	"github.com/torosent/nanofire/pkg/counters"
)

func within(got, want, tol float64) bool {
	if want == 0 {
		return math.Abs(got) <= tol
	}
	return math.Abs(got-want)/math.Abs(want) <= tol
}

func TestAggregateFoldTracksBestAndWorst(t *testing.T) {
	agg := counters.NewAggregate()
	agg.Fold(counters.Sample{Elapsed: 300 * time.Nanosecond, Instructions: 3000})
	agg.Fold(counters.Sample{Elapsed: 100 * time.Nanosecond, Instructions: 1000})
	agg.Fold(counters.Sample{Elapsed: 200 * time.Nanosecond, Instructions: 2000})

	if got := agg.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
	best := agg.Best()
	if best.ElapsedNS != 100 || best.Instructions != 1000 {
		t.Errorf("Best() = %+v, want the 100ns sample", best)
	}
	worst := agg.Worst()
	if worst.ElapsedNS != 300 || worst.Instructions != 3000 {
		t.Errorf("Worst() = %+v, want the 300ns sample", worst)
	}
}

func TestAggregateMeansAndTotals(t *testing.T) {
	agg := counters.NewAggregate()
	agg.Fold(counters.Sample{Elapsed: 100 * time.Nanosecond, Instructions: 1000, Cycles: 500})
	agg.Fold(counters.Sample{Elapsed: 200 * time.Nanosecond, Instructions: 2000, Cycles: 1000})

	if got := agg.ElapsedNS(); got != 150 {
		t.Errorf("ElapsedNS() = %v, want 150", got)
	}
	if got := agg.TotalElapsedNS(); got != 300 {
		t.Errorf("TotalElapsedNS() = %v, want 300", got)
	}
	if got := agg.TotalElapsed(); got != 300*time.Nanosecond {
		t.Errorf("TotalElapsed() = %v, want 300ns", got)
	}
	if got := agg.Instructions(); got != 1500 {
		t.Errorf("Instructions() = %v, want 1500", got)
	}
	if got := agg.InstructionsPerCycle(); got != 2 {
		t.Errorf("InstructionsPerCycle() = %v, want 2", got)
	}
	total := agg.Total()
	if total.Instructions != 3000 || total.Cycles != 1500 {
		t.Errorf("Total() = %+v, want 3000 instructions and 1500 cycles", total)
	}
}

func TestNormalizeDividesEveryMetric(t *testing.T) {
	agg := counters.NewAggregate()
	for i := 0; i < 2; i++ {
		agg.Fold(counters.Sample{
			Elapsed:      1000 * time.Nanosecond,
			Instructions: 5000,
			Cycles:       2500,
			Branches:     800,
			BranchMisses: 40,
		})
	}
	ipcBefore := agg.InstructionsPerCycle()

	if err := agg.Normalize(100); err != nil {
		t.Fatalf("Normalize(100) returned error: %v", err)
	}

	if got := agg.InnerCount(); got != 100 {
		t.Errorf("InnerCount() = %d, want 100", got)
	}
	if got := agg.Count(); got != 2 {
		t.Errorf("Count() = %d after Normalize, want 2", got)
	}
	if got := agg.ElapsedNS(); got != 10 {
		t.Errorf("ElapsedNS() = %v, want 10", got)
	}
	if got := agg.TotalElapsedNS(); got != 20 {
		t.Errorf("TotalElapsedNS() = %v, want 20", got)
	}
	if got := agg.Instructions(); got != 50 {
		t.Errorf("Instructions() = %v, want 50", got)
	}
	if got := agg.Branches(); got != 8 {
		t.Errorf("Branches() = %v, want 8", got)
	}
	if got := agg.BranchMisses(); got != 0.4 {
		t.Errorf("BranchMisses() = %v, want 0.4", got)
	}
	if got := agg.InstructionsPerCycle(); got != ipcBefore {
		t.Errorf("InstructionsPerCycle() changed across Normalize: %v != %v", got, ipcBefore)
	}
}

func TestNormalizeSupportsSubNanosecondPerCall(t *testing.T) {
	agg := counters.NewAggregate()
	agg.Fold(counters.Sample{Elapsed: 5 * time.Nanosecond})
	if err := agg.Normalize(10000); err != nil {
		t.Fatalf("Normalize(10000) returned error: %v", err)
	}
	if got := agg.ElapsedNS(); got != 0.0005 {
		t.Errorf("ElapsedNS() = %v, want 0.0005", got)
	}
}

func TestNormalizeRejectsNonPositiveCount(t *testing.T) {
	for _, m := range []int{0, -1, -100} {
		agg := counters.NewAggregate()
		agg.Fold(counters.Sample{Elapsed: time.Microsecond})
		if err := agg.Normalize(m); err == nil {
			t.Errorf("Normalize(%d) returned nil error", m)
		}
		if got := agg.InnerCount(); got != 1 {
			t.Errorf("InnerCount() = %d after failed Normalize(%d), want 1", got, m)
		}
		if got := agg.ElapsedNS(); got != 1000 {
			t.Errorf("ElapsedNS() = %v after failed Normalize(%d), want 1000", got, m)
		}
	}
}

func TestScaleRejectsBadDivisors(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		agg := counters.NewAggregate()
		if err := agg.Scale(d); err == nil {
			t.Errorf("Scale(%v) returned nil error", d)
		}
	}
}

func TestScaleRoundTrip(t *testing.T) {
	agg := counters.NewAggregate()
	agg.Fold(counters.Sample{Elapsed: 1234 * time.Nanosecond, Instructions: 9876, Cycles: 4321})
	agg.Fold(counters.Sample{Elapsed: 2468 * time.Nanosecond, Instructions: 5432, Cycles: 8642})
	wantMean := agg.Mean()

	if err := agg.Scale(100); err != nil {
		t.Fatalf("Scale(100) returned error: %v", err)
	}
	if err := agg.Scale(1.0 / 100); err != nil {
		t.Fatalf("Scale(1/100) returned error: %v", err)
	}

	got := agg.Mean()
	if !within(got.ElapsedNS, wantMean.ElapsedNS, 1e-9) ||
		!within(got.Instructions, wantMean.Instructions, 1e-9) ||
		!within(got.Cycles, wantMean.Cycles, 1e-9) {
		t.Errorf("Mean() after round trip = %+v, want %+v", got, wantMean)
	}
}

func TestPercentileFollowsScale(t *testing.T) {
	agg := counters.NewAggregate()
	for i := 1; i <= 100; i++ {
		agg.Fold(counters.Sample{Elapsed: time.Duration(i) * time.Microsecond})
	}

	p50 := agg.PercentileNS(50)
	if !within(p50, 50_000, 0.01) {
		t.Fatalf("PercentileNS(50) = %v, want about 50000", p50)
	}

	if err := agg.Normalize(10); err != nil {
		t.Fatalf("Normalize(10) returned error: %v", err)
	}
	if got := agg.PercentileNS(50); !within(got, 5000, 0.01) {
		t.Errorf("PercentileNS(50) after Normalize(10) = %v, want about 5000", got)
	}
}

func TestZeroCountersFoldThrough(t *testing.T) {
	agg := counters.NewAggregate()
	agg.Fold(counters.Sample{Elapsed: 100 * time.Nanosecond})
	agg.Fold(counters.Sample{Elapsed: 200 * time.Nanosecond})
	if err := agg.Normalize(10); err != nil {
		t.Fatalf("Normalize(10) returned error: %v", err)
	}

	if got := agg.Instructions(); got != 0 {
		t.Errorf("Instructions() = %v, want 0", got)
	}
	if got := agg.InstructionsPerCycle(); got != 0 {
		t.Errorf("InstructionsPerCycle() = %v, want 0", got)
	}
	if got := agg.Best().Instructions; got != 0 {
		t.Errorf("Best().Instructions = %v, want 0", got)
	}
	if got := agg.ElapsedNS(); got != 15 {
		t.Errorf("ElapsedNS() = %v, want 15", got)
	}
}

func TestEmptyAggregate(t *testing.T) {
	agg := counters.NewAggregate()
	if got := agg.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := agg.ElapsedNS(); got != 0 {
		t.Errorf("ElapsedNS() = %v, want 0", got)
	}
	if got := agg.PercentileNS(99); got != 0 {
		t.Errorf("PercentileNS(99) = %v, want 0", got)
	}
	if got := agg.InnerCount(); got != 1 {
		t.Errorf("InnerCount() = %d, want 1", got)
	}
	if got := agg.Mean(); got != (counters.Metrics{}) {
		t.Errorf("Mean() = %+v, want zero row", got)
	}
}
