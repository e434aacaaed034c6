package counters

import (
	"fmt"
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics is one row of counter readings on a common scale. Aggregate
// accessors return rows already divided by the accumulated scale factor, so
// after Normalize every row reads in per-call units.
type Metrics struct {
	ElapsedNS    float64
	Instructions float64
	Cycles       float64
	Branches     float64
	BranchMisses float64
}

// Aggregate folds samples into running statistics: totals, the fastest and
// slowest sample, and a histogram of per-sample elapsed time. Folded values
// are stored raw; Scale and Normalize adjust a divisor that accessors apply
// on the way out, which keeps repeated rescaling exact in aggregate order.
//
// Aggregate is not safe for concurrent use. The benchmarking loop folds from
// a single goroutine; snapshots for dashboards are taken between runs.
type Aggregate struct {
	count int64
	inner int64
	scale float64

	totalElapsedNS    float64
	totalInstructions float64
	totalCycles       float64
	totalBranches     float64
	totalBranchMisses float64

	best  Sample
	worst Sample

	hist *hdrhistogram.Histogram
}

// NewAggregate returns an empty aggregate with an identity scale and an
// inner count of one.
func NewAggregate() *Aggregate {
	// Track per-sample elapsed time from 1ns up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000_000, 3)
	return &Aggregate{
		inner: 1,
		scale: 1,
		hist:  h,
	}
}

// Fold accumulates one sample. Zero-valued counter fields fold through
// unchanged; the aggregate never substitutes or drops them.
func (a *Aggregate) Fold(s Sample) {
	if a.count == 0 || s.Elapsed < a.best.Elapsed {
		a.best = s
	}
	if a.count == 0 || s.Elapsed > a.worst.Elapsed {
		a.worst = s
	}
	a.count++

	a.totalElapsedNS += float64(s.Elapsed)
	a.totalInstructions += s.Instructions
	a.totalCycles += s.Cycles
	a.totalBranches += s.Branches
	a.totalBranchMisses += s.BranchMisses

	ns := s.Elapsed.Nanoseconds()
	if ns < 1 {
		ns = 1
	}
	if ns > a.hist.HighestTrackableValue() {
		ns = a.hist.HighestTrackableValue()
	}
	_ = a.hist.RecordValue(ns)
}

// Scale divides every accumulated metric, including histogram quantiles and
// the best/worst rows, by divisor. Scaling composes: Scale(m) followed by
// Scale(1/m) restores the original readings up to floating-point rounding.
func (a *Aggregate) Scale(divisor float64) error {
	if divisor <= 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		return fmt.Errorf("scale: divisor must be positive and finite, got %v", divisor)
	}
	a.scale *= divisor
	return nil
}

// Normalize converts the aggregate from per-block to per-call units by
// scaling every metric down by the inner repetition count m and recording m
// for later inspection. m must be at least one.
func (a *Aggregate) Normalize(m int) error {
	if m < 1 {
		return fmt.Errorf("normalize: inner count must be at least 1, got %d", m)
	}
	if err := a.Scale(float64(m)); err != nil {
		return err
	}
	a.inner = int64(m)
	return nil
}

// Count reports how many samples have been folded.
func (a *Aggregate) Count() int64 { return a.count }

// InnerCount reports the inner repetition count recorded by Normalize,
// or one if the aggregate has not been normalized.
func (a *Aggregate) InnerCount() int64 { return a.inner }

// ElapsedNS is the mean elapsed time per folded sample in nanoseconds.
// After Normalize this is the mean time per single call, which may be well
// below one nanosecond for trivial workloads.
func (a *Aggregate) ElapsedNS() float64 {
	if a.count == 0 {
		return 0
	}
	return a.totalElapsedNS / a.scale / float64(a.count)
}

// TotalElapsedNS is the elapsed time summed across all folded samples, on the
// current scale. Before any scaling it is the raw wall-clock nanoseconds the
// measured windows covered, which is what the calibration budget checks read.
func (a *Aggregate) TotalElapsedNS() float64 {
	return a.totalElapsedNS / a.scale
}

// TotalElapsed is TotalElapsedNS truncated to a time.Duration.
func (a *Aggregate) TotalElapsed() time.Duration {
	return time.Duration(a.TotalElapsedNS())
}

// Instructions is the mean retired instruction count per folded sample.
func (a *Aggregate) Instructions() float64 { return a.mean(a.totalInstructions) }

// Cycles is the mean CPU cycle count per folded sample.
func (a *Aggregate) Cycles() float64 { return a.mean(a.totalCycles) }

// Branches is the mean retired branch count per folded sample.
func (a *Aggregate) Branches() float64 { return a.mean(a.totalBranches) }

// BranchMisses is the mean mispredicted branch count per folded sample.
func (a *Aggregate) BranchMisses() float64 { return a.mean(a.totalBranchMisses) }

// InstructionsPerCycle is total instructions over total cycles. The scale
// factor cancels, so the ratio is identical before and after Normalize. It
// reports zero when no cycles were observed.
func (a *Aggregate) InstructionsPerCycle() float64 {
	if a.totalCycles == 0 {
		return 0
	}
	return a.totalInstructions / a.totalCycles
}

// Mean returns all mean metrics as one row.
func (a *Aggregate) Mean() Metrics {
	return Metrics{
		ElapsedNS:    a.ElapsedNS(),
		Instructions: a.Instructions(),
		Cycles:       a.Cycles(),
		Branches:     a.Branches(),
		BranchMisses: a.BranchMisses(),
	}
}

// Total returns the summed metrics across all folded samples, scaled.
func (a *Aggregate) Total() Metrics {
	return Metrics{
		ElapsedNS:    a.totalElapsedNS / a.scale,
		Instructions: a.totalInstructions / a.scale,
		Cycles:       a.totalCycles / a.scale,
		Branches:     a.totalBranches / a.scale,
		BranchMisses: a.totalBranchMisses / a.scale,
	}
}

// Best returns the metrics of the fastest folded sample, scaled. Fastest is
// decided by elapsed time; the counter values come from that same sample.
func (a *Aggregate) Best() Metrics { return a.row(a.best) }

// Worst returns the metrics of the slowest folded sample, scaled.
func (a *Aggregate) Worst() Metrics { return a.row(a.worst) }

// PercentileNS returns the elapsed-time value at quantile q (for example 50,
// 90, 99) across folded samples, in scaled nanoseconds. It reports zero when
// nothing has been folded.
func (a *Aggregate) PercentileNS(q float64) float64 {
	if a.hist.TotalCount() == 0 {
		return 0
	}
	return float64(a.hist.ValueAtQuantile(q)) / a.scale
}

func (a *Aggregate) mean(total float64) float64 {
	if a.count == 0 {
		return 0
	}
	return total / a.scale / float64(a.count)
}

func (a *Aggregate) row(s Sample) Metrics {
	return Metrics{
		ElapsedNS:    float64(s.Elapsed) / a.scale,
		Instructions: s.Instructions / a.scale,
		Cycles:       s.Cycles / a.scale,
		Branches:     s.Branches / a.scale,
		BranchMisses: s.BranchMisses / a.scale,
	}
}
