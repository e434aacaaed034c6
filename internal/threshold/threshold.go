package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/nanofire/internal/suite"
	"github.com/torosent/nanofire/pkg/counters"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Workload  string  // optional scope; empty means every workload
	Metric    string  // e.g., "elapsed", "instructions", "ipc"
	Aggregate string  // e.g., "mean", "p99", "best", "total"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold against one
// workload.
type Result struct {
	Threshold Threshold
	Workload  string
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against benchmark results.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided results. An unscoped
// threshold is checked against every workload; a scoped one only against the
// workload it names. A scope that matches nothing yields a failing result.
func (e *Evaluator) Evaluate(results []suite.Result) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	out := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		matched := false
		for _, r := range results {
			if t.Workload != "" && t.Workload != r.Name {
				continue
			}
			matched = true
			out = append(out, evaluateOne(t, r))
		}
		if !matched {
			out = append(out, Result{
				Threshold: t,
				Workload:  t.Workload,
				Pass:      false,
				Message:   fmt.Sprintf("✗ %s: no workload matches scope %q", t.Raw, t.Workload),
			})
		}
	}
	return out
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, r suite.Result) Result {
	actual, err := extractMetricValue(t, r.Aggregate)
	if err != nil {
		return Result{
			Threshold: t,
			Workload:  r.Name,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s [%s]: error: %v", t.Raw, r.Name, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s [%s]: %.2f %s %.2f", status, t.Raw, r.Name, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Workload:  r.Name,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct. Elapsed values are
// nanoseconds per call; counter values are events per call.
// Supported formats:
// - "elapsed:p99 < 250"           (elapsed-time percentile across samples)
// - "elapsed:mean < 120.5"        (mean ns per call)
// - "instructions:mean < 900"     (mean retired instructions per call)
// - "ipc:mean >= 1.5"             (instructions per cycle)
// - "branch_misses:worst < 40"    (worst sample's branch misses per call)
// - "fib/elapsed:best < 80"       (scoped to the workload named "fib")
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: [workload/]metric:aggregate operator value
	// e.g., "fib/elapsed:p99 < 250"
	pattern := regexp.MustCompile(`^(?:([A-Za-z0-9_.-]+)/)?([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: [workload/]metric:aggregate operator value, e.g., 'elapsed:p99 < 250')", s)
	}

	workload := matches[1]
	metric := matches[2]
	aggregate := matches[3]
	operator := matches[4]
	valueStr := matches[5]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	// Validate metric
	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: elapsed, instructions, cycles, ipc, branches, branch_misses)", metric)
	}

	// Validate aggregate
	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: mean, p50, p90, p99, best, worst, total)", aggregate)
	}

	// Validate operator
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Workload:  workload,
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	valid := []string{"elapsed", "instructions", "cycles", "ipc", "branches", "branch_misses"}
	for _, v := range valid {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	valid := []string{"mean", "avg", "p50", "p90", "p99", "best", "worst", "total"}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, agg *counters.Aggregate) (float64, error) {
	if agg == nil {
		return 0, fmt.Errorf("no measurements recorded")
	}
	switch t.Metric {
	case "elapsed":
		return extractElapsedMetric(t.Aggregate, agg)
	case "instructions":
		return extractCounterMetric(t.Aggregate, agg, func(m counters.Metrics) float64 { return m.Instructions })
	case "cycles":
		return extractCounterMetric(t.Aggregate, agg, func(m counters.Metrics) float64 { return m.Cycles })
	case "branches":
		return extractCounterMetric(t.Aggregate, agg, func(m counters.Metrics) float64 { return m.Branches })
	case "branch_misses":
		return extractCounterMetric(t.Aggregate, agg, func(m counters.Metrics) float64 { return m.BranchMisses })
	case "ipc":
		return extractIPCMetric(t.Aggregate, agg)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractElapsedMetric(aggregate string, agg *counters.Aggregate) (float64, error) {
	switch aggregate {
	case "mean", "avg":
		return agg.ElapsedNS(), nil
	case "p50":
		return agg.PercentileNS(50), nil
	case "p90":
		return agg.PercentileNS(90), nil
	case "p99":
		return agg.PercentileNS(99), nil
	case "best":
		return agg.Best().ElapsedNS, nil
	case "worst":
		return agg.Worst().ElapsedNS, nil
	case "total":
		return agg.Total().ElapsedNS, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for elapsed", aggregate)
	}
}

// extractCounterMetric handles the hardware counter metrics, which share one
// shape: percentiles are unavailable because only elapsed time is
// histogrammed.
func extractCounterMetric(aggregate string, agg *counters.Aggregate, field func(counters.Metrics) float64) (float64, error) {
	switch aggregate {
	case "mean", "avg":
		return field(agg.Mean()), nil
	case "best":
		return field(agg.Best()), nil
	case "worst":
		return field(agg.Worst()), nil
	case "total":
		return field(agg.Total()), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for hardware counters (use mean, best, worst, or total)", aggregate)
	}
}

func extractIPCMetric(aggregate string, agg *counters.Aggregate) (float64, error) {
	switch aggregate {
	case "mean", "avg":
		return agg.InstructionsPerCycle(), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for ipc (use 'mean')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
