package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/nanofire/internal/suite"
)

// Host describes the machine a report was produced on.
type Host struct {
	Hostname  string `json:"hostname"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
	GoVersion string `json:"go_version"`
}

// Entry is one workload's measurements, normalized to per-call values.
type Entry struct {
	Name         string        `json:"name"`
	Samples      int64         `json:"samples"`
	InnerCount   int64         `json:"inner_count"`
	NSPerCall    float64       `json:"ns_per_call"`
	BestNS       float64       `json:"best_ns"`
	WorstNS      float64       `json:"worst_ns"`
	P50NS        float64       `json:"p50_ns"`
	P90NS        float64       `json:"p90_ns"`
	P99NS        float64       `json:"p99_ns"`
	Instructions float64       `json:"instructions_per_call"`
	Cycles       float64       `json:"cycles_per_call"`
	IPC          float64       `json:"ipc"`
	Branches     float64       `json:"branches_per_call"`
	BranchMisses float64       `json:"branch_misses_per_call"`
	TotalNS      float64       `json:"total_ns"`
	WallTime     time.Duration `json:"-"`
	WallTimeMs   float64       `json:"wall_time_ms"`
}

// Report is the complete outcome of a benchmark run.
type Report struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Host            Host          `json:"host"`
	CountersEnabled bool          `json:"counters_enabled"`
	Workloads       []Entry       `json:"workloads"`
	Duration        time.Duration `json:"-"`
	DurationMs      float64       `json:"duration_ms"`
}

// NewRunID mints a run identifier. IDs are lexicographically sortable by
// mint time, so report files sort chronologically by name.
func NewRunID() string {
	return ulid.Make().String()
}

// BuildReport assembles a report from suite results. An empty runID mints a
// fresh one; callers that display the ID while the run is still in flight
// mint it up front with NewRunID and pass it here.
func BuildReport(runID string, results []suite.Result, countersEnabled bool, started time.Time, duration time.Duration) Report {
	if runID == "" {
		runID = NewRunID()
	}
	report := Report{
		RunID:           runID,
		StartedAt:       started,
		Host:            hostInfo(),
		CountersEnabled: countersEnabled,
		Workloads:       make([]Entry, 0, len(results)),
		Duration:        duration,
		DurationMs:      float64(duration) / float64(time.Millisecond),
	}
	for _, r := range results {
		report.Workloads = append(report.Workloads, newEntry(r))
	}
	return report
}

func newEntry(r suite.Result) Entry {
	agg := r.Aggregate
	// Undo the per-call normalization of the total so the report shows time
	// actually spent measuring.
	totalNS := agg.TotalElapsedNS()
	if inner := agg.InnerCount(); inner > 0 {
		totalNS *= float64(inner)
	}
	return Entry{
		Name:         r.Name,
		Samples:      agg.Count(),
		InnerCount:   agg.InnerCount(),
		NSPerCall:    agg.ElapsedNS(),
		BestNS:       agg.Best().ElapsedNS,
		WorstNS:      agg.Worst().ElapsedNS,
		P50NS:        agg.PercentileNS(50),
		P90NS:        agg.PercentileNS(90),
		P99NS:        agg.PercentileNS(99),
		Instructions: agg.Instructions(),
		Cycles:       agg.Cycles(),
		IPC:          agg.InstructionsPerCycle(),
		Branches:     agg.Branches(),
		BranchMisses: agg.BranchMisses(),
		TotalNS:      totalNS,
		WallTime:     r.Duration,
		WallTimeMs:   float64(r.Duration) / float64(time.Millisecond),
	}
}

func hostInfo() Host {
	name, _ := os.Hostname()
	return Host{
		Hostname:  name,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w, "\n--- Benchmark Results ---")
	fmt.Fprintf(w, "Run ID:        %s\n", report.RunID)
	fmt.Fprintf(w, "Host:          %s (%s/%s, %d CPUs, %s)\n",
		report.Host.Hostname, report.Host.OS, report.Host.Arch, report.Host.CPUs, report.Host.GoVersion)
	if report.CountersEnabled {
		fmt.Fprintf(w, "Counters:      hardware (perf events)\n")
	} else {
		fmt.Fprintf(w, "Counters:      elapsed time only\n")
	}
	fmt.Fprintf(w, "Duration:      %s\n", report.Duration.Round(time.Millisecond))

	for _, e := range report.Workloads {
		fmt.Fprintf(w, "\n%s:\n", e.Name)
		fmt.Fprintf(w, "  Samples:       %d x %d calls\n", e.Samples, e.InnerCount)
		fmt.Fprintf(w, "  ns/call:       %.2f (best %.2f, worst %.2f)\n", e.NSPerCall, e.BestNS, e.WorstNS)
		fmt.Fprintf(w, "  p50/p90/p99:   %.2f / %.2f / %.2f ns\n", e.P50NS, e.P90NS, e.P99NS)
		if report.CountersEnabled {
			fmt.Fprintf(w, "  Instructions:  %.2f/call\n", e.Instructions)
			fmt.Fprintf(w, "  Cycles:        %.2f/call (IPC %.2f)\n", e.Cycles, e.IPC)
			fmt.Fprintf(w, "  Branches:      %.2f/call (misses %.2f)\n", e.Branches, e.BranchMisses)
		}
		fmt.Fprintf(w, "  Total:         %s measured, %s wall\n",
			time.Duration(e.TotalNS).Round(time.Microsecond), e.WallTime.Round(time.Millisecond))
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
