package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/nanofire/internal/output"
	"github.com/torosent/nanofire/internal/suite"
	"github.com/torosent/nanofire/internal/threshold"
)

func TestGenerateHTMLReport(t *testing.T) {
	report := output.BuildReport("", []suite.Result{
		benchResult(t, "fib", 1000),
		benchResult(t, "sum", 250),
	}, true, time.Now(), 2*time.Second)

	thresholdResults := []threshold.Result{
		{
			Threshold: threshold.Threshold{
				Raw:       "elapsed:p99 < 2000",
				Metric:    "elapsed",
				Aggregate: "p99",
				Operator:  "<",
				Value:     2000,
			},
			Workload: "fib",
			Actual:   1000,
			Pass:     true,
		},
		{
			Threshold: threshold.Threshold{
				Raw:       "ipc:mean >= 3",
				Metric:    "ipc",
				Aggregate: "mean",
				Operator:  ">=",
				Value:     3,
			},
			Workload: "fib",
			Actual:   2,
			Pass:     false,
		},
	}

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, thresholdResults); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()

	requiredElements := []string{
		"<!DOCTYPE html>",
		"<html",
		"<head>",
		"<body>",
		"Nanofire Benchmark Report",
		report.RunID,
		"ns/call by Workload",
		"Results",
		"fib",
		"sum",
		"Thresholds (1/2 Passed)",
		"elapsed:p99 &lt; 2000",
		"PASS",
		"FAIL",
	}
	for _, elem := range requiredElements {
		if !strings.Contains(html, elem) {
			t.Errorf("HTML missing required element: %s", elem)
		}
	}

	// Counter columns are present when counters were collected
	if !strings.Contains(html, "Instr/call") {
		t.Errorf("HTML missing instruction column")
	}
	// Fastest card names the quickest workload
	if !strings.Contains(html, "250.00 ns/call") {
		t.Errorf("HTML missing fastest workload card")
	}
}

func TestGenerateHTMLReport_NoThresholds(t *testing.T) {
	report := output.BuildReport("", []suite.Result{benchResult(t, "fib", 1000)}, true, time.Now(), time.Second)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "Nanofire Benchmark Report") {
		t.Errorf("HTML missing title")
	}
	if strings.Contains(html, "Thresholds (") {
		t.Errorf("HTML should not have thresholds section when none provided")
	}
}

func TestGenerateHTMLReport_NoWorkloads(t *testing.T) {
	report := output.BuildReport("", nil, false, time.Now(), time.Second)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "No workloads completed") {
		t.Errorf("HTML missing empty state")
	}
	if strings.Contains(html, "ns/call by Workload") {
		t.Errorf("HTML should not have bar chart without workloads")
	}
}

func TestGenerateHTMLReport_WithoutCounters(t *testing.T) {
	report := output.BuildReport("", []suite.Result{benchResult(t, "fib", 1000)}, false, time.Now(), time.Second)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "Instr/call") {
		t.Errorf("HTML should omit counter columns when counters are disabled")
	}
	if !strings.Contains(html, "elapsed time only") {
		t.Errorf("HTML missing counters-off notice")
	}
}

func TestGenerateHTMLReport_EscapesHTMLInData(t *testing.T) {
	report := output.BuildReport("", []suite.Result{
		benchResult(t, "<script>alert('xss')</script>", 1000),
	}, false, time.Now(), time.Second)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "<script>alert('xss')</script>") {
		t.Errorf("HTML did not escape dangerous content")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("HTML did not properly escape content")
	}
}
