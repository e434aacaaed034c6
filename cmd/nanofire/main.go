package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/nanofire/internal/config"
	"github.com/torosent/nanofire/internal/dashboard"
	"github.com/torosent/nanofire/internal/hostlock"
	"github.com/torosent/nanofire/internal/output"
	"github.com/torosent/nanofire/internal/suite"
	"github.com/torosent/nanofire/internal/threshold"
	"github.com/torosent/nanofire/internal/tracing"
	"github.com/torosent/nanofire/pkg/counters"
)

const (
	progressInterval = time.Second
	// How long --exclusive queues behind another run before giving up.
	lockWait        = 5 * time.Minute
	tracingShutdown = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.List {
		listWorkloads(os.Stdout)
		return nil
	}

	workloads, err := selectWorkloads(cfg.Workloads)
	if err != nil {
		return err
	}

	// A threshold typo must fail before the run, not after it.
	parsed, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	if cfg.Exclusive {
		lock, err := hostlock.Acquire(cfg.LockFile, lockWait)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), tracingShutdown)
		defer cancelShutdown()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// One probe collector decides up front whether hardware counters are
	// available; each workload still opens its own pinned collector.
	countersOn := false
	if cfg.HardwareCounters {
		probe := counters.NewCollector()
		countersOn = probe.Supported()
		counterErr := probe.Err()
		_ = probe.Close()
		if !countersOn && !cfg.JSONOutput && !cfg.Dashboard {
			fmt.Fprintf(os.Stderr, "Note: hardware counters unavailable (%v); measuring elapsed time only\n", counterErr)
		}
	}

	suiteOpts := suite.Options{
		Workloads: workloads,
		Bench:     cfg.BenchOptions(),
		Cooldown:  cfg.Cooldown,
	}
	if !cfg.HardwareCounters {
		// Counters were turned off on purpose: share one pinned timing
		// collector across the serial suite instead of opening perf groups.
		timing := counters.NewTimingCollector()
		defer func() { _ = timing.Close() }()
		suiteOpts.Bench.Collector = timing
	}
	if tp.Enabled() {
		suiteOpts.Tracer = tp.Tracer()
	}
	s := suite.New(suiteOpts)

	runID := output.NewRunID()

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(s, dashboard.RunInfo{
			RunID:      runID,
			MinTime:    cfg.MinTime,
			MinRepeat:  cfg.MinRepeat,
			MaxRepeat:  cfg.MaxRepeat,
			Counters:   countersOn,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(s, progressInterval, os.Stdout)
		progress.Start()
	}

	started := time.Now()
	results, runErr := s.Run(ctx)
	duration := time.Since(started)

	// Tear the live displays down before printing so the report lands on a
	// settled terminal.
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if dash != nil {
		dash.Stop()
	}

	report := output.BuildReport(runID, results, countersOn, started, duration)

	var thresholdResults []threshold.Result
	if runErr == nil && len(parsed) > 0 {
		thresholdResults = threshold.NewEvaluator(parsed).Evaluate(results)
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
		printThresholds(os.Stderr, thresholdResults)
	} else {
		output.PrintReport(os.Stdout, report)
		printThresholds(os.Stdout, thresholdResults)
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, report, thresholdResults); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stdout, "\nHTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if runErr != nil {
		return runErr
	}
	if len(thresholdResults) > 0 && !threshold.AllPassed(thresholdResults) {
		failed := 0
		for _, r := range thresholdResults {
			if !r.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d of %d thresholds failed", failed, len(thresholdResults))
	}
	return nil
}

func printThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\n--- Thresholds ---")
	for _, r := range results {
		fmt.Fprintln(w, r.Message)
	}
}

func writeHTMLReport(path string, report output.Report, thresholds []threshold.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, report, thresholds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
