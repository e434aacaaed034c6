package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/nanofire/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MinRepeat != 10 {
		t.Errorf("MinRepeat = %d, want 10", cfg.MinRepeat)
	}
	if cfg.MinTime != 400*time.Millisecond {
		t.Errorf("MinTime = %s, want 400ms", cfg.MinTime)
	}
	if cfg.MaxRepeat != 1_000_000 {
		t.Errorf("MaxRepeat = %d, want 1000000", cfg.MaxRepeat)
	}
	if cfg.InnerCap != 10_000 {
		t.Errorf("InnerCap = %d, want 10000", cfg.InnerCap)
	}
	if cfg.MinBlockTime != 2*time.Microsecond {
		t.Errorf("MinBlockTime = %s, want 2µs", cfg.MinBlockTime)
	}
	if cfg.Cooldown != 0 {
		t.Errorf("Cooldown = %s, want 0", cfg.Cooldown)
	}
	if !cfg.HardwareCounters {
		t.Error("HardwareCounters = false, want counters on by default")
	}
	if len(cfg.Workloads) != 0 {
		t.Errorf("Workloads = %v, want none selected", cfg.Workloads)
	}
	if cfg.JSONOutput || cfg.Dashboard || cfg.Exclusive || cfg.List {
		t.Errorf("boolean flags should default to false, got %+v", cfg)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`
workloads:
  - fib
  - sum
min_repeat: 20
min_time: 1s
max_repeat: 100000
inner_cap: 1000
min_block_time: 5us
cooldown: 250ms
exclusive: true
thresholds:
  - "elapsed:mean < 100"
tracing:
  endpoint: localhost:4317
  protocol: grpc
  service_name: bench-ci
  sample_rate: 0.5
  insecure: true
`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--min-repeat", "50"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Workloads) != 2 || cfg.Workloads[0] != "fib" || cfg.Workloads[1] != "sum" {
		t.Errorf("Workloads = %v, want [fib sum]", cfg.Workloads)
	}
	// Flags override file settings.
	if cfg.MinRepeat != 50 {
		t.Errorf("MinRepeat = %d, want flag override 50", cfg.MinRepeat)
	}
	if cfg.MinTime != time.Second {
		t.Errorf("MinTime = %s, want 1s", cfg.MinTime)
	}
	if cfg.MaxRepeat != 100_000 {
		t.Errorf("MaxRepeat = %d, want 100000", cfg.MaxRepeat)
	}
	if cfg.InnerCap != 1000 {
		t.Errorf("InnerCap = %d, want 1000", cfg.InnerCap)
	}
	if cfg.MinBlockTime != 5*time.Microsecond {
		t.Errorf("MinBlockTime = %s, want 5µs", cfg.MinBlockTime)
	}
	if cfg.Cooldown != 250*time.Millisecond {
		t.Errorf("Cooldown = %s, want 250ms", cfg.Cooldown)
	}
	if !cfg.Exclusive {
		t.Error("Exclusive = false, want true")
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "elapsed:mean < 100" {
		t.Errorf("Thresholds = %v, want the configured expression", cfg.Thresholds)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing = %+v, want grpc localhost:4317", cfg.Tracing)
	}
	if cfg.Tracing.ServiceName != "bench-ci" || cfg.Tracing.SampleRate != 0.5 || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v, want service bench-ci rate 0.5 insecure", cfg.Tracing)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"workloads": ["json-extract"],
		"minRepeat": 5,
		"cooldown": "100ms",
		"jsonOutput": true
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Workloads) != 1 || cfg.Workloads[0] != "json-extract" {
		t.Errorf("Workloads = %v, want [json-extract]", cfg.Workloads)
	}
	if cfg.MinRepeat != 5 {
		t.Errorf("MinRepeat = %d, want 5", cfg.MinRepeat)
	}
	if cfg.Cooldown != 100*time.Millisecond {
		t.Errorf("Cooldown = %s, want 100ms", cfg.Cooldown)
	}
	if !cfg.JSONOutput {
		t.Error("JSONOutput = false, want true")
	}
}

func TestLoadHelpRequested(t *testing.T) {
	loader := config.NewLoader()
	_, err := loader.Load([]string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load(--help) error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	loader := config.NewLoader()
	if _, err := loader.Load([]string{"--no-such-flag"}); err == nil {
		t.Fatal("Load() with unknown flag returned nil error")
	}
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		MinRepeat:    10,
		MinTime:      400 * time.Millisecond,
		MaxRepeat:    1_000_000,
		InnerCap:     10_000,
		MinBlockTime: 2 * time.Microsecond,
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{
			name:    "negative min_repeat",
			mutate:  func(c *config.Config) { c.MinRepeat = -1 },
			wantErr: "min_repeat must be >= 0",
		},
		{
			name:    "min exceeds max",
			mutate:  func(c *config.Config) { c.MinRepeat = 100; c.MaxRepeat = 10 },
			wantErr: "min_repeat must not exceed max_repeat",
		},
		{
			name:    "zero max_repeat",
			mutate:  func(c *config.Config) { c.MaxRepeat = 0 },
			wantErr: "max_repeat must be >= 1",
		},
		{
			name:    "zero inner_cap",
			mutate:  func(c *config.Config) { c.InnerCap = 0 },
			wantErr: "inner_cap must be >= 1",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *config.Config) { c.Cooldown = -time.Second },
			wantErr: "cooldown must be >= 0",
		},
		{
			name:    "dashboard with json",
			mutate:  func(c *config.Config) { c.Dashboard = true; c.JSONOutput = true },
			wantErr: "mutually exclusive",
		},
		{
			name:    "blank workload name",
			mutate:  func(c *config.Config) { c.Workloads = []string{"fib", "  "} },
			wantErr: "workloads[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Validate() error type = %T, want ValidationError", err)
			} else if len(verr.Issues()) == 0 {
				t.Error("ValidationError carries no issues")
			}
		})
	}
}

func TestBenchOptionsMapping(t *testing.T) {
	cfg := config.Config{
		MinRepeat:    7,
		MinTime:      time.Second,
		MaxRepeat:    1000,
		InnerCap:     100,
		MinBlockTime: 3 * time.Microsecond,
	}
	opts := cfg.BenchOptions()
	if opts.MinRepeat != 7 || opts.MinTime != time.Second || opts.MaxRepeat != 1000 {
		t.Errorf("BenchOptions() = %+v, want outer fields carried over", opts)
	}
	if opts.InnerCap != 100 || opts.MinBlockTime != 3*time.Microsecond {
		t.Errorf("BenchOptions() = %+v, want inner fields carried over", opts)
	}
}

func TestTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	if (config.TracingConfig{}).Enabled() {
		t.Error("empty TracingConfig reports enabled")
	}
	if !(config.TracingConfig{Endpoint: "localhost:4317"}).Enabled() {
		t.Error("TracingConfig with endpoint reports disabled")
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	if !(config.TracingConfig{}).Enabled() {
		t.Error("TracingConfig ignores the environment endpoint")
	}
}
