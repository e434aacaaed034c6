package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/torosent/nanofire/pkg/bench"
)

type Config struct {
	Workloads    []string      `mapstructure:"workloads"`
	MinRepeat    int           `mapstructure:"min_repeat"`
	MinTime      time.Duration `mapstructure:"min_time"`
	MaxRepeat    int           `mapstructure:"max_repeat"`
	InnerCap     int           `mapstructure:"inner_cap"`
	MinBlockTime time.Duration `mapstructure:"min_block_time"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	// HardwareCounters turns the perf event group off when false; runs then
	// measure elapsed time only even where counters are available.
	HardwareCounters bool `mapstructure:"hardware_counters"`
	JSONOutput   bool          `mapstructure:"json_output"`
	Dashboard    bool          `mapstructure:"dashboard"`
	HTMLOutput   string        `mapstructure:"html_output"`
	Exclusive    bool          `mapstructure:"exclusive"`
	LockFile     string        `mapstructure:"lock_file"`
	Thresholds   []string      `mapstructure:"thresholds"`
	Tracing      TracingConfig `mapstructure:"tracing"`
	ConfigFile   string        `mapstructure:"-"`
	List         bool          `mapstructure:"-"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an OTLP endpoint is configured, directly or via
// the standard environment variable.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// BenchOptions maps the measurement fields onto core options.
func (c Config) BenchOptions() bench.Options {
	return bench.Options{
		MinRepeat:    c.MinRepeat,
		MinTime:      c.MinTime,
		MaxRepeat:    c.MaxRepeat,
		InnerCap:     c.InnerCap,
		MinBlockTime: c.MinBlockTime,
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.MinRepeat < 0 {
		issues = append(issues, "min_repeat must be >= 0")
	}
	if c.MaxRepeat < 1 {
		issues = append(issues, "max_repeat must be >= 1")
	}
	if c.MinRepeat > c.MaxRepeat {
		issues = append(issues, "min_repeat must not exceed max_repeat")
	}
	if c.MinTime < 0 {
		issues = append(issues, "min_time must be >= 0")
	}
	if c.InnerCap < 1 {
		issues = append(issues, "inner_cap must be >= 1")
	}
	if c.MinBlockTime < 0 {
		issues = append(issues, "min_block_time must be >= 0")
	}
	if c.Cooldown < 0 {
		issues = append(issues, "cooldown must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	for idx, name := range c.Workloads {
		if strings.TrimSpace(name) == "" {
			issues = append(issues, fmt.Sprintf("workloads[%d]: name cannot be empty", idx))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}
