package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/torosent/nanofire/pkg/bench"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. File settings come first, flags override them. Running with no
// arguments is valid: every built-in workload runs with default settings.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		MinRepeat:        bench.DefaultMinRepeat,
		MinTime:          bench.DefaultMinTime,
		MaxRepeat:        bench.DefaultMaxRepeat,
		InnerCap:         bench.DefaultInnerCap,
		MinBlockTime:     bench.DefaultMinBlockTime,
		HardwareCounters: true,
		ConfigFile:       configPath,
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	for i := range cfg.Workloads {
		cfg.Workloads[i] = strings.TrimSpace(cfg.Workloads[i])
	}
	cfg.HTMLOutput = strings.TrimSpace(cfg.HTMLOutput)
	cfg.LockFile = strings.TrimSpace(cfg.LockFile)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "workloads"); ok {
		names, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("workloads: %w", err)
		}
		cfg.Workloads = names
	}

	if raw, ok := lookupSetting(settings, "minrepeat", "min_repeat", "min-repeat"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("min_repeat: %w", err)
		}
		cfg.MinRepeat = val
	}

	if raw, ok := lookupSetting(settings, "mintime", "min_time", "min-time"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("min_time: %w", err)
		}
		cfg.MinTime = dur
	}

	if raw, ok := lookupSetting(settings, "maxrepeat", "max_repeat", "max-repeat"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("max_repeat: %w", err)
		}
		cfg.MaxRepeat = val
	}

	if raw, ok := lookupSetting(settings, "innercap", "inner_cap", "inner-cap"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("inner_cap: %w", err)
		}
		cfg.InnerCap = val
	}

	if raw, ok := lookupSetting(settings, "minblocktime", "min_block_time", "min-block-time"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("min_block_time: %w", err)
		}
		cfg.MinBlockTime = dur
	}

	if raw, ok := lookupSetting(settings, "cooldown"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		cfg.Cooldown = dur
	}

	if raw, ok := lookupSetting(settings, "hardwarecounters", "hardware_counters", "hardware-counters"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("hardware_counters: %w", err)
		}
		cfg.HardwareCounters = val
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "exclusive"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("exclusive: %w", err)
		}
		cfg.Exclusive = val
	}

	if raw, ok := lookupSetting(settings, "lockfile", "lock_file", "lock-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("lockFile: %w", err)
		}
		cfg.LockFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracing(value interface{}) (TracingConfig, error) {
	if value == nil {
		return TracingConfig{}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}

	var tc TracingConfig
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		tc.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(entry, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tc.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tc.Insecure = val
	}
	return tc, nil
}
