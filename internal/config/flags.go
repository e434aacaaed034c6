package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/torosent/nanofire/pkg/bench"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nanofire",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Workload selection
	flags.StringSliceP("workload", "w", nil, "Workload to benchmark (repeatable; default runs all)")
	flags.Bool("list", false, "List available workloads and exit")

	// Measurement flags
	flags.Int("min-repeat", bench.DefaultMinRepeat, "Minimum number of measurement samples")
	flags.Duration("min-time", bench.DefaultMinTime, "Minimum cumulative warm-up time before measuring")
	flags.Int("max-repeat", bench.DefaultMaxRepeat, "Hard ceiling on measurement samples")
	flags.Int("inner-cap", bench.DefaultInnerCap, "Hard ceiling on calls folded into one sample")
	flags.Duration("min-block-time", bench.DefaultMinBlockTime, "Minimum elapsed time per sampled block")
	flags.Duration("cooldown", 0, "Idle pause between workloads (e.g. 250ms)")
	flags.Bool("counters", true, "Collect hardware counters (--counters=false times calls only)")

	// Host isolation flags
	flags.Bool("exclusive", false, "Hold a host-wide lock so concurrent benchmark runs cannot interfere")
	flags.String("lock-file", "", "Path of the exclusive lock file (default: nanofire.lock in the temp dir)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with results")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g. 'elapsed:mean < 100')")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("workload") {
		val, err := fs.GetStringSlice("workload")
		if err != nil {
			return err
		}
		cfg.Workloads = val
	}
	if fs.Changed("list") {
		val, err := fs.GetBool("list")
		if err != nil {
			return err
		}
		cfg.List = val
	}
	if fs.Changed("min-repeat") {
		val, err := fs.GetInt("min-repeat")
		if err != nil {
			return err
		}
		cfg.MinRepeat = val
	}
	if fs.Changed("min-time") {
		val, err := fs.GetDuration("min-time")
		if err != nil {
			return err
		}
		cfg.MinTime = val
	}
	if fs.Changed("max-repeat") {
		val, err := fs.GetInt("max-repeat")
		if err != nil {
			return err
		}
		cfg.MaxRepeat = val
	}
	if fs.Changed("inner-cap") {
		val, err := fs.GetInt("inner-cap")
		if err != nil {
			return err
		}
		cfg.InnerCap = val
	}
	if fs.Changed("min-block-time") {
		val, err := fs.GetDuration("min-block-time")
		if err != nil {
			return err
		}
		cfg.MinBlockTime = val
	}
	if fs.Changed("cooldown") {
		val, err := fs.GetDuration("cooldown")
		if err != nil {
			return err
		}
		cfg.Cooldown = val
	}
	if fs.Changed("counters") {
		val, err := fs.GetBool("counters")
		if err != nil {
			return err
		}
		cfg.HardwareCounters = val
	}
	if fs.Changed("exclusive") {
		val, err := fs.GetBool("exclusive")
		if err != nil {
			return err
		}
		cfg.Exclusive = val
	}
	if fs.Changed("lock-file") {
		val, err := fs.GetString("lock-file")
		if err != nil {
			return err
		}
		cfg.LockFile = strings.TrimSpace(val)
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	return nil
}
