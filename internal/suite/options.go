package suite

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/torosent/nanofire/pkg/bench"
)

// Workload pairs a name with the function to benchmark.
type Workload struct {
	Name string
	Fn   func()
}

// Options configure the Suite.
type Options struct {
	Workloads      []Workload                                 // benchmarks to run, in order (required)
	Bench          bench.Options                              // measurement settings shared by every workload
	Cooldown       time.Duration                              // idle pause between consecutive workloads (0 means none)
	Tracer         trace.Tracer                               // span emission (nil disables tracing)
	LimiterFactory func(cooldown time.Duration) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Cooldown < 0 {
		o.Cooldown = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(cooldown time.Duration) *rate.Limiter {
			if cooldown <= 0 {
				return rate.NewLimiter(rate.Inf, 1)
			}
			// One token per cooldown interval with burst one: the first
			// workload starts immediately, each later one waits the gap.
			return rate.NewLimiter(rate.Every(cooldown), 1)
		}
	}
}
