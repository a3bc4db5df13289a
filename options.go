package schedq

import (
	"log/slog"
	"time"

	"github.com/trungvx/schedq/internal/metrics"
)

type Options struct {
	// Addr is the HTTP API listen address, used by Run.
	Addr string

	// Logger defaults to a text handler on stdout.
	Logger *slog.Logger

	// Sink receives scheduler telemetry. Defaults to a no-op sink.
	Sink metrics.Sink

	MaxConcurrentTasks int
	MaxQueueSize       int
	DefaultTimeout     time.Duration
	DefaultRetryDelay  time.Duration
	MaxRetryDelay      time.Duration
	RetryBackoffFactor float64
	PollInterval       time.Duration
	CleanupInterval    time.Duration
	RetentionPeriod    time.Duration
	MaxTaskHistory     int
}

func DefaultOptions(opts *Options) *Options {
	o := &Options{
		Addr: ":8080",
		Sink: metrics.NoopSink{},
	}

	if opts == nil {
		return o
	}

	if len(opts.Addr) > 0 {
		o.Addr = opts.Addr
	}

	if opts.Logger != nil {
		o.Logger = opts.Logger
	}

	if opts.Sink != nil {
		o.Sink = opts.Sink
	}

	o.MaxConcurrentTasks = opts.MaxConcurrentTasks
	o.MaxQueueSize = opts.MaxQueueSize
	o.DefaultTimeout = opts.DefaultTimeout
	o.DefaultRetryDelay = opts.DefaultRetryDelay
	o.MaxRetryDelay = opts.MaxRetryDelay
	o.RetryBackoffFactor = opts.RetryBackoffFactor
	o.PollInterval = opts.PollInterval
	o.CleanupInterval = opts.CleanupInterval
	o.RetentionPeriod = opts.RetentionPeriod
	o.MaxTaskHistory = opts.MaxTaskHistory

	return o
}
