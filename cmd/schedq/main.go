package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trungvx/schedq"
	"github.com/trungvx/schedq/internal/metrics"
)

func main() {
	addr := flag.String("addr", "", "Listen address (default :8080)")
	configFile := flag.String("config", "", "Path to YAML config file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	maxConcurrent := flag.Int("max-concurrent", 0, "Concurrency ceiling for running tasks")
	maxQueueSize := flag.Int("max-queue-size", 0, "Cap on total tracked tasks")
	drain := flag.Duration("drain-timeout", 30*time.Second, "How long shutdown waits for running tasks")

	flag.Parse()

	opts := &schedq.Options{}

	if len(*configFile) > 0 {
		cfg, err := loadFileConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if err := applyFileConfig(opts, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if len(cfg.LogLevel) > 0 {
			*logLevel = cfg.LogLevel
		}
	}

	// flags win over the config file
	if len(*addr) > 0 {
		opts.Addr = *addr
	}
	if *maxConcurrent > 0 {
		opts.MaxConcurrentTasks = *maxConcurrent
	}
	if *maxQueueSize > 0 {
		opts.MaxQueueSize = *maxQueueSize
	}

	opts.Logger = slog.New(slog.NewTextHandler(
		os.Stdout,
		&slog.HandlerOptions{
			Level: parseLevel(*logLevel),
		},
	))
	opts.Sink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)

	sq := schedq.New(opts)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	go func() {
		err := sq.Run()
		if err != nil {
			stop()
		}
	}()

	<-ctx.Done()

	if err := sq.Shutdown(*drain); err != nil {
		opts.Logger.
			With("err", err).
			Warn("shutdown did not drain cleanly")
	}
	sq.Close()

	os.Exit(0)
}

func applyFileConfig(opts *schedq.Options, cfg *fileConfig) error {
	opts.Addr = cfg.Addr
	opts.MaxConcurrentTasks = cfg.MaxConcurrentTasks
	opts.MaxQueueSize = cfg.MaxQueueSize
	opts.RetryBackoffFactor = cfg.RetryBackoffFactor
	opts.MaxTaskHistory = cfg.MaxTaskHistory

	var err error
	if opts.DefaultTimeout, err = parseDuration("defaultTimeout", cfg.DefaultTimeout); err != nil {
		return err
	}
	if opts.DefaultRetryDelay, err = parseDuration("defaultRetryDelay", cfg.DefaultRetryDelay); err != nil {
		return err
	}
	if opts.MaxRetryDelay, err = parseDuration("maxRetryDelay", cfg.MaxRetryDelay); err != nil {
		return err
	}
	if opts.CleanupInterval, err = parseDuration("cleanupInterval", cfg.CleanupInterval); err != nil {
		return err
	}
	if opts.RetentionPeriod, err = parseDuration("retentionPeriod", cfg.RetentionPeriod); err != nil {
		return err
	}

	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
