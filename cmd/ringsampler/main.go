// Package main implements ringsampler, a sensor-sampling stage that buffers
// readings in a fixed-capacity ring and drains them in batches to a sink.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/ringbuf/config"
	"github.com/c360/ringbuf/health"
	"github.com/c360/ringbuf/metric"
	"github.com/c360/ringbuf/sampler"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ringsampler"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cliCfg, err := parseFlags(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat, stderr)
	slog.SetDefault(logger)

	logger.Info("Starting ringsampler",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.WriteConfig != "" {
		if err := cfg.SaveToFile(cliCfg.WriteConfig); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		logger.Info("Configuration written", "path", cliCfg.WriteConfig)
		return nil
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		_, _ = fmt.Fprint(stdout, cfg.String())
		return nil
	}

	return serve(ctx, cfg, cliCfg.ShutdownTimeout, logger, stdout)
}

// loadConfig layers the config file and flag overrides over the defaults and
// validates the result.
func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()

	var (
		cfg *config.Config
		err error
	)
	if cliCfg.ConfigPath != "" {
		cfg, err = loader.LoadFile(cliCfg.ConfigPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.MetricsPort >= 0 {
		cfg.Metrics.Port = cliCfg.MetricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cmp, err := config.CompareVersions(cfg.Version, config.SupportedVersion); err == nil && cmp > 0 {
		slog.Warn("Configuration written for a newer release, unknown keys are ignored",
			"config_version", cfg.Version,
			"supported_version", config.SupportedVersion)
	}

	return cfg, nil
}

// serve runs the sampler until ctx is cancelled or a shutdown signal arrives.
func serve(ctx context.Context, cfg *config.Config, shutdownTimeout time.Duration, logger *slog.Logger, stdout io.Writer) error {
	monitor := health.NewMonitor()
	options := []sampler.Option{
		sampler.WithLogger(logger),
		sampler.WithFlushTimeout(shutdownTimeout),
		sampler.WithHealth(monitor),
	}

	if cfg.Metrics.Enabled {
		registry := metric.NewMetricsRegistry()
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, logger)
		server.SetHealthMonitor(monitor, appName)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				logger.Error("Metrics server shutdown failed", "error", err)
			}
		}()
		logger.Info("Metrics available", "address", server.Address())
		options = append(options, sampler.WithMetricsRegistry(registry))
	}

	sink, err := openSink(cfg.Sink.Path, stdout)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("Sink close failed", "error", err)
		}
	}()

	s, err := sampler.New(cfg, sink, options...)
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	defer func() { _ = s.Close() }()

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := s.Run(signalCtx); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}

	logger.Info("ringsampler shutdown complete")
	return nil
}

func openSink(path string, stdout io.Writer) (*sampler.LineSink, error) {
	if path == "" {
		return sampler.NewLineSink(stdout), nil
	}
	return sampler.OpenSink(path)
}
