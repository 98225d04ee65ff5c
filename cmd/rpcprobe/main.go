package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/truenas/ntirpc/internal/logger"
	"github.com/truenas/ntirpc/pkg/config"
	"github.com/truenas/ntirpc/pkg/metrics"
	promMetrics "github.com/truenas/ntirpc/pkg/metrics/prometheus"
	"github.com/truenas/ntirpc/pkg/probe"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/ntirpc/config.yaml)")
	initConfig := flag.Bool("init", false, "Write a default config file and exit")
	force := flag.Bool("force", false, "Overwrite an existing config file with -init")

	address := flag.String("address", "", "Server address, host:port")
	program := flag.Uint("prog", 0, "RPC program number")
	version := flag.Uint("vers", 0, "RPC program version")
	procedure := flag.Uint("proc", 0, "RPC procedure number (0 = NULL)")
	count := flag.Uint("count", 0, "Number of attempts")
	timeout := flag.Duration("timeout", 0, "Timeout per attempt")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")

	flag.Parse()

	if *initConfig {
		path := *configPath
		var err error
		if path == "" {
			path, err = config.InitConfig(*force)
		} else {
			err = config.InitConfigAt(path, *force)
		}
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", path)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags that were given explicitly win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Probe.Address = *address
		case "prog":
			cfg.Probe.Program = uint32(*program)
		case "vers":
			cfg.Probe.Version = uint32(*version)
		case "proc":
			cfg.Probe.Procedure = uint32(*procedure)
		case "count":
			cfg.Probe.Attempts = *count
		case "timeout":
			cfg.Probe.Timeout = *timeout
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	closeLog, err := configureLogging(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer func() { _ = closeLog.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var probeMetrics metrics.ProbeMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		probeMetrics = promMetrics.NewProbeMetrics()

		srv := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	p := probe.New(cfg.Probe, probeMetrics)

	logger.Info("Probing %s prog=%d vers=%d proc=%d attempts=%d session=%s",
		cfg.Probe.Address, cfg.Probe.Program, cfg.Probe.Version, cfg.Probe.Procedure,
		cfg.Probe.Attempts, p.Session())

	results, runErr := p.Run(ctx)

	failed := 0
	for _, res := range results {
		fmt.Printf("%s attempt %d: %s\n", cfg.Probe.Address, res.Attempt, res)
		if !res.OK() {
			failed++
		}
	}

	if runErr != nil {
		logger.Warn("Probe run interrupted: %v", runErr)
	}

	if cfg.Metrics.Enabled {
		// leave a moment for a final scrape before the endpoint goes away
		logger.Debug("Metrics endpoint stays up for 1s after the run")
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
	}

	if failed > 0 || runErr != nil || len(results) == 0 {
		logger.Error("%d of %d attempts failed", failed, len(results))
		return 1
	}
	return 0
}

// configureLogging applies the logging section and returns a closer for the
// log file, if one was opened.
func configureLogging(cfg config.LoggingConfig) (io.Closer, error) {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		return f, nil
	}

	return io.NopCloser(nil), nil
}
