// Package main implements the entry point for tentacle-nftables, a service
// that polls the local nftables NAT ruleset and publishes rule telemetry
// onto NATS with change detection, mirroring its own logs onto the bus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joyautomation/tentacle-nftables/buslog"
	"github.com/joyautomation/tentacle-nftables/config"
	"github.com/joyautomation/tentacle-nftables/metric"
	"github.com/joyautomation/tentacle-nftables/natsclient"
	"github.com/joyautomation/tentacle-nftables/ruleset"
	"github.com/joyautomation/tentacle-nftables/schema"
	"github.com/joyautomation/tentacle-nftables/telemetry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "tentacle-nftables"
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

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	base, levelVar := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(base)

	slog.Info("Starting tentacle-nftables",
		"version", Version,
		"build_time", BuildTime,
		"namespace", cfg.Module.Namespace,
		"strategy", cfg.Publisher.Strategy)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	registry := metric.NewRegistry()
	metrics := registry.CoreMetrics()

	logger := buslog.New(appName, base, levelVar, metrics)

	busClient, err := setupBus(signalCtx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		_ = busClient.Close(closeCtx)
	}()

	// Structured log records flow to service.logs.{serviceType}.{moduleId}
	// alongside the local sink. Installed unconditionally: mirror failures
	// are absorbed while the bus is down and records flow once it connects.
	logger = logger.WithBus(busClient, cfg.Module.ServiceType, cfg.Module.ID)
	logger.Info("log mirroring enabled",
		"serviceType", cfg.Module.ServiceType, "moduleId", cfg.Module.ID)

	publisher, reader, parser, err := setupTelemetry(cfg, logger, metrics)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(signalCtx)

	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return serveMetrics(gCtx, cfg.Metrics.Listen, registry)
		})
	}

	g.Go(func() error {
		return pollLoop(gCtx, cfg, logger, metrics, busClient, publisher, reader, parser)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	slog.Info("tentacle-nftables shutdown complete")
	return nil
}

// initializeCLI parses flags and handles version/help
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	return cliCfg, false, nil
}

// loadConfig loads and validates the layered configuration
func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	for _, layer := range cliCfg.ConfigPaths {
		loader.AddLayer(layer)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// setupBus creates and connects the NATS client. A connection failure at
// startup is non-fatal: the service degrades to local-only logging and
// suppressed telemetry until the client reconnects.
func setupBus(
	ctx context.Context,
	cfg *config.Config,
	logger *buslog.Logger,
	metrics *metric.Metrics,
) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithMetrics(metrics),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
	}

	if cfg.NATS.Username != "" && cfg.NATS.Password != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.TLS.Enabled {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLS.CertFile, cfg.NATS.TLS.KeyFile, cfg.NATS.TLS.CAFile))
	}

	client, err := natsclient.NewClient(cfg.NATS.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	logger.Info("connecting to NATS", "url", cfg.NATS.URLs[0])
	if err := client.Connect(ctx); err != nil {
		logger.Warn("NATS connection failed, continuing degraded", "error", err)
		return client, nil
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		logger.Warn("NATS connection not ready, continuing degraded", "error", err)
	}

	return client, nil
}

// setupTelemetry wires schema registry, encoder, change cache and publisher
func setupTelemetry(
	cfg *config.Config,
	logger *buslog.Logger,
	metrics *metric.Metrics,
) (*telemetry.Publisher, *ruleset.Reader, *ruleset.Parser, error) {
	schemas := schema.NewRegistry()
	if err := schemas.Register(ruleset.Template()); err != nil {
		return nil, nil, nil, fmt.Errorf("register schema: %w", err)
	}
	logger.Debug("schema templates registered", "templates", schemas.Names())

	var encoder telemetry.Encoder
	switch cfg.Publisher.Strategy {
	case config.StrategyStructured:
		template, err := schemas.Lookup(ruleset.Template().Name)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("resolve schema: %w", err)
		}
		encoder = telemetry.NewStructuredEncoder(cfg.Module.ID, cfg.Module.DeviceID, template.Ref())
	default:
		encoder = telemetry.NewFlattenedEncoder(cfg.Module.ID, cfg.Module.DeviceID)
	}

	publisher := telemetry.NewPublisher(
		cfg.Module.Namespace,
		encoder,
		telemetry.NewChangeCache(),
		logger.Named("publisher"),
		metrics,
	)

	reader := ruleset.NewReader(cfg.Ruleset.Command, cfg.Ruleset.Timeout)
	parser := ruleset.NewParser(logger.Named("parser"))

	return publisher, reader, parser, nil
}

// pollLoop reads the ruleset on a fixed interval, parses it, and pushes the
// snapshot through the publisher. Read failures are hard failures for the
// cycle: nothing is published from a partial snapshot.
func pollLoop(
	ctx context.Context,
	cfg *config.Config,
	logger *buslog.Logger,
	metrics *metric.Metrics,
	bus telemetry.Bus,
	publisher *telemetry.Publisher,
	reader *ruleset.Reader,
	parser *ruleset.Parser,
) error {
	ticker := time.NewTicker(cfg.Publisher.Interval)
	defer ticker.Stop()

	logger.Info("telemetry loop started", "interval", cfg.Publisher.Interval.String())

	runCycle(ctx, logger, metrics, bus, publisher, reader, parser)

	for {
		select {
		case <-ctx.Done():
			logger.Info("telemetry loop stopped")
			return ctx.Err()
		case <-ticker.C:
			runCycle(ctx, logger, metrics, bus, publisher, reader, parser)
		}
	}
}

// runCycle performs one read-parse-publish cycle
func runCycle(
	ctx context.Context,
	logger *buslog.Logger,
	metrics *metric.Metrics,
	bus telemetry.Bus,
	publisher *telemetry.Publisher,
	reader *ruleset.Reader,
	parser *ruleset.Parser,
) {
	text, err := reader.Read(ctx)
	if err != nil {
		metrics.RecordRulesetRead("error")
		logger.Error("ruleset read failed", "error", err)
		return
	}
	metrics.RecordRulesetRead("ok")

	rules := parser.Parse(text)
	publisher.Publish(ctx, bus, ruleset.Entities(rules))
}

// serveMetrics exposes the Prometheus endpoint until the context ends
func serveMetrics(ctx context.Context, listen string, registry *metric.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())

	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint listening", "addr", listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}
