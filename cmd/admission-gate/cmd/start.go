package cmd

import (
	"context"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Admission-Gate/Admissiongate/internal/adapter/inbound/admin"
	"github.com/Admission-Gate/Admissiongate/internal/adapter/inbound/http"
	"github.com/Admission-Gate/Admissiongate/internal/adapter/outbound/domainsfile"
	"github.com/Admission-Gate/Admissiongate/internal/adapter/outbound/memory"
	"github.com/Admission-Gate/Admissiongate/internal/adapter/outbound/redisstore"
	"github.com/Admission-Gate/Admissiongate/internal/config"
	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
	"github.com/Admission-Gate/Admissiongate/internal/domain/egress"
	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
	"github.com/Admission-Gate/Admissiongate/internal/service"
	"github.com/Admission-Gate/Admissiongate/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the admission gate server",
	Long: `Start the Admission Gate server.

The gate fronts an application with an admission chain: requests are
rate limited per client address, per route, and per authenticated
subject, request fields carrying outbound URLs are checked against the
egress allow-list, and every response carries the standard security
headers.

With storage.backend "redis" the window counters are shared across
replicas. The default in-memory backend needs no external services but
only counts requests that reach this process.

Examples:
  # Start with config file settings
  admission-gate start

  # Start in development mode (debug logging, echo handler)
  admission-gate start --dev

  # Start with a specific config file
  admission-gate --config /path/to/config.yaml start`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging, echo handler, seeded allow-list)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration (without validation, so CLI flags can override first)
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override dev mode from CLI flag
	if devMode {
		cfg.DevMode = true
	}

	// Apply dev defaults (seeds the allow-list and admin key in dev mode)
	cfg.SetDevDefaults()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Create signal context for graceful shutdown.
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop() // Restore default: next Ctrl+C = immediate exit.
	}()

	// Setup logger to stderr.
	// Priority: DevMode=true -> debug, otherwise use configured log_level
	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug // DevMode always forces debug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	// Log config file used if any
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// Write PID file so "admission-gate stop" can find us.
	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("admission-gate stopped")
	return nil
}

// run wires the gate together and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.DevMode {
		logger.Warn("DEVELOPMENT MODE: debug logging and a seeded egress allow-list; do not run in production")
	}

	// Tracing first so everything below can pick up the tracer.
	tracing, err := telemetry.Setup(telemetry.Config{
		Enabled:        cfg.Telemetry.TracesEnabled,
		ServiceName:    "admission-gate",
		ServiceVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// Duration knobs. Validate already rejected unparsable values; the
	// defaults here only cover empty strings.
	window := durationOr(cfg.Admission.Window, time.Minute, "admission.window", logger)
	grace := durationOr(cfg.Admission.Grace, 10*time.Second, "admission.grace", logger)
	storeTimeout := durationOr(cfg.Admission.StoreTimeout, time.Second, "admission.store_timeout", logger)
	lookupTimeout := durationOr(cfg.Egress.LookupTimeout, time.Second, "egress.lookup_timeout", logger)
	shutdownTimeout := durationOr(cfg.Server.ShutdownTimeout, 10*time.Second, "server.shutdown_timeout", logger)

	// Counter store backend.
	var store admission.CounterStore
	switch cfg.Storage.Backend {
	case "redis":
		redisStore, err := redisstore.New(redisstore.Config{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Timeout:  storeTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = redisStore.Close() }()
		store = redisStore
		logger.Info("counter store ready", "backend", "redis", "addr", cfg.Storage.Redis.Addr)
	default:
		memStore := memory.NewCounterStore()
		memStore.StartCleanup(ctx)
		defer func() { _ = memStore.Close() }()
		store = memStore
		logger.Info("counter store ready", "backend", "memory")
	}

	// Route policy table. Every route shares the configured window.
	policies := make([]admission.Policy, 0, len(cfg.Admission.Policies))
	for _, p := range cfg.Admission.Policies {
		policies = append(policies, admission.Policy{
			Route:  p.Route,
			Limit:  p.Limit,
			Window: window,
		})
	}
	table := admission.NewPolicyTable(policies, admission.Policy{
		Limit:  cfg.Admission.DefaultLimit,
		Window: window,
	})

	violations := admission.NewViolationLog(cfg.Admission.ViolationBuffer)

	admissionService := service.NewAdmissionService(store, table, violations, logger,
		service.WithIPLimit(cfg.Admission.IPLimit),
		service.WithUserLimit(cfg.Admission.UserLimit),
		service.WithGrace(grace),
		service.WithStoreTimeout(storeTimeout),
		service.WithTracer(tracing.Tracer()),
	)
	logger.Info("admission controller ready",
		"window", window.String(),
		"default_limit", cfg.Admission.DefaultLimit,
		"ip_limit", cfg.Admission.IPLimit,
		"user_limit", cfg.Admission.UserLimit,
		"route_policies", len(policies),
	)

	// Egress allow-list, optionally persisted to a domains file. A
	// non-empty file wins over the static config list so admin API
	// mutations from earlier runs survive restarts.
	domains := egress.NewDomainSet(cfg.Egress.AllowedDomains)
	var domainsFile *domainsfile.Store
	if cfg.Egress.DomainsFile != "" {
		domainsFile = domainsfile.New(cfg.Egress.DomainsFile, logger)
		persisted, err := domainsFile.Load()
		if err != nil {
			return fmt.Errorf("failed to load domains file: %w", err)
		}
		if persisted != nil {
			domains.Replace(persisted)
			logger.Info("egress allow-list loaded from file",
				"path", cfg.Egress.DomainsFile,
				"domains", len(persisted),
			)
		}
	}

	guard := egress.NewGuard(domains, logger, egress.WithLookupTimeout(lookupTimeout))
	guardService := service.NewEgressGuardService(guard, cfg.Egress.URLParamKeys, logger,
		service.WithEgressTracer(tracing.Tracer()),
	)
	egressAdmin := service.NewEgressAdminService(domains, domainsFile, logger)
	logger.Info("egress guard ready",
		"domains", len(domains.Snapshot()),
		"url_param_keys", strings.Join(cfg.Egress.URLParamKeys, ","),
		"persistent", egressAdmin.Persistent(),
	)

	resolver := identity.NewResolver(cfg.Identity.TrustedHeaders)

	// Admin API. Without an api_key_hash only localhost clients get in.
	var adminHandler stdhttp.Handler
	if cfg.Admin.Enabled {
		adminHandler = admin.NewAdminAPIHandler(
			admin.WithAdmissionService(admissionService),
			admin.WithEgressAdminService(egressAdmin),
			admin.WithResolver(resolver),
			admin.WithAPIKeyHash(cfg.Admin.APIKeyHash),
			admin.WithRateLimit(cfg.Admin.Rate, cfg.Admin.Burst),
			admin.WithAPILogger(logger),
		).Routes()
		if cfg.Admin.APIKeyHash == "" {
			logger.Info("admin API restricted to localhost (no api_key_hash configured)")
		}
	}

	healthChecker := http.NewHealthChecker(store, violations, Version)

	// The protected application. The echo handler lets the chain be
	// exercised end to end without a backend.
	app := http.NotFoundHandler()
	if cfg.DevMode {
		app = http.EchoHandler()
	}

	transport := http.NewTransport(admissionService, guardService, resolver,
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithLogger(logger),
		http.WithAppHandler(app),
		http.WithAdminHandler(adminHandler),
		http.WithHealthChecker(healthChecker),
		http.WithMaxBodyBytes(cfg.Limits.MaxBodyBytes),
		http.WithShutdownTimeout(shutdownTimeout),
	)

	printBanner(Version, cfg.Server.HTTPAddr, cfg.DevMode, cfg.Admin.Enabled, len(domains.Snapshot()), len(policies))

	return transport.Start(ctx)
}

// durationOr parses a duration from config, falling back to def when the
// value is empty or unparsable.
func durationOr(value string, def time.Duration, name string, logger *slog.Logger) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid "+name+", using default", "value", value, "default", def.String())
		return def
	}
	return d
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printBanner(version, httpAddr string, devMode, adminEnabled bool, domainCount, policyCount int) {
	const (
		reset  = "\033[0m"
		bold   = "\033[1m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		dim    = "\033[2m"
	)

	gateURL := fmt.Sprintf("http://localhost%s/", httpAddr)
	if !strings.HasPrefix(httpAddr, ":") {
		gateURL = fmt.Sprintf("http://%s/", httpAddr)
	}

	adminURL := dim + "disabled" + reset
	if adminEnabled {
		adminURL = fmt.Sprintf("http://localhost%s/admin/api/v1", httpAddr)
		if !strings.HasPrefix(httpAddr, ":") {
			adminURL = fmt.Sprintf("http://%s/admin/api/v1", httpAddr)
		}
	}

	modeStr := green + "production" + reset
	if devMode {
		modeStr = yellow + "development" + reset + dim + " (echo handler)" + reset
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  %s%s AdmissionGate %s%s\n", bold, cyan, version, reset)
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Gate:", gateURL)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Admin API:", adminURL)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Mode:", modeStr)
	fmt.Fprintf(os.Stderr, "  %-14s %d domains allowed\n", "Egress:", domainCount)
	fmt.Fprintf(os.Stderr, "  %-14s %d route overrides\n", "Policies:", policyCount)
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "\n")
}

// pidFilePath returns the standard location for the Admission Gate PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".admission-gate", "server.pid")
	}
	return filepath.Join(os.TempDir(), "admission-gate-server.pid")
}

// writePIDFile writes the current process PID to the given path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
