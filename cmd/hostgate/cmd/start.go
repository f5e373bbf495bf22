package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hostgate/hostgate/internal/adapter/inbound/admin"
	gatemetrics "github.com/hostgate/hostgate/internal/adapter/inbound/metrics"
	"github.com/hostgate/hostgate/internal/adapter/inbound/tcp"
	"github.com/hostgate/hostgate/internal/adapter/outbound/dialer"
	"github.com/hostgate/hostgate/internal/config"
	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/internal/domain/route"
	"github.com/hostgate/hostgate/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the proxy server",
	Long: `Start the hostgate proxy server.

Routes are read from hostgate.yaml: CEL condition routes are tried first, in
the order they are configured, then exact virtual-host matches, then the "*"
wildcard route.

Examples:
  # Start with config file settings
  hostgate start

  # Start with a specific config file
  hostgate --config /path/to/hostgate.yaml start`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop() // restore default: next Ctrl+C is an immediate exit.
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("hostgate stopped")
	return nil
}

// run wires the route table, proxy core, admin API, and metrics endpoint
// together and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsSet := gatemetrics.NewSet(reg)

	for i := range cfg.Routes {
		if cfg.Routes[i].Backend.DialTimeout == "" {
			cfg.Routes[i].Backend.DialTimeout = cfg.Server.DialTimeout
		}
	}
	for i := range cfg.ConditionRoutes {
		if cfg.ConditionRoutes[i].Backend.DialTimeout == "" {
			cfg.ConditionRoutes[i].Backend.DialTimeout = cfg.Server.DialTimeout
		}
	}

	table, err := buildTable(cfg.Routes)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	defaultResolver := route.NewDefaultResolver(table)

	var resolver route.Resolver = defaultResolver
	if len(cfg.ConditionRoutes) > 0 {
		celResolver, err := route.NewCELResolver(defaultResolver, logger)
		if err != nil {
			return fmt.Errorf("condition_routes: %w", err)
		}
		conditions, err := buildConditionRoutes(cfg.ConditionRoutes)
		if err != nil {
			return fmt.Errorf("condition_routes: %w", err)
		}
		celResolver.SetRoutes(conditions)
		resolver = celResolver
	}

	d := dialer.New(metricsSet)
	proxyServer := service.New(resolver, d, metricsSet, logger)
	proxyServer.AddRequestInterceptor(intercept.HeaderInjector{Name: "X-Forwarded-By", Value: "hostgate"})

	group := make(chan error, 3)
	running := 0

	running++
	go func() {
		group <- tcp.Listen(ctx, cfg.Server.ListenAddr, proxyServer, logger)
	}()

	if cfg.Admin.Enabled {
		adminServer := admin.NewServer(cfg.Admin.ListenAddr, proxyServer, cfg.Admin.TokenHash, logger)
		running++
		go func() {
			group <- adminServer.Run(ctx)
		}()
	}

	if cfg.Metrics.Enabled {
		running++
		go func() {
			group <- runMetricsServer(ctx, cfg.Metrics.ListenAddr, reg, logger)
		}()
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-group; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildTable(routes []config.RouteConfig) (*route.Table, error) {
	entries := make([]route.Entry, 0, len(routes))
	for _, r := range routes {
		ep, err := backendToEndpoint(r.Backend)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Host, err)
		}
		entries = append(entries, route.Entry{Host: r.Host, Endpoint: ep})
	}
	return route.Build(entries), nil
}

func buildConditionRoutes(routes []config.ConditionRouteConfig) ([]route.ConditionRoute, error) {
	out := make([]route.ConditionRoute, 0, len(routes))
	for _, r := range routes {
		ep, err := backendToEndpoint(r.Backend)
		if err != nil {
			return nil, fmt.Errorf("condition route %q: %w", r.Name, err)
		}
		out = append(out, route.ConditionRoute{Expression: r.Condition, Endpoint: ep})
	}
	return out, nil
}

func backendToEndpoint(b config.BackendConfig) (route.Endpoint, error) {
	var ep route.Endpoint
	if b.DialTimeout != "" {
		timeout, err := time.ParseDuration(b.DialTimeout)
		if err != nil {
			return route.Endpoint{}, err
		}
		ep.DialTimeout = timeout
	}
	if b.Path != "" {
		ep.Kind = route.KindIPC
		ep.Path = b.Path
		return ep, nil
	}
	ep.Kind = route.KindTCP
	host, port, err := splitHostPort(b.Address)
	if err != nil {
		return route.Endpoint{}, err
	}
	ep.Host, ep.Port = host, port
	return ep, nil
}

func splitHostPort(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return host, port, nil
}

func runMetricsServer(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: serve: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
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

// pidFilePath returns the standard location for the hostgate PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".hostgate", "server.pid")
	}
	return filepath.Join(os.TempDir(), "hostgate-server.pid")
}

// writePIDFile writes the current process PID to the given path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
