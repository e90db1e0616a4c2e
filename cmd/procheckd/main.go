// procheckd -- Process Checker daemon: scans a flash region for process
// containers, verifies their credentials, and promotes unique processes
// into the Running set.
package main

import (
	"context"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/procheckd/internal/adminapi"
	"github.com/dantte-lp/procheckd/internal/config"
	"github.com/dantte-lp/procheckd/internal/credcheck"
	"github.com/dantte-lp/procheckd/internal/flash"
	"github.com/dantte-lp/procheckd/internal/loader"
	procmetrics "github.com/dantte-lp/procheckd/internal/metrics"
	"github.com/dantte-lp/procheckd/internal/notify"
	"github.com/dantte-lp/procheckd/internal/verify"
	appversion "github.com/dantte-lp/procheckd/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// rsaPublicExponent is the exponent assumed for every trusted key loaded
// from configuration. The wire format records only the modulus and
// derives key identity from it alone.
const rsaPublicExponent = 65537

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("procheckd starting",
		slog.String("version", appversion.Version),
		slog.String("flash_path", cfg.Flash.Path),
		slog.String("adminapi_addr", cfg.AdminAPI.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := procmetrics.NewCollector(reg)

	keys, err := buildKeyStore(cfg.Verifier.TrustedKeyModuli)
	if err != nil {
		logger.Error("failed to build trusted key store", slog.String("error", err.Error()))
		return 1
	}
	hashes := buildHashAllowlist(cfg.Verifier.AllowedHashes)

	verifier := verify.NewRSAVerifier(keys, hashes, logger)
	defer func() {
		if err := verifier.Close(); err != nil {
			logger.Warn("error joining verifier goroutines", slog.String("error", err.Error()))
		}
	}()

	checkPolicy := credcheck.Policy(credcheck.StrictPolicy{})
	if !cfg.Loader.RequireCredentials {
		checkPolicy = credcheck.PermissivePolicy{}
	}

	sink := loader.FanoutSink{collector, notify.New(logger)}

	driver := loader.NewDriver(cfg.Loader.Capacity, verifier, logger,
		loader.WithMaxRetries(cfg.Loader.MaxRetries),
		loader.WithCheckPolicy(checkPolicy),
		loader.WithSlotSink(sink),
		loader.WithPreferProgramHeader(cfg.Loader.PreferProgramHeader),
		loader.WithReadyNotify(cfg.Loader.ReadyNotify),
	)

	region, err := flash.Open(cfg.Flash.Path, cfg.Flash.BaseAddress)
	if err != nil {
		logger.Error("failed to open flash region", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := region.Close(); err != nil {
			logger.Warn("error closing flash region", slog.String("error", err.Error()))
		}
	}()

	if err := runServers(cfg, driver, region, reg, logger); err != nil {
		logger.Error("procheckd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("procheckd stopped")
	return 0
}

// runServers loads the flash region once at startup, then runs the admin
// API and metrics HTTP servers using an errgroup with signal-aware
// context for graceful shutdown.
func runServers(
	cfg *config.Config,
	driver *loader.Driver,
	region *flash.Region,
	reg *prometheus.Registry,
	logger *slog.Logger,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := driver.Run(ctx, region); err != nil {
		if errors.Is(err, loader.ErrCapacityExhausted) {
			logger.Warn("slot table exhausted before flash region was fully scanned",
				slog.String("error", err.Error()),
			)
		} else {
			return fmt.Errorf("process-load pipeline: %w", err)
		}
	}

	adminSrv := newAdminAPIServer(cfg.AdminAPI, driver, logger)
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	g, gCtx := errgroup.WithContext(ctx)

	startHTTPServers(gCtx, g, cfg, adminSrv, metricsSrv, logger)

	g.Go(func() error {
		return runWatchdog(gCtx, logger)
	})

	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(gCtx, sigHUP, logger)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, adminSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// startHTTPServers registers the admin API and metrics HTTP server
// goroutines.
func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	adminSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("admin API server listening", slog.String("addr", cfg.AdminAPI.Addr))
		return listenAndServe(ctx, &lc, adminSrv, cfg.AdminAPI.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

// -------------------------------------------------------------------------
// Trust Material
// -------------------------------------------------------------------------

// buildKeyStore decodes hex-encoded RSA moduli from configuration into a
// verify.TrustedKeyStore. Every key shares the well-known public exponent,
// since the wire format never transmits one.
func buildKeyStore(moduli []string) (*verify.MapKeyStore, error) {
	keys := make([]*rsa.PublicKey, 0, len(moduli))
	for _, m := range moduli {
		n, err := hex.DecodeString(m)
		if err != nil {
			return nil, fmt.Errorf("decode trusted key modulus %q: %w", m, err)
		}
		keys = append(keys, &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: rsaPublicExponent,
		})
	}
	return verify.NewMapKeyStore(keys...), nil
}

// buildHashAllowlist decodes hex-encoded digests from configuration into a
// verify.HashAllowlist.
func buildHashAllowlist(hashes []string) verify.MapHashAllowlist {
	decoded := make([][]byte, 0, len(hashes))
	for _, h := range hashes {
		b, err := hex.DecodeString(h)
		if err != nil {
			continue
		}
		decoded = append(decoded, b)
	}
	return verify.NewMapHashAllowlist(decoded...)
}

// -------------------------------------------------------------------------
// Systemd Integration — sd_notify + watchdog
// -------------------------------------------------------------------------

// notifyStopping sends STOPPING=1 to systemd, indicating graceful shutdown
// has begun.
func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at half the
// configured watchdog interval. Exits immediately if no watchdog is
// configured.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP Handling
// -------------------------------------------------------------------------

// handleSIGHUP listens for SIGHUP and logs each one it receives. It does
// not reload the configuration or the log level. The process-load
// pipeline runs exactly once at boot; SIGHUP does not re-scan the flash
// region or re-evaluate slot promotions. Blocks until ctx is cancelled.
func handleSIGHUP(ctx context.Context, sigHUP <-chan os.Signal, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP: nothing is reloaded, process-load pipeline is not re-run")
		}
	}
}

// -------------------------------------------------------------------------
// Server Setup
// -------------------------------------------------------------------------

// listenAndServe creates a TCP listener using lc (for noctx-style control
// over listener creation) and serves srv on it until shutdown.
func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// newAdminAPIServer creates an HTTP server for the read-only admin API.
func newAdminAPIServer(cfg config.AdminAPIConfig, driver *loader.Driver, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           adminapi.NewRouter(driver, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newMetricsServer creates an HTTP server for the Prometheus metrics endpoint.
func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// gracefulShutdown notifies systemd and shuts down the given HTTP servers,
// draining active connections within shutdownTimeout.
func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}
	return shutdownErr
}

// loadConfig loads configuration from path, or returns defaults if path is
// empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// newLoggerWithLevel creates a structured logger whose minimum level is
// read from level. run sets level once from configuration at startup.
func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
