package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/adapter/outbound/memory"
	"github.com/unikraft-shop/storefront/internal/adapter/outbound/shopapi"
	"github.com/unikraft-shop/storefront/internal/adapter/outbound/sqlite"
	"github.com/unikraft-shop/storefront/internal/adapter/outbound/state"
	"github.com/unikraft-shop/storefront/internal/app"
	"github.com/unikraft-shop/storefront/internal/config"
	"github.com/unikraft-shop/storefront/internal/domain/navigation"
	"github.com/unikraft-shop/storefront/internal/domain/session"
	"github.com/unikraft-shop/storefront/internal/telemetry"
)

// shutdownTimeout bounds the flush of traces and metrics on exit.
const shutdownTimeout = 5 * time.Second

// notifiedError marks an error the user has already seen as a notice.
type notifiedError struct {
	err error
}

func (e *notifiedError) Error() string { return e.err.Error() }
func (e *notifiedError) Unwrap() error { return e.err }

// notified wraps a shell error so Execute does not print it twice.
func notified(err error) error {
	if err == nil {
		return nil
	}
	return &notifiedError{err: err}
}

// storefront is the wired client for one command invocation.
type storefront struct {
	cfg      *config.Config
	logger   *slog.Logger
	storage  session.Storage
	provider *session.Provider
	client   *shopapi.Client
	nav      *navigation.Navigator
	shell    *app.Shell
	registry *prometheus.Registry
	tracing  *telemetry.Tracing

	closeStorage func() error
}

// newStorefront loads the configuration and wires every component.
// Screens render to out; notices and logs go to errOut.
func newStorefront(ctx context.Context, out, errOut io.Writer) (*storefront, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	if file := config.ConfigFileUsed(); file != "" {
		logger.Debug("loaded config", "file", file)
	}

	sf := &storefront{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		tracing:  telemetry.NoopTracing(),
	}
	metrics := telemetry.NewMetrics(sf.registry)

	if cfg.Tracing.Enabled {
		tr, err := telemetry.NewTracing(cfg.Tracing.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
		sf.tracing = tr
	}

	sf.storage, sf.closeStorage, err = openStorage(ctx, cfg, logger)
	if err != nil {
		_ = sf.tracing.Shutdown(ctx)
		return nil, err
	}
	logger.Debug("session storage ready", "backend", cfg.Session.Backend, "path", cfg.Session.Path)

	policy, err := session.NewExpiryPolicy(cfg.Session.ExpiryPolicy, cfg.SessionLeeway(), cfg.Session.ValidWhen)
	if err != nil {
		sf.Close()
		return nil, fmt.Errorf("invalid session.expiry_policy: %w", err)
	}

	sf.provider = session.NewProvider(sf.storage,
		session.WithPolicy(policy),
		session.WithLogger(logger),
		session.WithTransitionHook(metrics.ObserveTransition),
	)

	sf.client = shopapi.NewClient(cfg.API.BaseURL,
		shopapi.WithTimeout(cfg.APITimeout()),
		shopapi.WithLogger(logger),
		shopapi.WithMetrics(metrics),
		shopapi.WithTracer(sf.tracing.Tracer),
	)

	sf.nav = navigation.NewNavigator(navigation.NewRouter())
	sf.shell = app.NewShell(sf.client, sf.provider, sf.nav, app.NewWriterNotifier(errOut), out,
		app.WithKeepTokenOnExpiry(cfg.Session.KeepTokenOnExpiry),
		app.WithLogger(logger),
	)
	return sf, nil
}

// openStorage opens the configured session backend. The returned close
// func may be nil.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Storage, func() error, error) {
	switch cfg.Session.Backend {
	case config.BackendSQLite:
		st, err := sqlite.Open(ctx, cfg.Session.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return st, st.Close, nil
	case config.BackendMemory:
		return memory.NewStorage(), nil, nil
	default:
		return state.NewFileStorage(cfg.Session.Path, logger), nil, nil
	}
}

// Close flushes traces, writes the metrics textfile and releases the storage.
func (sf *storefront) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sf.tracing.Shutdown(ctx); err != nil {
		sf.logger.Warn("failed to flush traces", "error", err)
	}
	if path := sf.cfg.Metrics.Textfile; path != "" {
		if err := telemetry.WriteTextfile(path, sf.registry); err != nil {
			sf.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}
	if sf.closeStorage != nil {
		if err := sf.closeStorage(); err != nil {
			sf.logger.Warn("failed to close session storage", "error", err)
		}
	}
}

// withStorefront runs fn with a wired storefront and a context cancelled
// by Ctrl+C.
func withStorefront(cmd *cobra.Command, fn func(ctx context.Context, sf *storefront) error) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, interruptSignals()...)
	defer stop()

	sf, err := newStorefront(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sf.Close()

	return fn(ctx, sf)
}

// parseLogLevel converts a log_level value to a slog.Level.
// Unknown values fall back to warn.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
