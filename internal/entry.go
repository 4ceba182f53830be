// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/omnibar/internal/api"
	"github.com/starford/omnibar/internal/browser"
	"github.com/starford/omnibar/internal/classifier"
	"github.com/starford/omnibar/internal/journal"
	"github.com/starford/omnibar/internal/mcpserver"
	"github.com/starford/omnibar/internal/metrics"
	"github.com/starford/omnibar/internal/models"
	"github.com/starford/omnibar/internal/navservice"
	"github.com/starford/omnibar/internal/sse"
	"github.com/starford/omnibar/internal/surface"
	"github.com/starford/omnibar/internal/watch"
	pkgconfig "github.com/starford/omnibar/pkg/config"
)

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// reloader re-reads path and swaps in the new search settings. Other sections
// need a restart to take effect.
func reloader(path string, resolver *classifier.Current, logger *slog.Logger) watch.ReloadFunc {
	return func() error {
		cfg := NewDefaultConfig()
		if err := pkgconfig.Load(path, cfg); err != nil {
			return err
		}
		r := cfg.Search.Resolver()
		resolver.Store(r)
		logger.Info("search settings reloaded",
			slog.String("endpoint", r.Endpoint()),
			slog.String("encoding", r.Encoding()))
		return nil
	}
}

// Run starts the HTTP service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("search_endpoint", cfg.Search.Endpoint),
		slog.String("search_encoding", cfg.Search.Encoding),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	collector := metrics.New(metrics.NewRegistry())

	resolver := classifier.NewCurrent(cfg.Search.Resolver())
	httpSurface := surface.NewHTTP(cfg.Browser.Timeout, cfg.Browser.UserAgent, logger)
	httpSurface.Observe(collector.ObservePageLoad)
	shell := browser.NewShell(httpSurface, resolver,
		browser.WithHomePage(cfg.Browser.HomePage),
		browser.WithLogger(logger))

	broker := sse.NewBroker(2*time.Second, func() any { return shell.State() })
	defer broker.Close()

	shell.Subscribe(broker.PublishPageEvent)
	shell.Subscribe(journal.Listener(db, logger, func(models.Visit) { broker.NotifyVisit() }))

	svc := navservice.NewService(resolver, shell, db, collector)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.Count(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"journal unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", collector.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if app.configPath != "" {
		g.Go(func() error {
			if err := watch.File(gCtx, app.configPath, watch.DefaultDebounce, logger, reloader(app.configPath, resolver, logger)); err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so background watchers stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	resolver := classifier.NewCurrent(cfg.Search.Resolver())
	shell := browser.NewShell(
		surface.NewHTTP(cfg.Browser.Timeout, cfg.Browser.UserAgent, logger),
		resolver,
		browser.WithHomePage(cfg.Browser.HomePage),
		browser.WithLogger(logger))
	shell.Subscribe(journal.Listener(db, logger, nil))

	srv := mcpserver.New(navservice.NewService(resolver, shell, db, nil), app.version)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// Open resolves input, loads it once through the HTTP surface and writes the
// final URL and title to w. With an empty input the home page is loaded.
func Open(ctx context.Context, w io.Writer, input string, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	shell := browser.NewShell(
		surface.NewHTTP(cfg.Browser.Timeout, cfg.Browser.UserAgent, logger),
		cfg.Search.Resolver(),
		browser.WithHomePage(cfg.Browser.HomePage),
		browser.WithLogger(logger))

	if input == "" {
		shell.Home(ctx)
	} else {
		shell.Submit(ctx, input)
	}

	st := shell.State()
	if st.LastError != "" {
		return fmt.Errorf("open %s: %s", st.URL, st.LastError)
	}
	_, err := fmt.Fprintf(w, "%s\t%s\n", st.AddressBar, st.Title)
	return err
}
