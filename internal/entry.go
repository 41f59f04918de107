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

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/pages"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/ratelimit"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
	"github.com/starford/folio/internal/viewport"
)

const (
	staleThrottle = 2 * time.Second
	imagesDir     = "images"
)

var errConfigRequired = errors.New("config is required")

// content is the loaded catalog plus the directory it came from. provider
// is nil when the built-in catalog is served.
type content struct {
	store    *catalog.Store
	provider storage.Provider
}

// sinks is the contact sink in effect and whatever must be closed with it.
type sinks struct {
	sink     contact.Sink
	messages api.MessageLister
	closers  []io.Closer
}

func (s *sinks) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("contact_sink", cfg.Contact.Sink),
		slog.Bool("rate_limit", cfg.Redis.URL != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	cnt, err := loadContent(cfg.Content, logger)
	if err != nil {
		return err
	}

	sk, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sk.Close()

	idx, err := openIndex(ctx, cfg.Search, cnt.store.Current(), logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	svcOpts := []portfolio.Option{
		portfolio.WithSuccessWindow(cfg.Contact.SuccessWindow),
		portfolio.WithSearch(idx),
	}
	if cfg.Redis.URL != "" {
		limiter, err := ratelimit.Dial(ctx, cfg.Redis.URL, cfg.Redis.Limit, cfg.Redis.Window, ratelimit.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		defer limiter.Close()
		svcOpts = append(svcOpts, portfolio.WithLimiter(limiter))
	}
	svc := portfolio.NewService(cnt.store, sk.sink, svcOpts...)

	// SSE broker.
	broker := sse.NewBroker(staleThrottle)
	defer broker.Close()

	views := viewport.NewHandler(pages.SectionResolver(svc), cfg.CORS.AllowedOrigins, logger)

	site, err := pages.NewHandler(svc, logger)
	if err != nil {
		return fmt.Errorf("init pages: %w", err)
	}

	apiRouter := api.NewRouter(api.Deps{
		Service:  svc,
		Messages: sk.messages,
		Events:   broker,
		Auth: api.AuthConfig{
			Enabled:   cfg.Auth.AuthEnabled(),
			Token:     cfg.Auth.Token,
			TokenHash: cfg.Auth.TokenHash,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q,"projects":%d,"viewports":%d,"subscribers":%d}`,
			app.version, svc.Catalog().Len(), views.Live(), broker.ClientCount())
	})

	r.Mount("/api", apiRouter)
	r.Handle("/ws/viewport", views)
	if cnt.provider != nil {
		r.Handle("/images/*", http.StripPrefix("/images", storage.AssetHandler(cnt.provider, imagesDir)))
	}
	site.Register(r)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Hot reload: swap the catalog and tell open pages they are stale.
	if cnt.provider != nil && cfg.Content.Watch {
		g.Go(func() error {
			return catalog.Watch(gCtx, cnt.store, cnt.provider, logger, func(kind string, c *catalog.Catalog) {
				if kind == catalog.EventReloaded {
					reindex(gCtx, idx, c, logger)
				}
				broker.PublishCatalogEvent(kind, c.Checksum(), c.Len())
			})
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

		timeout := cfg.App.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		// Event streams never go idle; end them so Shutdown can drain.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the catalog over MCP on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	cnt, err := loadContent(cfg.Content, logger)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx, cfg.Search, cnt.store.Current(), logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	if cnt.provider != nil && cfg.Content.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := catalog.Watch(watchCtx, cnt.store, cnt.provider, logger, func(kind string, c *catalog.Catalog) {
				if kind == catalog.EventReloaded {
					reindex(watchCtx, idx, c, logger)
				}
			})
			if err != nil {
				logger.Warn("watcher: not running", slog.String("error", err.Error()))
			}
		}()
	}

	svc := portfolio.NewService(cnt.store, nil, portfolio.WithSearch(idx))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// loadContent opens the content directory and parses its document. A
// missing directory or document falls back to the built-in catalog; a
// document that exists but does not parse is an error.
func loadContent(cfg ContentConfig, logger *slog.Logger) (*content, error) {
	builtin := func() (*content, error) {
		c, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load built-in catalog: %w", err)
		}
		return &content{store: catalog.NewStore(c)}, nil
	}

	if cfg.Dir == "" {
		logger.Info("Serving built-in catalog")
		return builtin()
	}

	p, err := storage.NewFS(cfg.Dir)
	if err != nil {
		logger.Warn("Content directory unavailable, serving built-in catalog",
			slog.String("dir", cfg.Dir), slog.String("error", err.Error()))
		return builtin()
	}

	c, err := catalog.Load(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("No content document, serving built-in catalog until one appears",
			slog.String("file", catalog.FileName))
		cnt, err := builtin()
		if err != nil {
			return nil, err
		}
		cnt.provider = p
		return cnt, nil
	case err != nil:
		return nil, fmt.Errorf("load content: %w", err)
	}

	logger.Info("Catalog loaded",
		slog.String("dir", p.Root()),
		slog.Int("projects", c.Len()),
		slog.String("checksum", c.Checksum()))
	return &content{store: catalog.NewStore(c), provider: p}, nil
}

// openIndex opens the search index and syncs it with c.
func openIndex(ctx context.Context, cfg SearchConfig, c *catalog.Catalog, logger *slog.Logger) (*index.DB, error) {
	idx, err := index.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("init search index: %w", err)
	}
	if err := index.Sync(ctx, idx, c, logger); err != nil {
		idx.Close()
		return nil, fmt.Errorf("sync search index: %w", err)
	}
	return idx, nil
}

// reindex keeps search in step with a reloaded catalog. A failure leaves
// the previous rows searchable.
func reindex(ctx context.Context, idx *index.DB, c *catalog.Catalog, logger *slog.Logger) {
	if err := index.Sync(ctx, idx, c, logger); err != nil {
		logger.Warn("index: resync failed", slog.String("error", err.Error()))
	}
}

// openSinks builds the configured contact sink. Only the SQLite sink keeps a
// copy the admin API can list.
func openSinks(ctx context.Context, cfg *Config, logger *slog.Logger) (*sinks, error) {
	sk := &sinks{}
	switch cfg.Contact.Sink {
	case SinkSQLite:
		db, err := store.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init message store: %w", err)
		}
		sk.sink, sk.messages = db, db
		sk.closers = append(sk.closers, db)
	case SinkHTTP:
		sk.sink = contact.NewHTTPSink(cfg.Contact.Endpoint, cfg.Contact.APIKey, cfg.Contact.Timeout, nil)
	case SinkPostgres:
		pg, err := store.OpenPostgres(ctx, cfg.Contact.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres sink: %w", err)
		}
		sk.sink = pg
		sk.closers = append(sk.closers, pg)
	case SinkNone:
		logger.Warn("No contact sink configured, contact form is disabled")
	default:
		return nil, fmt.Errorf("unknown contact sink %q", cfg.Contact.Sink)
	}
	return sk, nil
}
