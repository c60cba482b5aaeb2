// Package server is the composition root: it opens the store and the
// duplicate index, builds the provider adapters, wires services to handlers
// and routes, and owns graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → store (sqlite | mongo)        ┐
//	  → duplicate index (memory | redis) ├→ ContentService → ContentHandler
//	  → provider.Client (anthropic, imagegen, pexels) ┘  StockService → StockHandler
//
// Every resource that needs closing is opened in New and closed in Close,
// which Start calls on its way out.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/content-studio/internal/config"
	"github.com/sakif/content-studio/internal/dedup"
	"github.com/sakif/content-studio/internal/handler"
	"github.com/sakif/content-studio/internal/metrics"
	"github.com/sakif/content-studio/internal/middleware"
	"github.com/sakif/content-studio/internal/provider"
	"github.com/sakif/content-studio/internal/provider/anthropic"
	"github.com/sakif/content-studio/internal/provider/imagegen"
	"github.com/sakif/content-studio/internal/provider/pexels"
	"github.com/sakif/content-studio/internal/repository"
	mongoRepo "github.com/sakif/content-studio/internal/repository/mongo"
	sqliteRepo "github.com/sakif/content-studio/internal/repository/sqlite"
	"github.com/sakif/content-studio/internal/service"
)

// Server holds the router and every resource it must release on shutdown.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   repository.ContentRepository
	redis   *redis.Client // nil when the duplicate index is in memory
	metrics *metrics.Metrics
}

// New opens the store and duplicate index and wires the HTTP routes.
// On error, anything already opened is closed again.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}

	index, err := s.openIndex()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening duplicate index: %w", err)
	}

	s.setupRoutes(index, s.buildProvider())
	return s, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.ContentRepository, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)

	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.Path)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openIndex uses Redis when an address is configured, otherwise an
// in-process map. The in-process index only dedups within one replica.
func (s *Server) openIndex() (dedup.Index, error) {
	if s.config.Redis.Address == "" {
		s.logger.Info("duplicate index: in-memory")
		return dedup.NewMemoryIndex(time.Now), nil
	}

	client, err := dedup.NewRedisClient(dedup.Config{
		Address:  s.config.Redis.Address,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	s.redis = client
	s.logger.Info("duplicate index: redis", slog.String("address", s.config.Redis.Address))
	return dedup.NewRedisIndex(client), nil
}

// buildProvider creates each adapter whose API key is configured. Missing
// keys only disable the endpoints that need them.
func (s *Server) buildProvider() *provider.Client {
	client := &provider.Client{}

	if text, err := anthropic.New(anthropic.Config{
		APIKey:  s.config.Anthropic.APIKey,
		Model:   s.config.Anthropic.Model,
		BaseURL: s.config.Anthropic.BaseURL,
	}); err == nil {
		client.Text = text
	} else {
		s.logger.Warn("text generation disabled", slog.String("reason", err.Error()))
	}

	if images, err := imagegen.New(imagegen.Config{
		APIKey:  s.config.Images.APIKey,
		BaseURL: s.config.Images.BaseURL,
		Model:   s.config.Images.Model,
	}); err == nil {
		client.Images = images
	} else {
		s.logger.Warn("image generation disabled", slog.String("reason", err.Error()))
	}

	if stock, err := pexels.New(pexels.Config{
		APIKey:  s.config.Pexels.APIKey,
		BaseURL: s.config.Pexels.BaseURL,
	}); err == nil {
		client.Stock = stock
	} else {
		s.logger.Warn("stock image search disabled", slog.String("reason", err.Error()))
	}

	return client
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET   /healthz                    → liveness
//	GET   /metrics                    → Prometheus scrape
//	*     /api/content/...            → ContentHandler.Routes
//	GET   /api/stock-images           → stock photo search
//
// MIDDLEWARE ORDER: RequestID first so the logger can print it, Metrics
// outside Recoverer so a recovered panic is still counted as a 500.
func (s *Server) setupRoutes(index dedup.Index, prov *provider.Client) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", handler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	contentService := service.NewContentService(s.store, index, prov, s.logger,
		service.WithWindow(s.config.Dedup.Window),
		service.WithRecorder(s.metrics),
	)
	stockService := service.NewStockService(prov, s.logger, s.metrics)

	contentHandler := handler.NewContentHandler(contentService, s.logger)
	stockHandler := handler.NewStockHandler(stockService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Mount("/content", contentHandler.Routes())
		r.Get("/stock-images", stockHandler.HandleSearch)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store and the Redis client.
func (s *Server) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
// for up to the configured shutdown timeout and closes all resources.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	// Provider calls can take a while; WriteTimeout has to cover them.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("store", s.config.Store.Driver),
			slog.Duration("dedup_window", s.config.Dedup.Window),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
