package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/swampswipe/internal/catalog"
	"github.com/denisok6893-rgb/swampswipe/internal/config"
	"github.com/denisok6893-rgb/swampswipe/internal/extraction"
	httpapi "github.com/denisok6893-rgb/swampswipe/internal/http"
	"github.com/denisok6893-rgb/swampswipe/internal/matching"
	"github.com/denisok6893-rgb/swampswipe/internal/session"
	"github.com/denisok6893-rgb/swampswipe/internal/storage"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	lvl, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "address", cfg.Address, "store_driver", cfg.StoreDriver, "gemini_model", cfg.GeminiModel)

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "listings", cat.Len(), "path", cfg.CatalogPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closer, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.Info("storage initialized", "driver", cfg.StoreDriver)

	sess, err := session.Open(ctx, session.Deps{
		Catalog:     cat,
		Engine:      matching.NewEngine(),
		Preferences: storage.NewPreferenceStore(kv),
		Liked:       storage.NewLikedStore(kv),
		Logger:      logger,
	})
	if err != nil {
		slog.Error("failed to open session", "error", err)
		os.Exit(1)
	}

	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, /api/chat will fail")
	}
	gemini := extraction.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, &http.Client{}, logger)
	gate := extraction.NewGate(gemini, cfg.ExtractionTimeout())

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: httpapi.NewServer(cat, sess, gate, logger).Routes(),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("API listening", "address", cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(ctx context.Context, cfg config.Config) (storage.KV, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		ps, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return ps, ps, nil
	case config.DriverSQLite:
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	default:
		return storage.NewMemoryKV(), nopCloser{}, nil
	}
}
