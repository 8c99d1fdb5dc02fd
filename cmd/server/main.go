package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	h "github.com/annaveselova/translation-service/internal/api/http"
	"github.com/annaveselova/translation-service/internal/chunker"
	cfgpkg "github.com/annaveselova/translation-service/internal/config"
	"github.com/annaveselova/translation-service/internal/manager"
	"github.com/annaveselova/translation-service/internal/persistence"
	"github.com/annaveselova/translation-service/internal/store"
	"github.com/annaveselova/translation-service/internal/translator"
	"github.com/annaveselova/translation-service/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully", "environment", cfg.Environment)

	taskStore := store.NewTaskStore()

	results, err := store.NewResultStore(cfg.ResultsDir)
	if err != nil {
		slog.Error("failed to initialize result store", "error", err)
		os.Exit(1)
	}

	persist := persistence.New(taskStore, results, cfg.StateFile, cfg.SnapshotInterval, cfg.TaskRetention)

	agent := translator.NewAgentClient(cfg.AgentURL)
	taskWorker := worker.New(taskStore, agent, persist, worker.Config{
		MaxAttempts:  cfg.MaxChunkAttempts,
		ChunkTimeout: cfg.ChunkTimeout,
		BackoffBase:  cfg.RetryBackoffBase,
	})

	taskManager := manager.New(
		taskStore,
		results,
		persist,
		taskWorker,
		chunker.New(cfg.MaxChunkChars, cfg.OverlapSentences),
	)
	taskManager.Start()

	router := h.NewRouter(taskManager, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		if err := taskManager.Shutdown(shutdownCtx); err != nil {
			slog.Error("task manager shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
