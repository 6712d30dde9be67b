package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/reanchor/internal/annostore"
	"github.com/dgallion1/reanchor/internal/api"
	"github.com/dgallion1/reanchor/internal/config"
	"github.com/dgallion1/reanchor/internal/docstore"
	"github.com/dgallion1/reanchor/internal/pipeline"
	"github.com/dgallion1/reanchor/internal/resolve"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize stores.
	docs := docstore.New(cfg.DocumentTTL)
	annos := annostore.New()

	// Initialize resolution.
	resolver := resolve.New(log)
	stats := resolve.NewStats(cfg.StatsWindow)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, docs, resolver, stats, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(docs, annos, orch, resolver, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting reanchor", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
