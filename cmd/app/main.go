package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chaos_market/internal/app"
	"chaos_market/internal/bots"
	"chaos_market/internal/scheduler"
	"chaos_market/internal/server"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	bootstrap.RestoreSession()

	cfg := bootstrap.Config
	eng := bootstrap.Engine
	hub := bootstrap.Hub

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start the hub and the engine loop (The Hotpath Loop)
	go hub.Run(ctx)
	go eng.Run(ctx)
	slog.InfoContext(ctx, "✅ Engine (Hotpath) started")

	// 5. Snapshot scheduler
	sched := scheduler.New()
	snapshotJob := scheduler.NewSnapshotJob(eng, bootstrap.Store)
	if err := sched.AddJob(cfg.Snapshot.Schedule, snapshotJob); err != nil {
		slog.Error("❌ Failed to schedule snapshots", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// 6. Bot population (optional market liquidity)
	if cfg.Bots.Enabled {
		pop := bots.NewPopulation(eng, bots.Config{
			Count:            cfg.Bots.Count,
			MinDelay:         time.Duration(cfg.Bots.MinDelaySec) * time.Second,
			MaxDelay:         time.Duration(cfg.Bots.MaxDelaySec) * time.Second,
			TradeProbability: cfg.Bots.TradeProbability,
		}, rand.New(rand.NewSource(time.Now().UnixNano())))
		go pop.Run(ctx)
		slog.InfoContext(ctx, "✅ Bot population started", slog.Int("bots", cfg.Bots.Count))
	}

	// 7. HTTP API
	srv := server.New(eng, hub.ServeWS, cfg.Server.AllowedOrigins)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("✅ HTTP API listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ Chaos Market fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", slog.Any("error", err))
	}

	// Final snapshot so the next start resumes this session.
	if err := sched.RunNow(snapshotJob); err != nil {
		slog.Error("Final snapshot failed", slog.Any("error", err))
	}
}
