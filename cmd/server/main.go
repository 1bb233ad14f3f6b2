package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shaneah/infyemailer-sub010/internal/broadcast"
	"github.com/shaneah/infyemailer-sub010/internal/config"
	"github.com/shaneah/infyemailer-sub010/internal/logging"
	"github.com/shaneah/infyemailer-sub010/internal/server"
	"github.com/shaneah/infyemailer-sub010/internal/simulator"
	"github.com/shaneah/infyemailer-sub010/internal/tracking"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, sim *simulator.Simulator, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if sim != nil {
			sim.Stop()
		}
		broadcaster.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	broadcaster := broadcast.NewBroadcaster(clock)
	tracker := tracking.New(clock, broadcaster)

	// The simulator is pure demo convenience: it keeps dashboards moving
	// until real tracking traffic exists and is wired in nowhere else.
	var sim *simulator.Simulator
	if cfg.SimulatorEnabled {
		sim = simulator.New(tracker, clock, cfg.SimulatorInterval)
		sim.Start()
	}

	srv := server.NewServer(cfg, tracker, broadcaster)

	done := runGracefulShutdown(srv, sim, broadcaster)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
