// Command fxratesd is the daemon entrypoint: it wires the full application
// and runs the HTTP server, scheduler, outbox dispatcher, and broker
// consumer side by side until terminated (SPEC_FULL.md §1).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/composition"
	"github.com/budgetanalyzer/currency-service/internal/config"
	"github.com/budgetanalyzer/currency-service/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	log.Info().Msg("starting fxratesd")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})

	app, err := composition.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.RegisterJobs(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to register scheduled jobs")
	}
	app.Scheduler.Start()
	defer app.Scheduler.Stop()

	go app.Outbox.Run(ctx)
	go app.Consumer.Run(ctx)

	go func() {
		if err := app.HTTP.Start(); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("fxratesd started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.HTTP.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}

	log.Info().Msg("fxratesd stopped")
}
