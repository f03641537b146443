package main

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/composition"
	"github.com/budgetanalyzer/currency-service/internal/config"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register the built-in currency catalog, all initially disabled",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel})

	app, err := composition.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer app.Close()

	ctx := context.Background()

	for _, seed := range domain.SeedCatalog {
		audit := domain.AuditContext{Actor: "fxratesctl", At: time.Now().UTC()}
		if _, err := app.CatalogService.Create(ctx, audit, seed.CurrencyCode, seed.ProviderSeriesID); err != nil {
			if appErr, ok := apperr.As(err); ok && appErr.Code == apperr.CodeDuplicateCurrencyCode {
				fmt.Printf("skip %s: %s\n", seed.CurrencyCode, appErr.Message)
				continue
			}
			return fmt.Errorf("seed %s: %w", seed.CurrencyCode, err)
		}
		fmt.Printf("registered %s (%s)\n", seed.CurrencyCode, seed.ProviderSeriesID)
	}
	return nil
}
