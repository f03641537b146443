package main

import (
	"context"
	"fmt"

	"github.com/budgetanalyzer/currency-service/internal/composition"
	"github.com/budgetanalyzer/currency-service/internal/config"
	"github.com/budgetanalyzer/currency-service/pkg/logger"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Force an immediate gap-fill and restatement import pass",
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
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
	if err := app.ImportEngine.ImportMissingExchangeRates(ctx); err != nil {
		return fmt.Errorf("import missing rates: %w", err)
	}
	if err := app.ImportEngine.ImportLatestExchangeRates(ctx); err != nil {
		return fmt.Errorf("import latest rates: %w", err)
	}
	fmt.Println("import complete")
	return nil
}
