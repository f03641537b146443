package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/composition"
	"github.com/budgetanalyzer/currency-service/internal/config"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/pkg/logger"
	"github.com/spf13/cobra"
)

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "Inspect or toggle catalog entries",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog",
	RunE:  runList,
}

var enableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a series for scheduled import",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetEnabled(true),
}

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a series from scheduled import",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetEnabled(false),
}

func init() {
	currenciesCmd.AddCommand(listCmd, enableCmd, disableCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	series, err := app.CatalogService.GetAll(context.Background(), false)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	for _, s := range series {
		fmt.Printf("%d\t%s\t%s\tenabled=%t\n", s.ID, s.CurrencyCode, s.ProviderSeriesID, s.Enabled)
	}
	return nil
}

func runSetEnabled(enabled bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("id must be an integer: %w", err)
		}

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

		audit := domain.AuditContext{Actor: "fxratesctl", At: time.Now().UTC()}
		series, err := app.CatalogService.SetEnabled(context.Background(), audit, id, enabled)
		if err != nil {
			return fmt.Errorf("set enabled: %w", err)
		}
		fmt.Printf("%s is now enabled=%t\n", series.CurrencyCode, series.Enabled)
		return nil
	}
}
