// Package composition is the explicit composition root (SPEC_FULL.md §9):
// every dependency is wired here by hand, in dependency order, replacing
// the teacher's container/DI-wiring pattern with direct construction —
// there is only one business domain in this service, so a generic
// container and job registry would add a layer of indirection the teacher
// needed and this repo doesn't.
package composition

import (
	"context"
	"fmt"

	"github.com/budgetanalyzer/currency-service/internal/broker"
	"github.com/budgetanalyzer/currency-service/internal/cache"
	"github.com/budgetanalyzer/currency-service/internal/catalog"
	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/config"
	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/healthcheck"
	"github.com/budgetanalyzer/currency-service/internal/httpapi"
	"github.com/budgetanalyzer/currency-service/internal/importer"
	"github.com/budgetanalyzer/currency-service/internal/lease"
	"github.com/budgetanalyzer/currency-service/internal/outbox"
	"github.com/budgetanalyzer/currency-service/internal/provider"
	"github.com/budgetanalyzer/currency-service/internal/query"
	"github.com/budgetanalyzer/currency-service/internal/scheduler"
	"github.com/budgetanalyzer/currency-service/internal/store"
	"github.com/rs/zerolog"
)

// App holds every long-lived component the daemon entrypoint needs to
// start, run, and drain on shutdown.
type App struct {
	Config *config.Config
	DB     *db.DB

	HTTP      *httpapi.Server
	Scheduler *scheduler.Scheduler
	Outbox    *outbox.Dispatcher
	Consumer    *broker.Consumer
	Producer    *broker.Producer
	DLQProducer *broker.Producer
	Cache       *cache.Client

	CatalogService *catalog.Service
	QueryEngine    *query.Engine
	ImportEngine   *importer.Engine
}

// Wire constructs every component in dependency order: persistence, then
// repositories, then domain services, then the process-facing adapters
// (HTTP, scheduler, broker) that depend on them.
func Wire(cfg *config.Config, log zerolog.Logger) (*App, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.ApplySchema(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	clk := clock.Real{}

	seriesStore := store.NewSeriesStore(database.Conn())
	rateStore := store.NewRateStore(database.Conn())

	providerClient := provider.New(provider.Config{
		BaseURL: cfg.ProviderBaseURL,
		APIKey:  cfg.ProviderAPIKey,
		Timeout: cfg.ProviderTimeout,
	}, log)
	adapter := provider.NewFredAdapter(providerClient)

	cacheClient := cache.New(cfg.RedisAddr, cfg.CacheNamespace)

	publisher := outbox.NewPublisher(clk)
	catalogService := catalog.New(database, seriesStore, adapter, publisher)
	queryEngine := query.New(seriesStore, rateStore, cacheClient)
	importEngine := importer.New(database, seriesStore, rateStore, adapter, cacheClient, clk, log, importer.SanityConfig{
		ExpectedBytesPerDay: cfg.ExpectedBytesPerDay,
		AbsoluteCapBytes:    cfg.SanityAbsoluteCapByte,
		Tolerance:           cfg.SanityTolerance,
	})

	producer, err := broker.NewProducer(cfg.BrokerAddrs, cfg.BrokerTopic, log)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create broker producer: %w", err)
	}
	dlqProducer, err := broker.NewProducer(cfg.BrokerAddrs, cfg.BrokerDLQTopic, log)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create broker dlq producer: %w", err)
	}
	consumer, err := broker.NewConsumer(cfg.BrokerAddrs, cfg.BrokerTopic, cfg.BrokerGroup, importEngine, dlqProducer, cfg.BrokerMaxRetry, log)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create broker consumer: %w", err)
	}

	outboxDispatcher := outbox.NewDispatcher(database.Conn(), producer, clk, log, outbox.Config{
		ScanInterval:    cfg.OutboxScanInterval,
		ScanJitter:      cfg.OutboxScanJitter,
		RetentionDays:   cfg.OutboxRetentionDays,
		MaxSendAttempts: uint64(cfg.RetryMaxAttempts),
	})

	locker := lease.New(database.Conn(), cfg.ProcessID, clk)
	sched := scheduler.New(locker, log, uint64(cfg.RetryMaxAttempts-1), cfg.RetryDelay)

	diskCheck := healthcheck.NewDiskCheck(cfg.DatabasePath)

	httpServer := httpapi.New(httpapi.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Log:     log,
		Catalog: httpapi.NewCatalogHandler(catalogService, clk),
		Rates:   httpapi.NewRatesHandler(queryEngine),
		Import:  httpapi.NewImportHandler(importEngine),
		Health:  httpapi.NewHealthHandler(diskCheck),
	})

	return &App{
		Config:         cfg,
		DB:             database,
		HTTP:           httpServer,
		Scheduler:      sched,
		Outbox:         outboxDispatcher,
		Consumer:       consumer,
		Producer:       producer,
		DLQProducer:    dlqProducer,
		Cache:          cacheClient,
		CatalogService: catalogService,
		QueryEngine:    queryEngine,
		ImportEngine:   importEngine,
	}, nil
}

// RegisterJobs wires the scheduled import job onto the cron expression from
// configuration, guarded by the configured lease, and fires it once
// immediately if ImportOnStartup is set.
func (a *App) RegisterJobs(ctx context.Context) error {
	job := scheduler.NewDailyImportJob(a.ImportEngine)
	leaseCfg := scheduler.LeaseConfig{
		Name:        a.Config.LeaseName,
		HoldAtMost:  a.Config.LeaseHoldAtMost,
		HoldAtLeast: a.Config.LeaseHoldAtLeast,
	}

	if err := a.Scheduler.AddJob(ctx, a.Config.ImportCron, job, leaseCfg); err != nil {
		return fmt.Errorf("register daily import job: %w", err)
	}

	if a.Config.ImportOnStartup {
		a.Scheduler.RunNow(ctx, job, leaseCfg)
	}
	return nil
}

// Close releases every resource Wire opened.
func (a *App) Close() {
	a.Producer.Close()
	a.DLQProducer.Close()
	a.Consumer.Close()
	_ = a.Cache.Close()
	_ = a.DB.Close()
}
