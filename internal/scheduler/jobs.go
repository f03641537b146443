package scheduler

import "context"

// Importer is the subset of ImportEngine the scheduled jobs invoke.
type Importer interface {
	ImportMissingExchangeRates(ctx context.Context) error
	ImportLatestExchangeRates(ctx context.Context) error
}

// ImportMissingJob fills any gap since each enabled series' latest stored
// date, including full history for a series with none yet.
type ImportMissingJob struct {
	importer Importer
}

// NewImportMissingJob builds an ImportMissingJob.
func NewImportMissingJob(importer Importer) *ImportMissingJob {
	return &ImportMissingJob{importer: importer}
}

// Name identifies the job for logging.
func (j *ImportMissingJob) Name() string { return "import_missing_exchange_rates" }

// Run executes the job.
func (j *ImportMissingJob) Run(ctx context.Context) error {
	return j.importer.ImportMissingExchangeRates(ctx)
}

// ImportLatestJob re-fetches a trailing window to catch provider
// restatements of recently published values.
type ImportLatestJob struct {
	importer Importer
}

// NewImportLatestJob builds an ImportLatestJob.
func NewImportLatestJob(importer Importer) *ImportLatestJob {
	return &ImportLatestJob{importer: importer}
}

// Name identifies the job for logging.
func (j *ImportLatestJob) Name() string { return "import_latest_exchange_rates" }

// Run executes the job.
func (j *ImportLatestJob) Run(ctx context.Context) error {
	return j.importer.ImportLatestExchangeRates(ctx)
}

// DailyImportJob runs the gap-fill pass followed by the restatement pass as
// one scheduled unit — the single cron entry SPEC_FULL.md §6 configures.
type DailyImportJob struct {
	importer Importer
}

// NewDailyImportJob builds a DailyImportJob.
func NewDailyImportJob(importer Importer) *DailyImportJob {
	return &DailyImportJob{importer: importer}
}

// Name identifies the job for logging.
func (j *DailyImportJob) Name() string { return "daily_exchange_rate_import" }

// Run executes the job.
func (j *DailyImportJob) Run(ctx context.Context) error {
	if err := j.importer.ImportMissingExchangeRates(ctx); err != nil {
		return err
	}
	return j.importer.ImportLatestExchangeRates(ctx)
}
