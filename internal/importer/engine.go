// Package importer implements ImportEngine (SPEC_FULL.md §4.7): pulling
// observations from the provider, reconciling them against stored rates,
// and enforcing the response-size sanity cap.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/internal/provider"
	"github.com/budgetanalyzer/currency-service/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// restatementLookback bounds how far back importLatestExchangeRates
// re-fetches to catch provider restatements, without re-downloading a
// series' entire history on every scheduled run.
const restatementLookback = 7 * 24 * time.Hour

// SeriesRepo is the subset of SeriesStore the engine depends on.
type SeriesRepo interface {
	FindEnabled(ctx context.Context) ([]domain.CurrencySeries, error)
	FindByID(ctx context.Context, id int64) (*domain.CurrencySeries, error)
}

// RateRepo is the subset of RateStore the engine depends on.
type RateRepo interface {
	FindLatestForSeries(ctx context.Context, seriesID int64) (*domain.ExchangeRate, error)
	FindByTriple(ctx context.Context, base, target string, date time.Time) (*domain.ExchangeRate, error)
	Insert(ctx context.Context, rate *domain.ExchangeRate) error
	Update(ctx context.Context, rate *domain.ExchangeRate) error
}

// CacheEvictor lets the engine drop stale query cache entries once an
// import transaction commits, without depending on the cache package's
// Redis client directly.
type CacheEvictor interface {
	EvictTarget(ctx context.Context, targetCurrency string) error
}

// SanityConfig bounds the response-size sanity check (SPEC_FULL.md §4.7).
type SanityConfig struct {
	ExpectedBytesPerDay int64
	AbsoluteCapBytes    int64
	Tolerance           float64
}

// Engine is ImportEngine.
type Engine struct {
	series  SeriesRepo
	rates   RateRepo
	adapter provider.Adapter
	cache   CacheEvictor
	clock   clock.Clock
	log     zerolog.Logger
	db      *db.DB
	sanity  SanityConfig
}

// New builds an Engine.
func New(database *db.DB, series SeriesRepo, rates RateRepo, adapter provider.Adapter, cache CacheEvictor, clk clock.Clock, log zerolog.Logger, sanity SanityConfig) *Engine {
	return &Engine{
		series: series, rates: rates, adapter: adapter, cache: cache,
		clock: clk, log: log.With().Str("component", "import_engine").Logger(),
		db: database, sanity: sanity,
	}
}

// Result reports the outcome of one series' manual import trigger.
type Result struct {
	CurrencyCode string
	Succeeded    bool
	Message      string
}

// TriggerManualImport runs a gap-fill pass followed by a restatement pass
// for every enabled series, on demand, and reports a result per series —
// the operator-facing counterpart to the scheduled jobs, which only log.
func (e *Engine) TriggerManualImport(ctx context.Context) ([]Result, error) {
	series, err := e.series.FindEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enabled series: %w", err)
	}

	results := make([]Result, 0, len(series))
	for _, s := range series {
		if err := e.triggerOne(ctx, s); err != nil {
			e.log.Error().Err(err).Str("currency", s.CurrencyCode).Msg("manual import failed")
			results = append(results, Result{CurrencyCode: s.CurrencyCode, Succeeded: false, Message: err.Error()})
			continue
		}
		results = append(results, Result{CurrencyCode: s.CurrencyCode, Succeeded: true, Message: "import complete"})
	}
	return results, nil
}

func (e *Engine) triggerOne(ctx context.Context, s domain.CurrencySeries) error {
	start, err := e.gapStartDate(ctx, s)
	if err != nil {
		return fmt.Errorf("determine start date: %w", err)
	}
	if err := e.importOne(ctx, s, start); err != nil {
		return err
	}

	latest, err := e.rates.FindLatestForSeries(ctx, s.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("lookup latest rate: %w", err)
	}
	if latest == nil {
		return nil
	}
	lookback := latest.Date.Add(-restatementLookback)
	return e.importOne(ctx, s, &lookback)
}

// ImportMissingExchangeRates fetches and reconciles, for every enabled
// series, any observations published since the latest stored date — or the
// full history for a series with no stored rates yet.
func (e *Engine) ImportMissingExchangeRates(ctx context.Context) error {
	series, err := e.series.FindEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load enabled series: %w", err)
	}

	for _, s := range series {
		start, err := e.gapStartDate(ctx, s)
		if err != nil {
			e.log.Error().Err(err).Str("currency", s.CurrencyCode).Msg("determine start date failed")
			continue
		}
		if err := e.importOne(ctx, s, start); err != nil {
			e.log.Error().Err(err).Str("currency", s.CurrencyCode).Msg("import failed")
		}
	}
	return nil
}

// ImportLatestExchangeRates re-fetches a trailing window for every enabled
// series to pick up provider restatements of recently published values.
func (e *Engine) ImportLatestExchangeRates(ctx context.Context) error {
	series, err := e.series.FindEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load enabled series: %w", err)
	}

	for _, s := range series {
		latest, err := e.rates.FindLatestForSeries(ctx, s.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			e.log.Error().Err(err).Str("currency", s.CurrencyCode).Msg("lookup latest rate failed")
			continue
		}

		var start *time.Time
		if latest != nil {
			lookback := latest.Date.Add(-restatementLookback)
			start = &lookback
		}

		if err := e.importOne(ctx, s, start); err != nil {
			e.log.Error().Err(err).Str("currency", s.CurrencyCode).Msg("import failed")
		}
	}
	return nil
}

// ImportForSeries imports one series on demand, filling any gap since its
// latest stored rate. Invoked by BrokerBridge's consumer.
func (e *Engine) ImportForSeries(ctx context.Context, seriesID int64) error {
	s, err := e.series.FindByID(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("load series %d: %w", seriesID, err)
	}
	start, err := e.gapStartDate(ctx, *s)
	if err != nil {
		return err
	}
	return e.importOne(ctx, *s, start)
}

func (e *Engine) gapStartDate(ctx context.Context, s domain.CurrencySeries) (*time.Time, error) {
	latest, err := e.rates.FindLatestForSeries(ctx, s.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup latest rate: %w", err)
	}
	next := latest.Date.AddDate(0, 0, 1)
	return &next, nil
}

func (e *Engine) importOne(ctx context.Context, s domain.CurrencySeries, start *time.Time) error {
	observed, err := e.adapter.GetExchangeRates(ctx, s, start)
	if err != nil {
		return err
	}

	if err := e.checkSanity(s, start, observed); err != nil {
		return err
	}

	if len(observed) == 0 {
		return nil
	}

	return db.WithinTx(ctx, e.db.Conn(), func(ctx context.Context, uow *db.UnitOfWork) error {
		if err := e.reconcile(ctx, uow, s, observed); err != nil {
			return err
		}
		if e.cache != nil {
			uow.OnCommit(func() {
				if err := e.cache.EvictTarget(ctx, s.CurrencyCode); err != nil {
					e.log.Warn().Err(err).Str("currency", s.CurrencyCode).Msg("cache eviction failed after import")
				}
			})
		}
		return nil
	})
}

// reconcile upserts each observed (date, rate) pair against stored state:
// new dates are inserted, changed values (restatements) are updated in
// place and logged as a warning, unchanged values are left untouched.
func (e *Engine) reconcile(ctx context.Context, uow *db.UnitOfWork, s domain.CurrencySeries, observed map[time.Time]decimal.Decimal) error {
	rateRepo := store.NewRateStore(uow.Tx)
	now := e.clock.Now()

	for date, value := range observed {
		existing, err := rateRepo.FindByTriple(ctx, domain.BaseCurrency, s.CurrencyCode, date)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("lookup existing rate for %s on %s: %w", s.CurrencyCode, date.Format("2006-01-02"), err)
		}

		if errors.Is(err, store.ErrNotFound) {
			rate := &domain.ExchangeRate{
				SeriesID:       s.ID,
				BaseCurrency:   domain.BaseCurrency,
				TargetCurrency: s.CurrencyCode,
				Date:           date,
				Rate:           value,
				CreatedAt:      now,
				UpdatedAt:      now,
				CreatedBy:      "import_engine",
				UpdatedBy:      "import_engine",
			}
			if err := rateRepo.Insert(ctx, rate); err != nil {
				return fmt.Errorf("insert rate for %s on %s: %w", s.CurrencyCode, date.Format("2006-01-02"), err)
			}
			continue
		}

		if existing.Rate.Equal(value) {
			continue
		}

		e.log.Warn().Str("currency", s.CurrencyCode).Str("date", date.Format("2006-01-02")).
			Str("stored", existing.Rate.String()).Str("restated", value.String()).
			Msg("provider restated a stored rate")
		existing.Rate = value
		existing.UpdatedAt = now
		existing.UpdatedBy = "import_engine"
		if err := rateRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("update rate for %s on %s: %w", s.CurrencyCode, date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// checkSanity rejects a response whose byte footprint is wildly out of line
// with what an incremental fetch since start should cost, guarding against
// an incremental run accidentally pulling a series' entire history. It only
// applies to incremental fetches: a nil start means a fresh series' full
// history is expected, which has no "days since start" to bound it against.
func (e *Engine) checkSanity(s domain.CurrencySeries, start *time.Time, observed map[time.Time]decimal.Decimal) error {
	if e.sanity.ExpectedBytesPerDay <= 0 || start == nil {
		return nil
	}

	days := int64(e.clock.Now().Sub(*start) / (24 * time.Hour))
	if days <= 0 {
		days = 1
	}

	expected := days * e.sanity.ExpectedBytesPerDay
	capBytes := int64(float64(expected) * e.sanity.Tolerance)
	if e.sanity.AbsoluteCapBytes > 0 && capBytes > e.sanity.AbsoluteCapBytes {
		capBytes = e.sanity.AbsoluteCapBytes
	}

	observedBytes := estimateObservedBytes(observed)
	if observedBytes > capBytes {
		return apperr.ImportSanityFailed(fmt.Sprintf(
			"series %s: observed payload %d bytes exceeds sanity cap %d bytes for %d day(s)",
			s.CurrencyCode, observedBytes, capBytes, days))
	}
	return nil
}

func estimateObservedBytes(observed map[time.Time]decimal.Decimal) int64 {
	var total int64
	for _, v := range observed {
		total += int64(len("2006-01-02") + len(v.String()))
	}
	return total
}
