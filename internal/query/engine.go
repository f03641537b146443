// Package query implements QueryEngine (SPEC_FULL.md §4.8): turning sparse,
// weekday-only stored observations into a dense day-by-day series with
// carry-forward, cached for repeat reads.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/internal/store"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

const dateLayout = "2006-01-02"

// RatePoint is one day of the dense output series. Carry-forward days are
// synthetic — they don't correspond to a stored row, only to its value.
// PublishedDate is the date that value was actually published on: it equals
// Date on a day the provider published a rate, and the nearest earlier
// published date on a carry-forward day.
type RatePoint struct {
	Date          time.Time       `msgpack:"date"`
	Rate          decimal.Decimal `msgpack:"rate"`
	PublishedDate time.Time       `msgpack:"published_date"`
}

// SeriesRepo is the subset of SeriesStore the engine depends on.
type SeriesRepo interface {
	FindByCurrencyCode(ctx context.Context, code string) (*domain.CurrencySeries, error)
}

// RateRepo is the subset of RateStore the engine depends on.
type RateRepo interface {
	FindEarliestDateForTarget(ctx context.Context, target string) (time.Time, error)
	FindLatestDateForTarget(ctx context.Context, target string) (time.Time, error)
	FindLatestBefore(ctx context.Context, target string, date time.Time) (*domain.ExchangeRate, error)
	FindInRange(ctx context.Context, target string, startDate, endDate *time.Time) ([]domain.ExchangeRate, error)
}

// Cache is the read-through layer QueryEngine uses for assembled series.
// Implemented by internal/cache over Redis; a nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Engine is QueryEngine.
type Engine struct {
	series SeriesRepo
	rates  RateRepo
	cache  Cache
}

// New builds an Engine.
func New(series SeriesRepo, rates RateRepo, cache Cache) *Engine {
	return &Engine{series: series, rates: rates, cache: cache}
}

// GetRates returns one dense point per calendar day in [startDate, endDate]
// for targetCurrency, carrying the last known value forward across days the
// provider doesn't publish (weekends, holidays). A nil startDate or endDate
// defaults to the stored series' earliest or latest published date.
func (e *Engine) GetRates(ctx context.Context, targetCurrency string, startDate, endDate *time.Time) ([]RatePoint, error) {
	if !domain.ValidCurrencyCode(targetCurrency) {
		return nil, apperr.InvalidRequest("target currency must be a 3-letter ISO 4217 code")
	}

	series, err := e.series.FindByCurrencyCode(ctx, targetCurrency)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ResourceNotFound(fmt.Sprintf("no series registered for currency %s", targetCurrency))
		}
		return nil, fmt.Errorf("lookup series for %s: %w", targetCurrency, err)
	}
	if !series.Enabled {
		return nil, apperr.BusinessRule(apperr.CodeCurrencyNotEnabled, fmt.Sprintf("currency %s is not enabled", targetCurrency))
	}

	resolvedStart, resolvedEnd, err := e.resolveRange(ctx, targetCurrency, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if resolvedEnd.Before(resolvedStart) {
		return nil, apperr.InvalidRequest("end date must not precede start date")
	}

	cacheKey := e.cacheKey(targetCurrency, resolvedStart, resolvedEnd)
	if e.cache != nil {
		if cached, hit, err := e.cache.Get(ctx, cacheKey); err == nil && hit {
			var points []RatePoint
			if err := msgpack.Unmarshal(cached, &points); err == nil {
				return points, nil
			}
		}
	}

	points, err := e.assemble(ctx, targetCurrency, resolvedStart, resolvedEnd)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if encoded, err := msgpack.Marshal(points); err == nil {
			_ = e.cache.Set(ctx, cacheKey, encoded)
		}
	}

	return points, nil
}

// resolveRange fills in an omitted startDate/endDate with the target's
// earliest/latest stored date.
func (e *Engine) resolveRange(ctx context.Context, target string, startDate, endDate *time.Time) (time.Time, time.Time, error) {
	var resolvedStart, resolvedEnd time.Time

	if startDate != nil {
		resolvedStart = *startDate
	} else {
		earliest, err := e.rates.FindEarliestDateForTarget(ctx, target)
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, time.Time{}, apperr.BusinessRule(apperr.CodeNoExchangeRateDataAvailable, fmt.Sprintf("no exchange rate data available for %s", target))
		}
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("find earliest date for %s: %w", target, err)
		}
		resolvedStart = earliest
	}

	if endDate != nil {
		resolvedEnd = *endDate
	} else {
		latest, err := e.rates.FindLatestDateForTarget(ctx, target)
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, time.Time{}, apperr.BusinessRule(apperr.CodeNoExchangeRateDataAvailable, fmt.Sprintf("no exchange rate data available for %s", target))
		}
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("find latest date for %s: %w", target, err)
		}
		resolvedEnd = latest
	}

	return resolvedStart, resolvedEnd, nil
}

func (e *Engine) assemble(ctx context.Context, target string, startDate, endDate time.Time) ([]RatePoint, error) {
	earliest, err := e.rates.FindEarliestDateForTarget(ctx, target)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.BusinessRule(apperr.CodeNoExchangeRateDataAvailable, fmt.Sprintf("no exchange rate data available for %s", target))
	}
	if err != nil {
		return nil, fmt.Errorf("find earliest date for %s: %w", target, err)
	}
	if startDate.Before(earliest) {
		return nil, apperr.BusinessRule(apperr.CodeStartDateOutOfRange, fmt.Sprintf(
			"start date %s precedes earliest available date %s for %s",
			startDate.Format(dateLayout), earliest.Format(dateLayout), target))
	}

	stored, err := e.rates.FindInRange(ctx, target, &startDate, &endDate)
	if err != nil {
		return nil, fmt.Errorf("find rates in range for %s: %w", target, err)
	}

	byDate := make(map[time.Time]decimal.Decimal, len(stored))
	for _, rate := range stored {
		byDate[rate.Date] = rate.Rate
	}

	carry, hasCarry := byDate[startDate]
	carryDate := startDate
	if !hasCarry {
		before, err := e.rates.FindLatestBefore(ctx, target, startDate)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.BusinessRule(apperr.CodeNoExchangeRateDataAvailable, fmt.Sprintf(
				"no exchange rate data available on or before %s for %s", startDate.Format(dateLayout), target))
		}
		if err != nil {
			return nil, fmt.Errorf("find latest rate before %s for %s: %w", startDate.Format(dateLayout), target, err)
		}
		carry = before.Rate
		carryDate = before.Date
	}

	points := make([]RatePoint, 0, int(endDate.Sub(startDate).Hours()/24)+1)
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		if value, ok := byDate[d]; ok {
			carry = value
			carryDate = d
		}
		points = append(points, RatePoint{Date: d, Rate: carry, PublishedDate: carryDate})
	}
	return points, nil
}

func (e *Engine) cacheKey(target string, startDate, endDate time.Time) string {
	return fmt.Sprintf("rates:%s:%s:%s", target, startDate.Format(dateLayout), endDate.Format(dateLayout))
}
