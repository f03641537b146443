package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/internal/query"
	"github.com/budgetanalyzer/currency-service/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeriesRepo struct {
	series map[string]*domain.CurrencySeries
}

func (f *fakeSeriesRepo) FindByCurrencyCode(ctx context.Context, code string) (*domain.CurrencySeries, error) {
	if s, ok := f.series[code]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

type fakeRateRepo struct {
	earliest time.Time
	latest   time.Time
	byDate   map[time.Time]decimal.Decimal
}

func (f *fakeRateRepo) FindEarliestDateForTarget(ctx context.Context, target string) (time.Time, error) {
	if f.earliest.IsZero() {
		return time.Time{}, store.ErrNotFound
	}
	return f.earliest, nil
}

func (f *fakeRateRepo) FindLatestDateForTarget(ctx context.Context, target string) (time.Time, error) {
	if f.latest.IsZero() {
		return time.Time{}, store.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeRateRepo) FindLatestBefore(ctx context.Context, target string, date time.Time) (*domain.ExchangeRate, error) {
	var best *domain.ExchangeRate
	for d, v := range f.byDate {
		if d.Before(date) && (best == nil || d.After(best.Date)) {
			best = &domain.ExchangeRate{Date: d, Rate: v}
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (f *fakeRateRepo) FindInRange(ctx context.Context, target string, startDate, endDate *time.Time) ([]domain.ExchangeRate, error) {
	var out []domain.ExchangeRate
	for d, v := range f.byDate {
		if (startDate == nil || !d.Before(*startDate)) && (endDate == nil || !d.After(*endDate)) {
			out = append(out, domain.ExchangeRate{Date: d, Rate: v})
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func TestGetRates_CarriesForwardAcrossWeekendGap(t *testing.T) {
	friday := day(2026, 1, 2)
	monday := day(2026, 1, 5)

	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: true},
	}}
	rates := &fakeRateRepo{
		earliest: friday,
		latest:   friday,
		byDate: map[time.Time]decimal.Decimal{
			friday: decimal.RequireFromString("1.10"),
		},
	}

	engine := query.New(series, rates, nil)
	points, err := engine.GetRates(context.Background(), "EUR", datePtr(friday), datePtr(monday))
	require.NoError(t, err)
	require.Len(t, points, 4)

	for _, p := range points {
		assert.True(t, p.Rate.Equal(decimal.RequireFromString("1.10")), p.Date)
		assert.True(t, p.PublishedDate.Equal(friday), "every carried-forward day must report Friday as its published date")
	}
}

func TestGetRates_PublishedDateAdvancesWhenNewValueIsObserved(t *testing.T) {
	day1 := day(2026, 1, 2)
	day2 := day(2026, 1, 3)
	day3 := day(2026, 1, 4)

	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: true},
	}}
	rates := &fakeRateRepo{
		earliest: day1,
		latest:   day3,
		byDate: map[time.Time]decimal.Decimal{
			day1: decimal.RequireFromString("1.10"),
			day3: decimal.RequireFromString("1.12"),
		},
	}

	engine := query.New(series, rates, nil)
	points, err := engine.GetRates(context.Background(), "EUR", datePtr(day1), datePtr(day3))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.True(t, points[0].PublishedDate.Equal(day1))
	assert.True(t, points[1].PublishedDate.Equal(day1), "day2 has no observation of its own, so it carries day1's published date")
	assert.True(t, points[2].PublishedDate.Equal(day3))
}

func TestGetRates_PublishedDateCanPrecedeRequestedRange(t *testing.T) {
	earlier := day(2025, 12, 30)
	start := day(2026, 1, 2)

	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: true},
	}}
	rates := &fakeRateRepo{
		earliest: earlier,
		latest:   earlier,
		byDate: map[time.Time]decimal.Decimal{
			earlier: decimal.RequireFromString("1.05"),
		},
	}

	engine := query.New(series, rates, nil)
	points, err := engine.GetRates(context.Background(), "EUR", datePtr(start), datePtr(start))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].PublishedDate.Equal(earlier), "carry-forward sourced from before the requested range must report that earlier date")
}

func TestGetRates_DefaultsOmittedRangeToStoredBounds(t *testing.T) {
	earliest := day(2026, 1, 2)
	latest := day(2026, 1, 4)

	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: true},
	}}
	rates := &fakeRateRepo{
		earliest: earliest,
		latest:   latest,
		byDate: map[time.Time]decimal.Decimal{
			earliest: decimal.RequireFromString("1.10"),
			latest:   decimal.RequireFromString("1.12"),
		},
	}

	engine := query.New(series, rates, nil)
	points, err := engine.GetRates(context.Background(), "EUR", nil, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Date.Equal(earliest))
	assert.True(t, points[len(points)-1].Date.Equal(latest))
}

func TestGetRates_StartDateBeforeEarliest(t *testing.T) {
	earliest := day(2026, 1, 2)
	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: true},
	}}
	rates := &fakeRateRepo{earliest: earliest, latest: earliest, byDate: map[time.Time]decimal.Decimal{earliest: decimal.RequireFromString("1.1")}}

	engine := query.New(series, rates, nil)
	_, err := engine.GetRates(context.Background(), "EUR", datePtr(earliest.AddDate(0, 0, -1)), datePtr(earliest))

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeStartDateOutOfRange, appErr.Code)
}

func TestGetRates_CurrencyNotEnabled(t *testing.T) {
	series := &fakeSeriesRepo{series: map[string]*domain.CurrencySeries{
		"EUR": {CurrencyCode: "EUR", Enabled: false},
	}}
	engine := query.New(series, &fakeRateRepo{}, nil)

	_, err := engine.GetRates(context.Background(), "EUR", datePtr(day(2026, 1, 1)), datePtr(day(2026, 1, 2)))
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeCurrencyNotEnabled, appErr.Code)
}
