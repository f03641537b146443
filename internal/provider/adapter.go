package provider

import (
	"context"
	"strings"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/shopspring/decimal"
)

const missingValueSentinel = "."

// Adapter is the capability set ImportEngine and CatalogService depend on.
// Concrete providers (FredAdapter today) are chosen by configuration;
// service code never references a specific provider type (SPEC_FULL.md §9).
type Adapter interface {
	GetExchangeRates(ctx context.Context, series domain.CurrencySeries, startDate *time.Time) (map[time.Time]decimal.Decimal, error)
	ValidateSeriesExists(ctx context.Context, providerSeriesID string) (bool, error)
}

// FredAdapter implements Adapter over a FRED-style observations Client.
type FredAdapter struct {
	client *Client
}

// NewFredAdapter builds a FredAdapter.
func NewFredAdapter(client *Client) *FredAdapter {
	return &FredAdapter{client: client}
}

// GetExchangeRates fetches and transforms observations into a map of
// published dates to decimal rates; dates whose value is a "no data"
// sentinel are left out, so the map is sparse.
func (a *FredAdapter) GetExchangeRates(ctx context.Context, series domain.CurrencySeries, startDate *time.Time) (map[time.Time]decimal.Decimal, error) {
	if series.CurrencyCode == domain.BaseCurrency {
		return nil, apperr.InvalidRequest("cannot import a series whose target currency is the base currency")
	}

	resp, err := a.client.GetObservations(ctx, series.ProviderSeriesID, startDate)
	if err != nil {
		return nil, err
	}

	rates := make(map[time.Time]decimal.Decimal, len(resp.Observations))
	for _, obs := range resp.Observations {
		value := strings.TrimSpace(obs.Value)
		if value == "" || value == missingValueSentinel {
			continue
		}

		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			return nil, apperr.ProviderContractViolation("unparseable observation date: " + obs.Date).WithCause(err)
		}

		if _, exists := rates[date]; exists {
			return nil, apperr.ProviderContractViolation("duplicate observation date from provider: " + obs.Date)
		}

		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, apperr.ProviderContractViolation("unparseable observation value: " + value).WithCause(err)
		}

		rates[date] = rate
	}

	return rates, nil
}

// ValidateSeriesExists confirms the provider knows about a series id.
func (a *FredAdapter) ValidateSeriesExists(ctx context.Context, providerSeriesID string) (bool, error) {
	return a.client.Exists(ctx, providerSeriesID)
}
