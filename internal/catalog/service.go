// Package catalog implements CatalogService (SPEC_FULL.md §4.9): CRUD over
// the currency_series catalog, with provider-side series validation and
// transactional event publication.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/budgetanalyzer/currency-service/internal/outbox"
	"github.com/budgetanalyzer/currency-service/internal/provider"
	"github.com/budgetanalyzer/currency-service/internal/store"
)

// SeriesRepo is the subset of SeriesStore the service depends on.
type SeriesRepo interface {
	FindByCurrencyCode(ctx context.Context, code string) (*domain.CurrencySeries, error)
	FindByID(ctx context.Context, id int64) (*domain.CurrencySeries, error)
	FindAll(ctx context.Context, enabledOnly bool) ([]domain.CurrencySeries, error)
	ExistsByProviderID(ctx context.Context, providerSeriesID string) (bool, error)
	Save(ctx context.Context, series *domain.CurrencySeries) error
}

// Service is CatalogService.
type Service struct {
	db        *db.DB
	series    SeriesRepo
	adapter   provider.Adapter
	publisher *outbox.Publisher
}

// New builds a Service.
func New(database *db.DB, series SeriesRepo, adapter provider.Adapter, publisher *outbox.Publisher) *Service {
	return &Service{db: database, series: series, adapter: adapter, publisher: publisher}
}

// Create registers a new currency series, disabled by default, after
// confirming the provider actually knows the given series id.
func (s *Service) Create(ctx context.Context, audit domain.AuditContext, currencyCode, providerSeriesID string) (domain.CurrencySeries, error) {
	if !domain.ValidCurrencyCode(currencyCode) {
		return domain.CurrencySeries{}, apperr.BusinessRule(apperr.CodeInvalidIso4217Code, fmt.Sprintf("%q is not a valid ISO 4217 currency code", currencyCode))
	}
	if currencyCode == domain.BaseCurrency {
		return domain.CurrencySeries{}, apperr.BusinessRule(apperr.CodeInvalidIso4217Code, "currency code must differ from the base currency")
	}

	_, err := s.series.FindByCurrencyCode(ctx, currencyCode)
	if err == nil {
		return domain.CurrencySeries{}, apperr.BusinessRule(apperr.CodeDuplicateCurrencyCode, fmt.Sprintf("a series already exists for currency %s", currencyCode))
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.CurrencySeries{}, fmt.Errorf("lookup existing series: %w", err)
	}

	exists, err := s.adapter.ValidateSeriesExists(ctx, providerSeriesID)
	if err != nil {
		return domain.CurrencySeries{}, err
	}
	if !exists {
		return domain.CurrencySeries{}, apperr.BusinessRule(apperr.CodeInvalidProviderSeriesID, fmt.Sprintf("provider series id %q does not exist", providerSeriesID))
	}

	series := domain.CurrencySeries{
		CurrencyCode:     currencyCode,
		ProviderSeriesID: providerSeriesID,
		Enabled:          false,
		CreatedAt:        audit.At,
		UpdatedAt:        audit.At,
		CreatedBy:        audit.Actor,
		UpdatedBy:        audit.Actor,
	}

	err = db.WithinTx(ctx, s.db.Conn(), func(ctx context.Context, uow *db.UnitOfWork) error {
		seriesRepo := store.NewSeriesStore(uow.Tx)
		if err := seriesRepo.Save(ctx, &series); err != nil {
			return fmt.Errorf("save series: %w", err)
		}
		return s.publisher.PublishCurrencyCreated(ctx, uow, series)
	})
	if err != nil {
		return domain.CurrencySeries{}, err
	}
	return series, nil
}

// SetEnabled toggles whether a series participates in scheduled imports.
func (s *Service) SetEnabled(ctx context.Context, audit domain.AuditContext, id int64, enabled bool) (domain.CurrencySeries, error) {
	existing, err := s.series.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CurrencySeries{}, apperr.ResourceNotFound(fmt.Sprintf("no series with id %d", id))
		}
		return domain.CurrencySeries{}, fmt.Errorf("lookup series %d: %w", id, err)
	}

	changed := existing.Enabled != enabled

	updated := *existing
	updated.Enabled = enabled
	updated.UpdatedAt = audit.At
	updated.UpdatedBy = audit.Actor

	err = db.WithinTx(ctx, s.db.Conn(), func(ctx context.Context, uow *db.UnitOfWork) error {
		seriesRepo := store.NewSeriesStore(uow.Tx)
		if err := seriesRepo.Save(ctx, &updated); err != nil {
			return fmt.Errorf("save series: %w", err)
		}
		if !changed {
			return nil
		}
		return s.publisher.PublishCurrencyUpdated(ctx, uow, updated)
	})
	if err != nil {
		return domain.CurrencySeries{}, err
	}
	return updated, nil
}

// GetByID returns a single series.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.CurrencySeries, error) {
	series, err := s.series.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CurrencySeries{}, apperr.ResourceNotFound(fmt.Sprintf("no series with id %d", id))
		}
		return domain.CurrencySeries{}, fmt.Errorf("lookup series %d: %w", id, err)
	}
	return *series, nil
}

// GetAll returns the catalog, optionally filtered to enabled-only.
func (s *Service) GetAll(ctx context.Context, enabledOnly bool) ([]domain.CurrencySeries, error) {
	series, err := s.series.FindAll(ctx, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return series, nil
}
