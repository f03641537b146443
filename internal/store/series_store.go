// Package store implements the RateStore persistence contract (SPEC_FULL.md
// §4.3) against sqlite via sqlx, grounded on the teacher's BaseRepository
// pattern but without the hand-rolled row.Scan boilerplate sqlx removes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// SeriesStore persists the currency_series catalog.
type SeriesStore struct {
	conn db.Querier
}

// NewSeriesStore builds a SeriesStore over any Querier (a *sqlx.DB for
// standalone reads, or a unit-of-work's *sqlx.Tx for transactional writes).
func NewSeriesStore(conn db.Querier) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// FindByCurrencyCode looks up a series by its ISO-4217 code.
func (s *SeriesStore) FindByCurrencyCode(ctx context.Context, code string) (*domain.CurrencySeries, error) {
	var row domain.CurrencySeries
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, currency_code, provider_series_id, enabled, created_at, updated_at, created_by, updated_by
		FROM currency_series WHERE currency_code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find series by currency code: %w", err)
	}
	return &row, nil
}

// FindByID looks up a series by its primary key.
func (s *SeriesStore) FindByID(ctx context.Context, id int64) (*domain.CurrencySeries, error) {
	var row domain.CurrencySeries
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, currency_code, provider_series_id, enabled, created_at, updated_at, created_by, updated_by
		FROM currency_series WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find series by id: %w", err)
	}
	return &row, nil
}

// FindEnabled returns every series with enabled = true.
func (s *SeriesStore) FindEnabled(ctx context.Context) ([]domain.CurrencySeries, error) {
	var rows []domain.CurrencySeries
	err := s.conn.SelectContext(ctx, &rows, `
		SELECT id, currency_code, provider_series_id, enabled, created_at, updated_at, created_by, updated_by
		FROM currency_series WHERE enabled = 1 ORDER BY currency_code`)
	if err != nil {
		return nil, fmt.Errorf("find enabled series: %w", err)
	}
	return rows, nil
}

// FindAll returns the whole catalog, optionally filtered to enabled-only.
func (s *SeriesStore) FindAll(ctx context.Context, enabledOnly bool) ([]domain.CurrencySeries, error) {
	query := `SELECT id, currency_code, provider_series_id, enabled, created_at, updated_at, created_by, updated_by FROM currency_series`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY currency_code"

	var rows []domain.CurrencySeries
	if err := s.conn.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("find all series: %w", err)
	}
	return rows, nil
}

// ExistsByProviderID reports whether a series with this providerSeriesId is
// already catalogued.
func (s *SeriesStore) ExistsByProviderID(ctx context.Context, providerSeriesID string) (bool, error) {
	var count int
	err := s.conn.GetContext(ctx, &count, `SELECT COUNT(1) FROM currency_series WHERE provider_series_id = ?`, providerSeriesID)
	if err != nil {
		return false, fmt.Errorf("check series existence: %w", err)
	}
	return count > 0, nil
}

// Save inserts a new series (ID == 0) or updates an existing one in place.
func (s *SeriesStore) Save(ctx context.Context, series *domain.CurrencySeries) error {
	if series.ID == 0 {
		res, err := s.conn.ExecContext(ctx, `
			INSERT INTO currency_series (currency_code, provider_series_id, enabled, created_at, updated_at, created_by, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			series.CurrencyCode, series.ProviderSeriesID, series.Enabled,
			series.CreatedAt, series.UpdatedAt, series.CreatedBy, series.UpdatedBy)
		if err != nil {
			return fmt.Errorf("insert series: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read inserted series id: %w", err)
		}
		series.ID = id
		return nil
	}

	_, err := s.conn.ExecContext(ctx, `
		UPDATE currency_series SET enabled = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
		series.Enabled, series.UpdatedAt, series.UpdatedBy, series.ID)
	if err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}
