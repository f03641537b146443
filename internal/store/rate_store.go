package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
)

const dateLayout = "2006-01-02"

// RateStore persists and queries exchange_rate rows.
type RateStore struct {
	conn db.Querier
}

// NewRateStore builds a RateStore over any Querier.
func NewRateStore(conn db.Querier) *RateStore {
	return &RateStore{conn: conn}
}

type rateRow struct {
	ID             int64     `db:"id"`
	SeriesID       int64     `db:"series_id"`
	BaseCurrency   string    `db:"base_currency"`
	TargetCurrency string    `db:"target_currency"`
	Date           string    `db:"date"`
	Rate           string    `db:"rate"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	CreatedBy      string    `db:"created_by"`
	UpdatedBy      string    `db:"updated_by"`
}

func (r rateRow) toDomain() (domain.ExchangeRate, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("parse stored date %q: %w", r.Date, err)
	}
	rate, err := parseDecimal(r.Rate)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	return domain.ExchangeRate{
		ID:             r.ID,
		SeriesID:       r.SeriesID,
		BaseCurrency:   r.BaseCurrency,
		TargetCurrency: r.TargetCurrency,
		Date:           date,
		Rate:           rate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
	}, nil
}

// FindByTriple looks up the single row for (base, target, date).
func (s *RateStore) FindByTriple(ctx context.Context, base, target string, date time.Time) (*domain.ExchangeRate, error) {
	var row rateRow
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, series_id, base_currency, target_currency, date, rate, created_at, updated_at, created_by, updated_by
		FROM exchange_rate WHERE base_currency = ? AND target_currency = ? AND date = ?`,
		base, target, date.Format(dateLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find rate by triple: %w", err)
	}
	rate, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// FindLatestForSeries returns the most recent stored rate for a series, or
// ErrNotFound if the series has no rates yet.
func (s *RateStore) FindLatestForSeries(ctx context.Context, seriesID int64) (*domain.ExchangeRate, error) {
	var row rateRow
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, series_id, base_currency, target_currency, date, rate, created_at, updated_at, created_by, updated_by
		FROM exchange_rate WHERE series_id = ? ORDER BY date DESC LIMIT 1`, seriesID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest rate for series: %w", err)
	}
	rate, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// CountForSeries returns how many rows exist for a series.
func (s *RateStore) CountForSeries(ctx context.Context, seriesID int64) (int, error) {
	var count int
	err := s.conn.GetContext(ctx, &count, `SELECT COUNT(1) FROM exchange_rate WHERE series_id = ?`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("count rates for series: %w", err)
	}
	return count, nil
}

// FindEarliestDateForTarget returns the earliest stored date for a target
// currency, or ErrNotFound if none exist.
func (s *RateStore) FindEarliestDateForTarget(ctx context.Context, target string) (time.Time, error) {
	var date string
	err := s.conn.GetContext(ctx, &date, `
		SELECT date FROM exchange_rate WHERE target_currency = ? ORDER BY date ASC LIMIT 1`, target)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("find earliest date for target: %w", err)
	}
	return time.Parse(dateLayout, date)
}

// FindLatestDateForTarget returns the most recent stored date for a target
// currency, or ErrNotFound if none exist.
func (s *RateStore) FindLatestDateForTarget(ctx context.Context, target string) (time.Time, error) {
	var date string
	err := s.conn.GetContext(ctx, &date, `
		SELECT date FROM exchange_rate WHERE target_currency = ? ORDER BY date DESC LIMIT 1`, target)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("find latest date for target: %w", err)
	}
	return time.Parse(dateLayout, date)
}

// FindLatestBefore returns the most recent rate strictly before date for the
// target currency; powers carry-forward before the requested range.
func (s *RateStore) FindLatestBefore(ctx context.Context, target string, date time.Time) (*domain.ExchangeRate, error) {
	var row rateRow
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, series_id, base_currency, target_currency, date, rate, created_at, updated_at, created_by, updated_by
		FROM exchange_rate WHERE target_currency = ? AND date < ? ORDER BY date DESC LIMIT 1`,
		target, date.Format(dateLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest rate before date: %w", err)
	}
	rate, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// FindInRange returns rates for target ordered ascending by date, optionally
// bounded by startDate/endDate (either may be nil to mean unbounded).
func (s *RateStore) FindInRange(ctx context.Context, target string, startDate, endDate *time.Time) ([]domain.ExchangeRate, error) {
	query := `SELECT id, series_id, base_currency, target_currency, date, rate, created_at, updated_at, created_by, updated_by
		FROM exchange_rate WHERE target_currency = ?`
	args := []interface{}{target}

	if startDate != nil {
		query += " AND date >= ?"
		args = append(args, startDate.Format(dateLayout))
	}
	if endDate != nil {
		query += " AND date <= ?"
		args = append(args, endDate.Format(dateLayout))
	}
	query += " ORDER BY date ASC"

	var rows []rateRow
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find rates in range: %w", err)
	}

	out := make([]domain.ExchangeRate, 0, len(rows))
	for _, row := range rows {
		rate, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, nil
}

// Insert adds a brand-new rate row.
func (s *RateStore) Insert(ctx context.Context, rate *domain.ExchangeRate) error {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO exchange_rate (series_id, base_currency, target_currency, date, rate, created_at, updated_at, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rate.SeriesID, rate.BaseCurrency, rate.TargetCurrency, rate.Date.Format(dateLayout),
		rate.Rate.String(), rate.CreatedAt, rate.UpdatedAt, rate.CreatedBy, rate.UpdatedBy)
	if err != nil {
		return fmt.Errorf("insert rate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted rate id: %w", err)
	}
	rate.ID = id
	return nil
}

// Update overwrites the rate value of an existing row (a restated
// observation — expected to be rare, logged by the caller).
func (s *RateStore) Update(ctx context.Context, rate *domain.ExchangeRate) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE exchange_rate SET rate = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
		rate.Rate.String(), rate.UpdatedAt, rate.UpdatedBy, rate.ID)
	if err != nil {
		return fmt.Errorf("update rate: %w", err)
	}
	return nil
}

// BulkInsert inserts every rate, one Insert (and one round trip) per row.
func (s *RateStore) BulkInsert(ctx context.Context, rates []domain.ExchangeRate) error {
	for i := range rates {
		if err := s.Insert(ctx, &rates[i]); err != nil {
			return err
		}
	}
	return nil
}
