package outbox

import (
	"context"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
)

// Store is the persistence layer for outbox rows, usable both inside a unit
// of work (insert, as part of the originating business transaction) and
// outside one (the dispatcher's poll/mark/sweep loop).
type Store struct {
	conn db.Querier
}

// NewStore builds a Store bound to conn — pass a *sqlx.DB for the dispatcher
// or a *sqlx.Tx (via UnitOfWork) for transactional inserts.
func NewStore(conn db.Querier) *Store {
	return &Store{conn: conn}
}

// Insert persists a new pending event. Call this from inside the same unit
// of work as the business mutation it announces (SPEC_FULL.md §4.5).
func (s *Store) Insert(ctx context.Context, event domain.OutboxEvent) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO event_publication (id, listener_id, event_type, payload, publication_date, completion_date)
		VALUES (?, ?, ?, ?, ?, NULL)`,
		event.ID, event.ListenerID, event.EventType, event.Payload, event.PublicationDate)
	return err
}

// FindPending returns events with no completion_date, oldest first. This
// naturally covers startup replay: anything left pending by a crash before
// dispatch is picked right back up.
func (s *Store) FindPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var events []domain.OutboxEvent
	err := s.conn.SelectContext(ctx, &events, `
		SELECT id, listener_id, event_type, payload, publication_date, completion_date
		FROM event_publication
		WHERE completion_date IS NULL
		ORDER BY publication_date ASC
		LIMIT ?`, limit)
	return events, err
}

// MarkComplete stamps an event as dispatched.
func (s *Store) MarkComplete(ctx context.Context, id string, at time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE event_publication SET completion_date = ? WHERE id = ?`, at, id)
	return err
}

// DeleteCompletedBefore purges dispatched events older than cutoff
// (SPEC_FULL.md §4.5 retention sweep). Pending events are never deleted.
func (s *Store) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM event_publication
		WHERE completion_date IS NOT NULL AND completion_date < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
