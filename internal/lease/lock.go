// Package lease implements the database-backed lease lock (SPEC_FULL.md
// §4.4) used to guarantee single-executor semantics for scheduled imports
// across replicas. Liveness is purely time-based — no heartbeat, matching
// spec.md's crash-recovery note.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/jmoiron/sqlx"
)

// Locker acquires and releases named leases against the lease_lock table.
type Locker struct {
	db        *sqlx.DB
	processID string
	clock     clock.Clock
}

// New builds a Locker. processID identifies this replica in the locked_by
// column (SPEC_FULL.md §4.4).
func New(db *sqlx.DB, processID string, clk clock.Clock) *Locker {
	return &Locker{db: db, processID: processID, clock: clk}
}

// Lease is a held lock; call Release when the guarded work is done.
type Lease struct {
	name        string
	lockedAt    time.Time
	holdAtLeast time.Duration
	locker      *Locker
}

// TryAcquire attempts to take the named lease. It returns (nil, nil) if
// another holder currently has a live lease — this is not an error, just a
// no-op fire for the caller.
func (l *Locker) TryAcquire(ctx context.Context, name string, holdAtMost, holdAtLeast time.Duration) (*Lease, error) {
	now := l.clock.Now()
	until := now.Add(holdAtMost)

	// A single atomic UPSERT: take the row if it's absent, or steal it only
	// if the existing lease has already expired. If the WHERE clause on the
	// conflict branch doesn't hold, this is a no-op and rows-affected is 0 —
	// that's the atomic insert-or-update-only-if-expired spec.md §4.4 asks for.
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO lease_lock (name, locked_until, locked_at, locked_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			locked_until = excluded.locked_until,
			locked_at = excluded.locked_at,
			locked_by = excluded.locked_by
		WHERE lease_lock.locked_until <= ?`,
		name, until, now, l.processID, now)
	if err != nil {
		return nil, fmt.Errorf("acquire lease %q: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("read lease acquisition result: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return &Lease{name: name, lockedAt: now, holdAtLeast: holdAtLeast, locker: l}, nil
}

// Release gives up the lease early, clamping locked_until to at least
// lockedAt + holdAtLeast to prevent rapid re-fires (SPEC_FULL.md §4.4).
func (l *Lease) Release(ctx context.Context) error {
	now := l.locker.clock.Now()
	releaseUntil := l.lockedAt.Add(l.holdAtLeast)
	if releaseUntil.Before(now) {
		releaseUntil = now
	}

	_, err := l.locker.db.ExecContext(ctx, `
		UPDATE lease_lock SET locked_until = ?
		WHERE name = ? AND locked_by = ? AND locked_at = ?`,
		releaseUntil, l.name, l.locker.processID, l.lockedAt)
	if err != nil {
		return fmt.Errorf("release lease %q: %w", l.name, err)
	}
	return nil
}
