package outbox

import (
	"context"
	"math/rand"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Sender delivers one already-encoded event to the broker. BrokerBridge is
// the production implementation; tests supply a fake.
type Sender interface {
	Send(ctx context.Context, eventType string, payload []byte) error
}

// Dispatcher polls for pending outbox rows and hands them to a Sender,
// retrying each send on a constant backoff before leaving a row pending for
// the next (jittered) scan (SPEC_FULL.md §4.5). It also runs the retention
// sweep.
type Dispatcher struct {
	store         *Store
	sender        Sender
	clock         clock.Clock
	log           zerolog.Logger
	scanInterval  time.Duration
	scanJitter    time.Duration
	retention     time.Duration
	batchSize     int
	perEventTries uint64
}

// Config configures Dispatcher timing.
type Config struct {
	ScanInterval    time.Duration
	ScanJitter      time.Duration
	RetentionDays   int
	BatchSize       int
	MaxSendAttempts uint64
}

// NewDispatcher builds a Dispatcher over db, using sender to deliver events.
func NewDispatcher(db *sqlx.DB, sender Sender, clk clock.Clock, log zerolog.Logger, cfg Config) *Dispatcher {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	attempts := cfg.MaxSendAttempts
	if attempts == 0 {
		attempts = 5
	}
	return &Dispatcher{
		store:         NewStore(db),
		sender:        sender,
		clock:         clk,
		log:           log.With().Str("component", "outbox_dispatcher").Logger(),
		scanInterval:  cfg.ScanInterval,
		scanJitter:    cfg.ScanJitter,
		retention:     time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		batchSize:     batch,
		perEventTries: attempts,
	}
}

// Run blocks, scanning every scanInterval plus a random extra delay below
// scanJitter, until ctx is
// cancelled. Startup replay falls out naturally: the first scan picks up
// whatever was left pending by a prior crash.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if err := d.scanOnce(ctx); err != nil {
			d.log.Error().Err(err).Msg("outbox scan failed")
		}
		if err := d.sweepOnce(ctx); err != nil {
			d.log.Error().Err(err).Msg("outbox retention sweep failed")
		}

		wait := d.scanInterval
		if d.scanJitter > 0 {
			wait += time.Duration(rand.Int63n(int64(d.scanJitter)))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (d *Dispatcher) scanOnce(ctx context.Context) error {
	pending, err := d.store.FindPending(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, event := range pending {
		send, err := d.shouldSend(event.Payload)
		if err != nil {
			d.log.Error().Err(err).Str("event_id", event.ID).Str("event_type", event.EventType).
				Msg("decode outbox payload failed, leaving pending")
			continue
		}

		if send {
			if err := d.dispatchOne(ctx, event.ID, event.EventType, event.Payload); err != nil {
				d.log.Error().Err(err).Str("event_id", event.ID).Str("event_type", event.EventType).
					Msg("event delivery exhausted retries, leaving pending")
				continue
			}
		} else {
			d.log.Debug().Str("event_id", event.ID).Str("event_type", event.EventType).
				Msg("disabled-currency event recorded but not sent to broker")
		}

		if err := d.store.MarkComplete(ctx, event.ID, d.clock.Now()); err != nil {
			d.log.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event complete")
		}
	}
	return nil
}

// shouldSend reports whether a catalog event should reach the broker: only
// enabled-currency transitions do (SPEC_FULL.md §4.6). Disabled-state
// transitions stay recorded in the outbox but produce no broker message.
func (d *Dispatcher) shouldSend(payload []byte) (bool, error) {
	var decoded CurrencyEventPayload
	if err := msgpack.Unmarshal(payload, &decoded); err != nil {
		return false, err
	}
	return decoded.Enabled, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, id, eventType string, payload []byte) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), d.perEventTries-1), ctx)
	return backoff.Retry(func() error {
		return d.sender.Send(ctx, eventType, payload)
	}, policy)
}

func (d *Dispatcher) sweepOnce(ctx context.Context) error {
	if d.retention <= 0 {
		return nil
	}
	cutoff := d.clock.Now().Add(-d.retention)
	deleted, err := d.store.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		d.log.Info().Int64("deleted", deleted).Msg("swept completed outbox events")
	}
	return nil
}
