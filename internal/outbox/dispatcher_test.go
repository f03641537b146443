package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/db/testdb"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSeriesForEvent() domain.CurrencySeries {
	return domain.CurrencySeries{ID: 1, CurrencyCode: "EUR", ProviderSeriesID: "DEXUSEU", Enabled: true}
}

func fakeDisabledSeriesForEvent() domain.CurrencySeries {
	return domain.CurrencySeries{ID: 2, CurrencyCode: "GBP", ProviderSeriesID: "DEXUSUK", Enabled: false}
}

type fakeSender struct {
	failuresBeforeSuccess int
	sent                  []string
}

func (f *fakeSender) Send(ctx context.Context, eventType string, payload []byte) error {
	if f.failuresBeforeSuccess > 0 {
		f.failuresBeforeSuccess--
		return assert.AnError
	}
	f.sent = append(f.sent, eventType)
	return nil
}

func TestDispatcher_ScanOnce_MarksDeliveredEventsComplete(t *testing.T) {
	database := testdb.Open(t)
	store := NewStore(database.Conn())
	ctx := context.Background()

	event, err := newCurrencyEvent(EventCurrencyCreated, fakeSeriesForEvent(), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, event))

	sender := &fakeSender{}
	d := NewDispatcher(database.Conn(), sender, clock.Real{}, zerolog.Nop(), Config{BatchSize: 10, MaxSendAttempts: 3})

	require.NoError(t, d.scanOnce(ctx))
	assert.Equal(t, []string{EventCurrencyCreated}, sender.sent)

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatcher_ScanOnce_LeavesEventPendingAfterExhaustingRetries(t *testing.T) {
	database := testdb.Open(t)
	store := NewStore(database.Conn())
	ctx := context.Background()

	event, err := newCurrencyEvent(EventCurrencyCreated, fakeSeriesForEvent(), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, event))

	sender := &fakeSender{failuresBeforeSuccess: 100}
	d := NewDispatcher(database.Conn(), sender, clock.Real{}, zerolog.Nop(), Config{BatchSize: 10, MaxSendAttempts: 2})

	require.NoError(t, d.scanOnce(ctx))

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "event must remain pending after retries are exhausted")
}

func TestDispatcher_ScanOnce_SkipsSendForDisabledCurrencyEvent(t *testing.T) {
	database := testdb.Open(t)
	store := NewStore(database.Conn())
	ctx := context.Background()

	event, err := newCurrencyEvent(EventCurrencyUpdated, fakeDisabledSeriesForEvent(), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, event))

	sender := &fakeSender{}
	d := NewDispatcher(database.Conn(), sender, clock.Real{}, zerolog.Nop(), Config{BatchSize: 10, MaxSendAttempts: 3})

	require.NoError(t, d.scanOnce(ctx))
	assert.Empty(t, sender.sent, "a disabled-currency event must not reach the broker")

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "the event is still marked complete even though it wasn't sent")
}

func TestDispatcher_SweepOnce_DeletesOnlyExpiredCompletedRows(t *testing.T) {
	database := testdb.Open(t)
	store := NewStore(database.Conn())
	ctx := context.Background()

	event, err := newCurrencyEvent(EventCurrencyCreated, fakeSeriesForEvent(), time.Now().UTC().AddDate(0, 0, -10))
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, event))
	require.NoError(t, store.MarkComplete(ctx, event.ID, time.Now().UTC().AddDate(0, 0, -9)))

	recent, err := newCurrencyEvent(EventCurrencyUpdated, fakeSeriesForEvent(), time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, recent))
	require.NoError(t, store.MarkComplete(ctx, recent.ID, time.Now().UTC().Add(-time.Hour)))

	clk := &clock.Fixed{At: time.Now().UTC()}
	d := NewDispatcher(database.Conn(), &fakeSender{}, clk, zerolog.Nop(), Config{RetentionDays: 1})

	require.NoError(t, d.sweepOnce(ctx))

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var remaining []string
	require.NoError(t, database.Conn().SelectContext(ctx, &remaining, `SELECT id FROM event_publication`))
	assert.Equal(t, []string{recent.ID}, remaining, "only the completed row past retention must be deleted")
}
