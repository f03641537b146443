package outbox

import (
	"time"

	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Event type discriminators carried in event_type and mirrored into the
// broker message key (SPEC_FULL.md §4.6).
const (
	EventCurrencyCreated = "currency.created"
	EventCurrencyUpdated = "currency.updated"

	// brokerListenerID is the single registered listener for currency
	// catalog events. spec.md does not call for fan-out to multiple
	// listener rows, so every insert uses the same id.
	brokerListenerID = "broker-bridge"
)

// CurrencyEventPayload is the msgpack-encoded body of a catalog event.
type CurrencyEventPayload struct {
	SeriesID         int64  `msgpack:"series_id"`
	CurrencyCode     string `msgpack:"currency_code"`
	ProviderSeriesID string `msgpack:"provider_series_id"`
	Enabled          bool   `msgpack:"enabled"`
}

func newCurrencyEvent(eventType string, series domain.CurrencySeries, publishedAt time.Time) (domain.OutboxEvent, error) {
	payload := CurrencyEventPayload{
		SeriesID:         series.ID,
		CurrencyCode:     series.CurrencyCode,
		ProviderSeriesID: series.ProviderSeriesID,
		Enabled:          series.Enabled,
	}

	encoded, err := msgpack.Marshal(payload)
	if err != nil {
		return domain.OutboxEvent{}, err
	}

	return domain.OutboxEvent{
		ID:              uuid.NewString(),
		ListenerID:      brokerListenerID,
		EventType:       eventType,
		Payload:         encoded,
		PublicationDate: publishedAt,
	}, nil
}
