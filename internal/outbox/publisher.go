package outbox

import (
	"context"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/budgetanalyzer/currency-service/internal/domain"
)

// Publisher records domain events as pending outbox rows inside the same
// unit of work as the business mutation that raised them. Actual dispatch
// to the broker happens later, out of band, by Dispatcher.
type Publisher struct {
	clock clock.Clock
}

// NewPublisher builds a Publisher.
func NewPublisher(clk clock.Clock) *Publisher {
	return &Publisher{clock: clk}
}

// PublishCurrencyCreated records a currency.created event for series.
func (p *Publisher) PublishCurrencyCreated(ctx context.Context, uow *db.UnitOfWork, series domain.CurrencySeries) error {
	return p.publishCurrencyEvent(ctx, uow, EventCurrencyCreated, series)
}

// PublishCurrencyUpdated records a currency.updated event for series.
func (p *Publisher) PublishCurrencyUpdated(ctx context.Context, uow *db.UnitOfWork, series domain.CurrencySeries) error {
	return p.publishCurrencyEvent(ctx, uow, EventCurrencyUpdated, series)
}

func (p *Publisher) publishCurrencyEvent(ctx context.Context, uow *db.UnitOfWork, eventType string, series domain.CurrencySeries) error {
	event, err := newCurrencyEvent(eventType, series, p.clock.Now())
	if err != nil {
		return err
	}
	return NewStore(uow.Tx).Insert(ctx, event)
}
