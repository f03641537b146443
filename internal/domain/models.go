// Package domain holds the core persistent types and the pre-seeded
// currency catalog. See SPEC_FULL.md §3 for field-level invariants.
package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the fixed base of every stored rate. Non-goal: no
// cross-rate computation for other bases.
const BaseCurrency = "USD"

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrencyCode reports whether code matches ^[A-Z]{3}$.
func ValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// AuditContext is threaded explicitly through write paths rather than
// populated by ORM interception (SPEC_FULL.md §9).
type AuditContext struct {
	Actor string
	At    time.Time
}

// CurrencySeries makes one foreign currency importable.
type CurrencySeries struct {
	ID               int64     `db:"id"`
	CurrencyCode     string    `db:"currency_code"`
	ProviderSeriesID string    `db:"provider_series_id"`
	Enabled          bool      `db:"enabled"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
	CreatedBy        string    `db:"created_by"`
	UpdatedBy        string    `db:"updated_by"`
}

// ExchangeRate is one daily observation for a series.
type ExchangeRate struct {
	ID             int64           `db:"id"`
	SeriesID       int64           `db:"series_id"`
	BaseCurrency   string          `db:"base_currency"`
	TargetCurrency string          `db:"target_currency"`
	Date           time.Time       `db:"date"`
	Rate           decimal.Decimal `db:"rate"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	CreatedBy      string          `db:"created_by"`
	UpdatedBy      string          `db:"updated_by"`
}

// OutboxEvent is a durable record of an intent to publish.
type OutboxEvent struct {
	ID              string     `db:"id"`
	ListenerID      string     `db:"listener_id"`
	EventType       string     `db:"event_type"`
	Payload         []byte     `db:"payload"`
	PublicationDate time.Time  `db:"publication_date"`
	CompletionDate  *time.Time `db:"completion_date"`
}

// Pending reports whether the event has not yet been dispatched.
func (e OutboxEvent) Pending() bool { return e.CompletionDate == nil }

// LeaseLock is a named lease row backing single-executor scheduling.
type LeaseLock struct {
	Name        string    `db:"name"`
	LockedUntil time.Time `db:"locked_until"`
	LockedAt    time.Time `db:"locked_at"`
	LockedBy    string    `db:"locked_by"`
}

// SeedCurrency describes one entry of the pre-seeded catalog.
type SeedCurrency struct {
	CurrencyCode     string
	ProviderSeriesID string
}

// SeedCatalog lists the 23 known currency pairs the catalog is bootstrapped
// with, all initially disabled (SPEC_FULL.md §3). Series IDs follow the
// upstream provider's "DEX<CCY><CCY>" naming for USD-quoted daily series.
var SeedCatalog = []SeedCurrency{
	{"EUR", "DEXUSEU"},
	{"GBP", "DEXUSUK"},
	{"AUD", "DEXUSAL"},
	{"NZD", "DEXUSNZ"},
	{"JPY", "DEXJPUS"},
	{"CNY", "DEXCHUS"},
	{"CAD", "DEXCAUS"},
	{"CHF", "DEXSZUS"},
	{"HKD", "DEXHKUS"},
	{"SGD", "DEXSIUS"},
	{"KRW", "DEXKOUS"},
	{"INR", "DEXINUS"},
	{"MXN", "DEXMXUS"},
	{"BRL", "DEXBZUS"},
	{"ZAR", "DEXSFUS"},
	{"SEK", "DEXSDUS"},
	{"NOK", "DEXNOUS"},
	{"DKK", "DEXDNUS"},
	{"MYR", "DEXMAUS"},
	{"THB", "DEXTHUS"},
	{"TWD", "DEXTAUS"},
	{"LKR", "DEXSLUS"},
	{"VES", "DEXVZUS"},
}
