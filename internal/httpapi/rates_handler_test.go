package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/httpapi"
	"github.com/budgetanalyzer/currency-service/internal/query"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryEngine struct {
	points           []query.RatePoint
	err              error
	gotStart, gotEnd *time.Time
}

func (f *fakeQueryEngine) GetRates(ctx context.Context, targetCurrency string, startDate, endDate *time.Time) ([]query.RatePoint, error) {
	f.gotStart, f.gotEnd = startDate, endDate
	return f.points, f.err
}

func newRatesRouter(engine *fakeQueryEngine) *chi.Mux {
	handler := httpapi.NewRatesHandler(engine)
	r := chi.NewRouter()
	r.Get("/v1/exchange-rates", handler.Get)
	return r
}

func TestRatesHandler_Get_RejectsMissingTargetCurrency(t *testing.T) {
	router := newRatesRouter(&fakeQueryEngine{})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRatesHandler_Get_AllowsOmittedDateRange(t *testing.T) {
	engine := &fakeQueryEngine{points: []query.RatePoint{
		{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Rate: decimal.RequireFromString("1.0856"), PublishedDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}
	router := newRatesRouter(engine)

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rates?targetCurrency=EUR", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, engine.gotStart)
	assert.Nil(t, engine.gotEnd)
}

func TestRatesHandler_Get_RejectsMalformedDate(t *testing.T) {
	router := newRatesRouter(&fakeQueryEngine{})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rates?targetCurrency=EUR&startDate=01-01-2026&endDate=2026-01-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRatesHandler_Get_ReturnsFormattedPoints(t *testing.T) {
	engine := &fakeQueryEngine{points: []query.RatePoint{
		{
			Date:          time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			Rate:          decimal.RequireFromString("1.0856"),
			PublishedDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}}
	router := newRatesRouter(engine)

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rates?targetCurrency=EUR&startDate=2026-01-02&endDate=2026-01-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "2026-01-02", body[0]["date"])
	assert.Equal(t, "1.0856", body[0]["rate"])
	assert.Equal(t, "2025-12-31", body[0]["publishedDate"], "a carry-forward day must report the date the value was actually published")
}

func TestRatesHandler_Get_MapsBusinessRuleError(t *testing.T) {
	engine := &fakeQueryEngine{err: apperr.BusinessRule(apperr.CodeStartDateOutOfRange, "too early")}
	router := newRatesRouter(engine)

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rates?targetCurrency=EUR&startDate=2020-01-01&endDate=2020-01-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
