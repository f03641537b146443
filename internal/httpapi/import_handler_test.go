package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/httpapi"
	"github.com/budgetanalyzer/currency-service/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImportEngine struct {
	results []importer.Result
	err     error
}

func (f *fakeImportEngine) TriggerManualImport(ctx context.Context) ([]importer.Result, error) {
	return f.results, f.err
}

func TestImportHandler_Trigger_ReturnsPerSeriesResults(t *testing.T) {
	handler := httpapi.NewImportHandler(&fakeImportEngine{results: []importer.Result{
		{CurrencyCode: "EUR", Succeeded: true, Message: "import complete"},
		{CurrencyCode: "GBP", Succeeded: false, Message: "provider unavailable"},
	}})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/exchange-rates/import", nil)
	rec := httptest.NewRecorder()
	handler.Trigger(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "EUR", body[0]["currencyCode"])
	assert.Equal(t, true, body[0]["succeeded"])
	assert.Equal(t, "GBP", body[1]["currencyCode"])
	assert.Equal(t, false, body[1]["succeeded"])
}

func TestImportHandler_Trigger_MapsProviderUnavailableTo503(t *testing.T) {
	handler := httpapi.NewImportHandler(&fakeImportEngine{err: apperr.ProviderUnavailable("fred down")})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/exchange-rates/import", nil)
	rec := httptest.NewRecorder()
	handler.Trigger(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
