package httpapi

import (
	"context"
	"net/http"

	"github.com/budgetanalyzer/currency-service/internal/importer"
)

// ImportEngineAPI is the subset of importer.Engine the handler depends on.
type ImportEngineAPI interface {
	TriggerManualImport(ctx context.Context) ([]importer.Result, error)
}

// ImportHandler exposes a manual import trigger over
// POST /v1/admin/exchange-rates/import.
type ImportHandler struct {
	engine ImportEngineAPI
}

// NewImportHandler builds an ImportHandler.
func NewImportHandler(engine ImportEngineAPI) *ImportHandler {
	return &ImportHandler{engine: engine}
}

type importResultResponse struct {
	CurrencyCode string `json:"currencyCode"`
	Succeeded    bool   `json:"succeeded"`
	Message      string `json:"message"`
}

// Trigger runs a gap-fill and restatement pass for every enabled series and
// returns a per-series result. A series whose import fails (a provider
// outage included) is reported with succeeded=false in the 200 response
// rather than aborting the whole run; only an error from the engine itself
// is mapped to an error status.
func (h *ImportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.TriggerManualImport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]importResultResponse, len(results))
	for i, res := range results {
		out[i] = importResultResponse{CurrencyCode: res.CurrencyCode, Succeeded: res.Succeeded, Message: res.Message}
	}
	writeJSON(w, http.StatusOK, out)
}
