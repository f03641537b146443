package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CatalogServiceAPI is the subset of catalog.Service the handler depends on.
type CatalogServiceAPI interface {
	Create(ctx context.Context, audit domain.AuditContext, currencyCode, providerSeriesID string) (domain.CurrencySeries, error)
	SetEnabled(ctx context.Context, audit domain.AuditContext, id int64, enabled bool) (domain.CurrencySeries, error)
	GetByID(ctx context.Context, id int64) (domain.CurrencySeries, error)
	GetAll(ctx context.Context, enabledOnly bool) ([]domain.CurrencySeries, error)
}

// CatalogHandler exposes CatalogService over /v1/currencies.
type CatalogHandler struct {
	service CatalogServiceAPI
	clock   clock.Clock
}

// NewCatalogHandler builds a CatalogHandler.
func NewCatalogHandler(service CatalogServiceAPI, clk clock.Clock) *CatalogHandler {
	return &CatalogHandler{service: service, clock: clk}
}

type createCurrencyRequest struct {
	CurrencyCode     string `json:"currency_code"`
	ProviderSeriesID string `json:"provider_series_id"`
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// List returns the catalog, optionally filtered with ?enabledOnly=true.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabledOnly") == "true"
	series, err := h.service.GetAll(r.Context(), enabledOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// Get returns a single catalog entry by id.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperr.InvalidRequest("id must be an integer"))
		return
	}
	series, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// Create registers a new series.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidRequest("malformed request body"))
		return
	}

	audit := domain.AuditContext{Actor: actorFromRequest(r), At: h.clock.Now()}
	series, err := h.service.Create(r.Context(), audit, req.CurrencyCode, req.ProviderSeriesID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/admin/currencies/%d", series.ID))
	writeJSON(w, http.StatusCreated, series)
}

// SetEnabled toggles whether a series participates in scheduled imports.
func (h *CatalogHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperr.InvalidRequest("id must be an integer"))
		return
	}

	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidRequest("malformed request body"))
		return
	}

	audit := domain.AuditContext{Actor: actorFromRequest(r), At: h.clock.Now()}
	series, err := h.service.SetEnabled(r.Context(), audit, id, req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// actorFromRequest reads the caller identity header set by the upstream
// gateway. No authentication is performed here — out of scope per
// SPEC_FULL.md §1.
func actorFromRequest(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
