package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/query"
)

const dateLayout = "2006-01-02"

// QueryEngineAPI is the subset of query.Engine the handler depends on.
type QueryEngineAPI interface {
	GetRates(ctx context.Context, targetCurrency string, startDate, endDate *time.Time) ([]query.RatePoint, error)
}

// RatesHandler exposes QueryEngine over /v1/exchange-rates.
type RatesHandler struct {
	engine QueryEngineAPI
}

// NewRatesHandler builds a RatesHandler.
func NewRatesHandler(engine QueryEngineAPI) *RatesHandler {
	return &RatesHandler{engine: engine}
}

type exchangeRateResponse struct {
	Date          string `json:"date"`
	Rate          string `json:"rate"`
	PublishedDate string `json:"publishedDate"`
}

// Get returns the dense rate series for ?targetCurrency&startDate?&endDate?.
// startDate and endDate may each be omitted, defaulting to the stored
// series' first or last published date.
func (h *RatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	targetCurrency := r.URL.Query().Get("targetCurrency")
	if targetCurrency == "" {
		writeError(w, apperr.InvalidRequest("targetCurrency query parameter is required"))
		return
	}

	start, err := parseOptionalDate(r.URL.Query().Get("startDate"), "startDate")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseOptionalDate(r.URL.Query().Get("endDate"), "endDate")
	if err != nil {
		writeError(w, err)
		return
	}

	points, err := h.engine.GetRates(r.Context(), targetCurrency, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]exchangeRateResponse, len(points))
	for i, p := range points {
		out[i] = exchangeRateResponse{
			Date:          p.Date.Format(dateLayout),
			Rate:          p.Rate.String(),
			PublishedDate: p.PublishedDate.Format(dateLayout),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func parseOptionalDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperr.InvalidRequest(field + " must be formatted YYYY-MM-DD")
	}
	return &parsed, nil
}
