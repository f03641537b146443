package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// writeError maps err to the documented status code and body shape
// (SPEC_FULL.md §7), falling back to a generic 500 for unrecognized errors.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		log.Error().Err(err).Msg("unhandled internal error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error"})
		return
	}
	writeJSON(w, appErr.HTTPStatus(), errorBody{Code: appErr.Code, Message: appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
