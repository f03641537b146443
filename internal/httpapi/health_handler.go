package httpapi

import (
	"context"
	"net/http"

	"github.com/budgetanalyzer/currency-service/internal/healthcheck"
)

// DiskCheckAPI is the subset of healthcheck.DiskCheck the handler depends on.
type DiskCheckAPI interface {
	Check(ctx context.Context) (healthcheck.Result, error)
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	disk DiskCheckAPI
}

// NewHealthHandler builds a HealthHandler.
func NewHealthHandler(disk DiskCheckAPI) *HealthHandler {
	return &HealthHandler{disk: disk}
}

// Handle reports 200 with disk headroom details, or 503 if headroom is low.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.disk.Check(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unknown", "error": err.Error()})
		return
	}

	status := http.StatusOK
	if !result.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}
