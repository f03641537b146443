package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/budgetanalyzer/currency-service/internal/provider"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubProviderServer(t *testing.T, body string) (*httptest.Server, *provider.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))

	client := provider.New(provider.Config{BaseURL: srv.URL, APIKey: "test", Timeout: 5 * time.Second}, zerolog.Nop())
	return srv, client
}

func TestClient_Exists_TreatsNotFoundAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := provider.New(provider.Config{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, zerolog.Nop())
	exists, err := client.Exists(context.Background(), "BOGUS")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_Exists_TreatsServerErrorAsProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := provider.New(provider.Config{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, zerolog.Nop())
	_, err := client.Exists(context.Background(), "DEXUSEU")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindProviderUnavailable, appErr.Kind)
}

func TestClient_GetObservations_ClassifiesClientErrorAsProviderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":400,"error_message":"bad series id"}`))
	}))
	defer srv.Close()

	client := provider.New(provider.Config{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, zerolog.Nop())
	_, err := client.GetObservations(context.Background(), "BOGUS", nil)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindProviderRejected, appErr.Kind)
}

func TestClient_GetObservations_ParsesSuccessBody(t *testing.T) {
	srv, client := stubProviderServer(t, `{"observations":[{"date":"2026-01-02","value":"1.08"}]}`)
	defer srv.Close()

	resp, err := client.GetObservations(context.Background(), "DEXUSEU", nil)
	require.NoError(t, err)
	require.Len(t, resp.Observations, 1)
	assert.Equal(t, "1.08", resp.Observations[0].Value)
}
