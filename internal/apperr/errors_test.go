package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus_MapsEveryKind(t *testing.T) {
	cases := []struct {
		err      *apperr.Error
		expected int
	}{
		{apperr.InvalidRequest("bad"), http.StatusBadRequest},
		{apperr.ResourceNotFound("missing"), http.StatusNotFound},
		{apperr.BusinessRule(apperr.CodeDuplicateCurrencyCode, "dup"), http.StatusUnprocessableEntity},
		{apperr.ProviderUnavailable("down"), http.StatusServiceUnavailable},
		{apperr.ProviderRejected("bad request"), http.StatusServiceUnavailable},
		{apperr.ProviderContractViolation("broken contract"), http.StatusServiceUnavailable},
		{apperr.ImportSanityFailed("too big"), http.StatusServiceUnavailable},
		{apperr.Internal("oops"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, c.err.HTTPStatus(), c.err.Kind)
	}
}

func TestAs_UnwrapsThroughFmtErrorf(t *testing.T) {
	original := apperr.BusinessRule(apperr.CodeCurrencyNotEnabled, "not enabled")
	wrapped := fmt.Errorf("check currency: %w", original)

	found, ok := apperr.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeCurrencyNotEnabled, found.Code)
}

func TestWithCause_PreservesOriginalMessageAndCause(t *testing.T) {
	cause := errors.New("network reset")
	err := apperr.ProviderUnavailable("fetch failed").WithCause(cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "fetch failed", err.Message)
}
