// Package provider wraps the upstream FRED-style observations API
// (SPEC_FULL.md §4.1) and adapts its payload shape into rate maps
// (SPEC_FULL.md §4.2). The adapter is written against ProviderAdapter, a
// capability set — SPEC_FULL.md §9 forbids service code from referencing a
// concrete provider type.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperr"
	"github.com/rs/zerolog"
)

const (
	maxResponseBytes = 16 * 1024 * 1024
	connectTimeout   = 5 * time.Second
	idleTimeout      = 10 * time.Second
	existenceTimeout = 5 * time.Second
	errorBodyCap     = 500
)

// Client is a typed wrapper over the provider's observations endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// Config configures Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New builds a Client honoring the documented timeout budget: a 5s connect
// timeout and 10s idle timeout baked into the transport, and the
// configurable overall per-request deadline applied as the http.Client
// timeout (and the transport's response-header timeout).
func New(cfg Config, log zerolog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		IdleConnTimeout:       idleTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		log: log.With().Str("component", "provider_client").Logger(),
	}
}

// GetObservations fetches observations for a series, optionally bounded by
// an observation_start date (YYYY-MM-DD).
func (c *Client) GetObservations(ctx context.Context, seriesID string, startDate *time.Time) (ObservationsResponse, error) {
	values := url.Values{}
	values.Set("series_id", seriesID)
	values.Set("api_key", c.apiKey)
	values.Set("file_type", "json")
	if startDate != nil {
		values.Set("observation_start", startDate.Format("2006-01-02"))
	}

	reqURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, values.Encode())

	var out ObservationsResponse
	err := c.doJSON(ctx, reqURL, &out)
	return out, err
}

// Exists reports whether seriesID is known to the provider.
func (c *Client) Exists(ctx context.Context, seriesID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, existenceTimeout)
	defer cancel()

	values := url.Values{}
	values.Set("series_id", seriesID)
	values.Set("api_key", c.apiKey)
	values.Set("file_type", "json")

	reqURL := fmt.Sprintf("%s/series?%s", c.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, apperr.ProviderUnavailable("build existence request").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, apperr.ProviderUnavailable("existence check failed").WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, apperr.ProviderUnavailable(fmt.Sprintf("existence check returned %d", resp.StatusCode))
	default:
		return false, apperr.ProviderRejected(fmt.Sprintf("existence check returned %d", resp.StatusCode))
	}
}

func (c *Client) doJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperr.ProviderUnavailable("build request").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.ProviderUnavailable("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyError(resp.StatusCode, limited)
	}

	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return apperr.ProviderUnavailable("unparseable response body").WithCause(err)
	}
	return nil
}

type providerErrorBody struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) classifyError(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, errorBodyCap))

	var parsed providerErrorBody
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.ErrorMessage
	if message == "" {
		message = string(raw)
	}

	c.log.Warn().Int("status", status).Str("body", message).Msg("provider returned error response")

	if status >= 500 {
		return apperr.ProviderUnavailable(fmt.Sprintf("upstream %d: %s", status, message))
	}
	return apperr.ProviderRejected(fmt.Sprintf("upstream %d: %s", status, message))
}
