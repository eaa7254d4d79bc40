package admissiongate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const apiBase = "/admin/api/v1"

// Client is the Admission Gate SDK client. It talks to the gate's admin API
// to manage the egress allow-list and inspect admission state.
type Client struct {
	serverAddr string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new Admission Gate SDK client.
// It reads configuration from ADMISSION_GATE_* environment variables by
// default. Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: os.Getenv("ADMISSION_GATE_SERVER_ADDR"),
		apiKey:     os.Getenv("ADMISSION_GATE_API_KEY"),
		timeout:    parseDurationEnv("ADMISSION_GATE_TIMEOUT", 5*time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Domains returns the current egress allow-list.
func (c *Client) Domains(ctx context.Context) (*DomainList, error) {
	var list DomainList
	if err := c.doRequest(ctx, http.MethodGet, apiBase+"/egress/domains", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// AddDomain adds one hostname to the egress allow-list and returns the
// updated list. Adding a hostname that is already present returns a
// *DomainExistsError.
func (c *Client) AddDomain(ctx context.Context, domain string) (*DomainList, error) {
	body := map[string]string{"domain": domain}

	var list DomainList
	err := c.doRequest(ctx, http.MethodPost, apiBase+"/egress/domains", body, &list)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, &DomainExistsError{Domain: domain}
		}
		return nil, err
	}
	return &list, nil
}

// RemoveDomain removes one hostname from the egress allow-list. Removing a
// hostname that is not present returns a *DomainNotFoundError.
func (c *Client) RemoveDomain(ctx context.Context, domain string) error {
	path := apiBase + "/egress/domains/" + url.PathEscape(domain)

	err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return &DomainNotFoundError{Domain: domain}
		}
		return err
	}
	return nil
}

// ReplaceDomains swaps the entire egress allow-list for the given hostnames
// and returns the list as the gate applied it.
func (c *Client) ReplaceDomains(ctx context.Context, domains []string) (*DomainList, error) {
	body := map[string][]string{"domains": domains}

	var list DomainList
	if err := c.doRequest(ctx, http.MethodPut, apiBase+"/egress/domains", body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RateLimitStatus reports the calling client's remaining budget on the given
// route. The query is read-only: it consumes none of the budget.
func (c *Client) RateLimitStatus(ctx context.Context, route string) (*RateLimitStatus, error) {
	path := apiBase + "/ratelimit/status?route=" + url.QueryEscape(route)

	var status RateLimitStatus
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Violations returns recent rate-limit denials, newest first. A limit of zero
// or less uses the gate's default.
func (c *Client) Violations(ctx context.Context, limit int) (*ViolationList, error) {
	path := apiBase + "/violations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var list ViolationList
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Health returns the gate's health report. A degraded report still means the
// gate is serving: admission fails open when the counter store is down.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// doRequest performs an HTTP request against the gate.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	u := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &ServerUnreachableError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &APIError{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// errorMessage extracts the gate's {"error": ...} message from an error
// response body, falling back to the raw body.
func errorMessage(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(body))
}

// parseDurationEnv reads a duration from an environment variable. Plain
// integers are seconds; otherwise the value is parsed as a duration string.
func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}
