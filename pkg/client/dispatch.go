package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"twilio-functions-utils/pkg/flow"
)

// Dispatcher calls other functions of the same service over HTTP
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	retry      *flow.RetryConfig
}

// NewDispatcher creates a dispatcher for a service domain such as
// my-service-1234.twil.io. A value with a scheme is used as given.
func NewDispatcher(domain string, httpClient *http.Client) *Dispatcher {
	base := strings.TrimRight(domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Dispatcher{
		baseURL:    base,
		httpClient: httpClient,
		retry:      &flow.RetryConfig{MaxAttempts: 1},
	}
}

// WithRetry sets the retry policy used for dispatches
func (d *Dispatcher) WithRetry(cfg *flow.RetryConfig) *Dispatcher {
	d.retry = cfg
	return d
}

// DispatchResult is the answer of a dispatched function
type DispatchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON parses the body
func (r *DispatchResult) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// Dispatch POSTs data as JSON to /<event>. Non-2xx answers are returned
// together with an *APIError.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, data map[string]any) (*DispatchResult, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dispatch payload: %w", err)
	}
	endpoint := d.baseURL + "/" + strings.TrimLeft(event, "/")

	var result *DispatchResult
	err = flow.WithRetry(ctx, d.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		result = &DispatchResult{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		if resp.StatusCode >= 300 {
			return parseAPIError(resp.StatusCode, body)
		}
		return nil
	})
	return result, err
}
