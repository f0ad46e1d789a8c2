// Package client is a small Twilio REST client. It is the client handle the
// Functions runtime hands to providers, covering the calls functions make
// most: sending messages and placing calls.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"twilio-functions-utils/pkg/flow"
)

// DefaultBaseURL is the Twilio REST API host
const DefaultBaseURL = "https://api.twilio.com"

const apiVersion = "2010-04-01"

// Client talks to the Twilio REST API for one account
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	retry      *flow.RetryConfig
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API host
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithRetryConfig sets the retry policy for transient API failures
func WithRetryConfig(cfg *flow.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithLogger sets the logger
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for accountSID
func New(accountSID, authToken string, opts ...Option) *Client {
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      flow.DefaultRetryConfig(),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccountSID returns the account the client acts for
func (c *Client) AccountSID() string {
	return c.accountSID
}

// APIError is an error answer from the REST API
type APIError struct {
	Status   int
	Code     int
	Message  string
	MoreInfo string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio: %s (code %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("twilio: %s", e.Message)
}

// StatusCode returns the HTTP status of the answer
func (e *APIError) StatusCode() int {
	return e.Status
}

// Retryable reports whether the request may succeed when repeated
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		apiErr.Code = int(parsed.Get("code").Int())
		apiErr.Message = parsed.Get("message").String()
		apiErr.MoreInfo = parsed.Get("more_info").String()
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// retryFor returns the retry policy for method. A POST creates a resource,
// so it is only repeated when the API says the request was not processed.
func (c *Client) retryFor(method string) *flow.RetryConfig {
	if method == http.MethodGet || c.retry == nil {
		return c.retry
	}
	cfg := *c.retry
	cfg.ShouldRetry = notProcessed
	return &cfg
}

// notProcessed reports whether err is an answer that guarantees the API
// did not act on the request.
func notProcessed(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusTooManyRequests || apiErr.Status == http.StatusServiceUnavailable
}

// post sends a form to path below the account and returns the parsed JSON answer
func (c *Client) post(ctx context.Context, path string, form url.Values) (gjson.Result, error) {
	return c.do(ctx, http.MethodPost, path, form)
}

func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (gjson.Result, error) {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/%s", c.baseURL, apiVersion, c.accountSID, path)
	start := time.Now()

	body, err := flow.Do(ctx, c.retryFor(method), func(ctx context.Context) ([]byte, error) {
		var reader io.Reader
		if form != nil {
			reader = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.accountSID, c.authToken)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			return nil, parseAPIError(resp.StatusCode, data)
		}
		return data, nil
	})

	fields := logrus.Fields{
		"method":     method,
		"path":       path,
		"latency_ms": float64(time.Since(start).Nanoseconds()) / 1000000,
	}
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Warn("Twilio API request failed")
		return gjson.Result{}, err
	}
	c.logger.WithFields(fields).Debug("Twilio API request completed")

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("twilio: invalid JSON answer from %s", path)
	}
	return gjson.ParseBytes(body), nil
}
