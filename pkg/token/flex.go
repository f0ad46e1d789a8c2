package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/flow"
)

// DefaultFlexBaseURL is the Twilio IAM endpoint used for Flex tokens
const DefaultFlexBaseURL = "https://iam.twilio.com"

// FlexValidator checks Flex tokens against the Twilio IAM API
type FlexValidator struct {
	baseURL    string
	httpClient *http.Client
	retry      *flow.RetryConfig
	logger     *logrus.Logger
}

// FlexOption configures a FlexValidator
type FlexOption func(*FlexValidator)

// WithBaseURL points the validator at another IAM host
func WithBaseURL(url string) FlexOption {
	return func(v *FlexValidator) {
		v.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(c *http.Client) FlexOption {
	return func(v *FlexValidator) {
		v.httpClient = c
	}
}

// WithRetryConfig sets the retry policy for transient IAM failures
func WithRetryConfig(cfg *flow.RetryConfig) FlexOption {
	return func(v *FlexValidator) {
		v.retry = cfg
	}
}

// WithLogger sets the logger
func WithLogger(l *logrus.Logger) FlexOption {
	return func(v *FlexValidator) {
		v.logger = l
	}
}

// NewFlexValidator creates a validator for Flex tokens
func NewFlexValidator(opts ...FlexOption) *FlexValidator {
	v := &FlexValidator{
		baseURL:    DefaultFlexBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      flow.DefaultRetryConfig(),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// iamError is a non-2xx IAM answer; server errors are worth a retry
type iamError struct {
	status int
	body   string
}

func (e *iamError) Error() string {
	return fmt.Sprintf("token validation returned status %d: %s", e.status, e.body)
}

func (e *iamError) Retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

// Validate implements Validator. A 4xx answer from IAM is reported as a
// rejection; 5xx answers are retried and then returned as plain errors.
func (v *FlexValidator) Validate(ctx context.Context, token, accountSID, authToken string) (*Validation, error) {
	if err := checkInput(token, accountSID, authToken); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/Accounts/%s/Tokens/validate", v.baseURL, accountSID)
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token payload: %w", err)
	}

	body, err := flow.Do(ctx, v.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(accountSID, authToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := v.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &iamError{status: resp.StatusCode, body: string(data)}
		}
		return data, nil
	})
	if err != nil {
		var ie *iamError
		if errors.As(err, &ie) && !ie.Retryable() {
			v.logger.WithFields(logrus.Fields{
				"status_code": ie.status,
				"account_sid": accountSID,
			}).Warn("Flex token rejected")
			message := gjson.Get(ie.body, "message").String()
			if message == "" {
				message = fmt.Sprintf("Token validation failed with status %d", ie.status)
			}
			return nil, fault.Reject(message)
		}
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	return parseValidation(body)
}

func parseValidation(body []byte) (*Validation, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("token validation returned invalid JSON")
	}

	result := gjson.ParseBytes(body)
	validation := &Validation{
		Valid:       result.Get("valid").Bool(),
		Code:        int(result.Get("code").Int()),
		Message:     result.Get("message").String(),
		Expiration:  result.Get("expiration").String(),
		RealmUserID: result.Get("realm_user_id").String(),
		Identity:    result.Get("identity").String(),
		WorkerSID:   result.Get("worker_sid").String(),
	}

	// IAM sends roles as an array; older payloads carry a comma separated string
	roles := result.Get("roles")
	if roles.IsArray() {
		for _, r := range roles.Array() {
			validation.Roles = append(validation.Roles, r.String())
		}
	} else if s := roles.String(); s != "" {
		validation.Roles = strings.Split(s, ",")
	}

	return validation, nil
}
