// Package token validates the bearer tokens Flex front ends attach to
// function requests.
package token

import (
	"context"
	"errors"
)

var (
	// ErrEmptyToken is returned when a validator is called without a token
	ErrEmptyToken = errors.New("token: empty token")

	// ErrMissingCredentials is returned when the account SID or auth token is empty
	ErrMissingCredentials = errors.New("token: missing account credentials")
)

// Validation is the outcome of a token check
type Validation struct {
	Valid       bool     `json:"valid"`
	Code        int      `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`
	Expiration  string   `json:"expiration,omitempty"`
	RealmUserID string   `json:"realm_user_id,omitempty"`
	Identity    string   `json:"identity,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	WorkerSID   string   `json:"worker_sid,omitempty"`
}

// Validator checks a token against an account.
//
// An invalid token is reported as a Validation with Valid false. Errors are
// reserved for failures of the check itself; errors tagged as rejections
// with fault.Reject are treated as authentication failures by callers.
type Validator interface {
	Validate(ctx context.Context, token, accountSID, authToken string) (*Validation, error)
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(ctx context.Context, token, accountSID, authToken string) (*Validation, error)

// Validate implements Validator
func (f ValidatorFunc) Validate(ctx context.Context, token, accountSID, authToken string) (*Validation, error) {
	return f(ctx, token, accountSID, authToken)
}

func checkInput(token, accountSID, authToken string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if accountSID == "" || authToken == "" {
		return ErrMissingCredentials
	}
	return nil
}
