package mock

import (
	"context"
	"sync"

	"twilio-functions-utils/pkg/token"
)

// Validator is a token.Validator returning a canned outcome
type Validator struct {
	mu     sync.Mutex
	result *token.Validation
	err    error
	tokens []string
}

var _ token.Validator = (*Validator)(nil)

// ValidToken accepts every token as identity
func ValidToken(identity string) *Validator {
	return &Validator{result: &token.Validation{Valid: true, Identity: identity}}
}

// InvalidToken reports every token invalid with message
func InvalidToken(message string) *Validator {
	return &Validator{result: &token.Validation{Valid: false, Code: 20401, Message: message}}
}

// FailingValidator fails every check with err
func FailingValidator(err error) *Validator {
	return &Validator{err: err}
}

// Validate implements token.Validator
func (v *Validator) Validate(ctx context.Context, tok, accountSID, authToken string) (*token.Validation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.tokens = append(v.tokens, tok)
	if v.err != nil {
		return nil, v.err
	}
	res := *v.result
	return &res, nil
}

// Tokens returns the tokens seen so far
func (v *Validator) Tokens() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.tokens...)
}

// CallCount returns how many validations ran
func (v *Validator) CallCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tokens)
}
