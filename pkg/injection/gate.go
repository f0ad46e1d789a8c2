package injection

import (
	"context"
	"fmt"

	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/token"
)

// MessageTokenMissing is the 401 message for a request without a token
const MessageTokenMissing = "Token was not provided"

// gate runs the token check. A nil response means the request may proceed.
func (o *Options) gate(ctx context.Context, env Env, tok string) (*token.Validation, *response.Response) {
	if tok == "" {
		return nil, response.NewUnauthorizedError(MessageTokenMissing)
	}

	accountSID := env.Get(o.AccountSIDField)
	authToken := env.Get(o.AuthTokenField)
	if accountSID == "" || authToken == "" {
		return nil, response.NewInternalServerError(
			fmt.Sprintf("Missing %s or %s in environment", o.AccountSIDField, o.AuthTokenField))
	}

	validation, err := o.Validator.Validate(ctx, tok, accountSID, authToken)
	if err != nil {
		if fault.IsRejection(err) {
			return nil, response.NewUnauthorizedError(fault.MessageOf(err))
		}
		return nil, response.NewInternalServerError(err.Error())
	}

	if validation == nil || !validation.Valid {
		message := ""
		if validation != nil {
			message = validation.Message
		}
		return validation, response.NewUnauthorizedError(message)
	}

	return validation, nil
}
