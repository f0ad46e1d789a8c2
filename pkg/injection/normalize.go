package injection

import (
	"fmt"

	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/result"
)

// ResultFailurePolicy decides how a failed Result returned by a handler is
// delivered
type ResultFailurePolicy int

const (
	// PassthroughAs500 delivers an error failure the way a returned error is
	// delivered. A fault.Reject rejection becomes 401 Unauthorized and an
	// error carrying a response or status is answered through it
	// (response.ForStatus). Anything else is a 500 InternalServerError.
	PassthroughAs500 ResultFailurePolicy = iota
	// MapToBadRequest delivers failures as BadRequestError. Only a failure
	// carrying its own response keeps it; rejections become 400 too.
	MapToBadRequest
)

func (p ResultFailurePolicy) String() string {
	if p == MapToBadRequest {
		return "mapToBadRequest"
	}
	return "passthroughAs500"
}

type normalizer struct {
	policy                  ResultFailurePolicy
	disableStringRejections bool
}

// value maps a handler outcome to the response delivered for it
func (n normalizer) value(v any, err error) *response.Response {
	if err != nil {
		return n.error(err)
	}

	switch out := v.(type) {
	case *response.Response:
		if out == nil {
			return response.New(nil)
		}
		return out
	case result.Outcome:
		return n.outcome(out)
	case error:
		return n.error(out)
	}

	return response.New(v)
}

func (n normalizer) outcome(o result.Outcome) *response.Response {
	if !o.IsError() {
		if resp, ok := o.Payload().(*response.Response); ok && resp != nil {
			return resp
		}
		return response.New(o.Payload())
	}

	failure := o.Failure()
	if err, ok := failure.(error); ok {
		if resp, ok := response.FromError(err); ok {
			return resp
		}
		if n.policy == PassthroughAs500 {
			return n.error(err)
		}
	}

	if n.policy == MapToBadRequest {
		return response.NewBadRequestError(result.Message(failure))
	}
	return response.NewInternalServerError(result.Message(failure))
}

func (n normalizer) error(err error) *response.Response {
	if resp, ok := response.FromError(err); ok {
		return resp
	}
	if fault.IsRejection(err) {
		return response.NewUnauthorizedError(fault.MessageOf(err))
	}
	if status, ok := response.StatusOf(err); ok {
		return response.ForStatus(status, err.Error())
	}
	return response.NewInternalServerError(err.Error())
}

// panic maps a recovered panic value. Panicking with a string keeps the
// legacy meaning of an authentication rejection.
func (n normalizer) panic(rec any) *response.Response {
	switch v := rec.(type) {
	case string:
		if n.disableStringRejections {
			return response.NewInternalServerError(v)
		}
		return response.NewUnauthorizedError(v)
	case error:
		return n.error(v)
	default:
		return response.NewInternalServerError(fmt.Sprint(v))
	}
}
