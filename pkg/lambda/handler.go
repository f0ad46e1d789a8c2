// Package lambda serves wrapped functions behind API Gateway on AWS Lambda.
//
// Functions see the keys of the bundled dotenv file (ENV_FILE) and the
// account keys. Variables configured on the Lambda function reach them only
// when listed in FUNCTION_ENV_KEYS, e.g. FUNCTION_ENV_KEYS=FROM_NUMBER.
package lambda

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

// ProxyHandler is the API Gateway proxy handler signature
type ProxyHandler func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewHandler serves the function registered under name. Conversion errors
// are answered with a BadRequest; the Lambda itself never fails.
func NewHandler(invoker Invoker, name string) ProxyHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = injection.WithInvocationID(ctx, lc.AwsRequestID)
		}

		req, err := FromAPIGateway(event)
		if err != nil {
			return ToAPIGateway(response.NewBadRequestError(err.Error())), nil
		}

		values, err := req.Event()
		if err != nil {
			return ToAPIGateway(response.NewBadRequestError(err.Error())), nil
		}

		resp, err := invoker.Invoke(ctx, name, values)
		if err != nil {
			return ToAPIGateway(response.NewNotFoundError(err.Error())), nil
		}
		return ToAPIGateway(resp), nil
	}
}

// Start registers handler in the shared container and serves it. It blocks
// for the life of the Lambda runtime; the container is closed when the
// runtime sends SIGTERM.
func Start(name string, handler injection.Handler, opts *injection.Options) {
	manager := GetContainerManager()
	container, err := manager.GetContainer(context.Background())
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}

	container.Handle(name, handler, opts)
	awslambda.StartWithOptions(NewHandler(container, name),
		awslambda.WithEnableSIGTERM(func() {
			if err := manager.Cleanup(); err != nil {
				container.Logger.WithError(err).Error("Failed to close container")
			}
		}),
	)
}

// ErrNotRegistered is returned by a StaticInvoker for unknown names
var ErrNotRegistered = errors.New("function not registered")

// StaticInvoker invokes a fixed set of functions with a fixed platform
// context; it serves functions without a container
type StaticInvoker struct {
	Context   *injection.Context
	Functions map[string]injection.Function
}

// Invoke implements Invoker
func (s StaticInvoker) Invoke(ctx context.Context, name string, event injection.Event) (*response.Response, error) {
	fn, ok := s.Functions[name]
	if !ok {
		return nil, ErrNotRegistered
	}
	return injection.Invoke(ctx, fn, s.Context, event), nil
}
