package lambda

import (
	"context"

	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

// Request represents a generic HTTP request for serverless functions
type Request struct {
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	Headers     map[string]string   `json:"headers"`
	QueryParams map[string][]string `json:"query_params"`
	Body        []byte              `json:"body"`
	PathParams  map[string]string   `json:"path_params"`
}

// Invoker runs a registered function by name; *server.Container implements it
type Invoker interface {
	Invoke(ctx context.Context, name string, event injection.Event) (*response.Response, error)
}
