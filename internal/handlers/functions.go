// Package handlers exposes registered functions over HTTP for the local
// development server.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twilio-functions-utils/internal/middleware"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/lambda"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/server"
)

// Functions is what the HTTP layer needs from the container
type Functions interface {
	lambda.Invoker
	Names() []string
	HealthCheck(ctx context.Context) error
}

var _ Functions = (*server.Container)(nil)

// FunctionHandler turns HTTP requests into function invocations
type FunctionHandler struct {
	functions Functions
	logger    logrus.FieldLogger
}

// NewFunctionHandler creates a new function handler
func NewFunctionHandler(functions Functions, logger logrus.FieldLogger) *FunctionHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FunctionHandler{
		functions: functions,
		logger:    logger,
	}
}

// Invoke runs the function named by the request path. The request is
// converted to an event exactly like the Lambda adapter converts API
// Gateway events.
func (h *FunctionHandler) Invoke(c *gin.Context) {
	name := strings.Trim(c.Request.URL.Path, "/")

	req, err := toRequest(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	event, err := req.Event()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		ctx = injection.WithInvocationID(ctx, id)
	}

	resp, err := h.functions.Invoke(ctx, name, event)
	if err != nil {
		if errors.Is(err, server.ErrFunctionNotFound) {
			abortWithError(c, http.StatusNotFound, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	write(c, resp)
}

// Health reports whether the container's collaborators are usable
func (h *FunctionHandler) Health(c *gin.Context) {
	if err := h.functions.HealthCheck(c.Request.Context()); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "twilio-functions-utils",
		"functions": h.functions.Names(),
	})
}

func toRequest(c *gin.Context) (*lambda.Request, error) {
	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		headers[k] = strings.Join(v, ",")
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	return &lambda.Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Headers:     headers,
		QueryParams: c.Request.URL.Query(),
		Body:        body,
		PathParams:  params,
	}, nil
}

func write(c *gin.Context, resp *response.Response) {
	body, err := resp.Encode()
	if err != nil {
		resp = response.NewInternalServerError(err.Error())
		body, _ = resp.Encode()
	}

	for k, v := range resp.Headers().Map() {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode(), resp.Header("Content-Type"), body)
}
