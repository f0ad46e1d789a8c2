package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twilio-functions-utils/internal/middleware"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}
