package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"twilio-functions-utils/pkg/response"
)

func TestRecordInvocation(t *testing.T) {
	RecordInvocation("metrics-ok", response.OK("hi"), 10*time.Millisecond)
	RecordInvocation("metrics-ok", response.OK("hi"), 10*time.Millisecond)
	RecordInvocation("metrics-denied", response.NewUnauthorizedError(""), time.Millisecond)
	RecordInvocation("metrics-nil", nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(functionInvocations.WithLabelValues("metrics-ok", "Response", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(functionInvocations.WithLabelValues("metrics-denied", "UnauthorizedError", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rejectionsTotal.WithLabelValues("metrics-denied")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rejectionsTotal.WithLabelValues("metrics-ok")))
}

func TestHandler(t *testing.T) {
	RecordHTTPRequest("POST", "/hello", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "functions_http_requests_total"))
}
