package lambda

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"

	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
)

// ErrInvalidBody is returned when a JSON body cannot be parsed
var ErrInvalidBody = errors.New("invalid request body")

// FromAPIGateway converts an API Gateway proxy event to a Request
func FromAPIGateway(event events.APIGatewayProxyRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		body = decoded
	}

	query := make(map[string][]string, len(event.QueryStringParameters))
	for k, v := range event.QueryStringParameters {
		query[k] = []string{v}
	}
	for k, v := range event.MultiValueQueryStringParameters {
		query[k] = v
	}

	headers := make(map[string]string, len(event.Headers))
	for k, v := range event.Headers {
		headers[k] = v
	}
	for k, v := range event.MultiValueHeaders {
		if _, ok := headers[k]; !ok && len(v) > 0 {
			headers[k] = strings.Join(v, ",")
		}
	}

	return &Request{
		Method:      event.HTTPMethod,
		Path:        event.Path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		PathParams:  event.PathParameters,
	}, nil
}

// ToAPIGateway converts a delivered Response to an API Gateway proxy response
func ToAPIGateway(resp *response.Response) events.APIGatewayProxyResponse {
	body, err := resp.Encode()
	if err != nil {
		resp = response.NewInternalServerError(err.Error())
		body, _ = resp.Encode()
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Headers().Map(),
		Body:       string(body),
	}
}

// Event builds the function event from req the way the Functions runtime
// does: query and path parameters, then body fields, then the reserved
// request record (lower-cased headers and cookies) and top-level cookies.
func (req *Request) Event() (injection.Event, error) {
	event := injection.Event{}

	for k, v := range req.QueryParams {
		setValues(event, k, v)
	}
	for k, v := range req.PathParams {
		event[k] = v
	}

	if err := req.decodeBody(event); err != nil {
		return nil, err
	}

	headers := make(map[string]any, len(req.Headers))
	for k, v := range req.Headers {
		headers[strings.ToLower(k)] = v
	}
	cookies := req.cookies()

	event[injection.EventRequest] = map[string]any{
		"headers": headers,
		"cookies": cookies,
	}
	event[injection.EventCookies] = cookies
	return event, nil
}

func (req *Request) header(name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (req *Request) cookies() map[string]any {
	cookies := map[string]any{}
	raw := req.header("Cookie")
	if raw == "" {
		return cookies
	}

	parsed, err := http.ParseCookie(raw)
	if err != nil {
		return cookies
	}
	for _, c := range parsed {
		cookies[c.Name] = c.Value
	}
	return cookies
}

func (req *Request) decodeBody(event injection.Event) error {
	if len(req.Body) == 0 {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(req.header("Content-Type"))
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		for k, v := range values {
			setValues(event, k, v)
		}

	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if !gjson.ValidBytes(req.Body) {
			return fmt.Errorf("%w: malformed JSON", ErrInvalidBody)
		}
		parsed := gjson.ParseBytes(req.Body)
		if !parsed.IsObject() {
			return fmt.Errorf("%w: JSON body must be an object", ErrInvalidBody)
		}
		parsed.ForEach(func(key, value gjson.Result) bool {
			event[key.String()] = value.Value()
			return true
		})
	}
	return nil
}

// setValues stores a single value as a string and repeated values as a list
func setValues(event injection.Event, key string, values []string) {
	switch len(values) {
	case 0:
	case 1:
		event[key] = values[0]
	default:
		event[key] = append([]string(nil), values...)
	}
}
