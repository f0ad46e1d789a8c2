package mock

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"twilio-functions-utils/pkg/client"
)

// Client is an in-memory client.API that records what handlers send
type Client struct {
	mu         sync.RWMutex
	accountSID string
	messages   []*client.Message
	calls      []*client.Call

	// MessageErr and CallErr make the next creates fail when set
	MessageErr error
	CallErr    error
}

var _ client.API = (*Client)(nil)

// NewClient creates a fake client for a mock account
func NewClient() *Client {
	return &Client{accountSID: sid("AC")}
}

// AccountSID returns the mock account SID
func (c *Client) AccountSID() string {
	return c.accountSID
}

// CreateMessage implements client.API
func (c *Client) CreateMessage(ctx context.Context, p client.MessageParams) (*client.Message, error) {
	if p.To == "" || (p.From == "" && p.MessagingServiceSID == "") {
		return nil, client.ErrMissingParam
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MessageErr != nil {
		return nil, c.MessageErr
	}

	msg := &client.Message{
		SID:         sid("SM"),
		AccountSID:  c.accountSID,
		Status:      "queued",
		To:          p.To,
		From:        p.From,
		Body:        p.Body,
		Direction:   "outbound-api",
		DateCreated: time.Now().UTC().Format(time.RFC1123Z),
	}
	c.messages = append(c.messages, msg)

	copied := *msg
	return &copied, nil
}

// FetchMessage implements client.API
func (c *Client) FetchMessage(ctx context.Context, messageSID string) (*client.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, msg := range c.messages {
		if msg.SID == messageSID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, &client.APIError{
		Status:  http.StatusNotFound,
		Code:    20404,
		Message: "The requested resource was not found",
	}
}

// CreateCall implements client.API
func (c *Client) CreateCall(ctx context.Context, p client.CallParams) (*client.Call, error) {
	if p.To == "" || p.From == "" || (p.URL == "" && p.Twiml == "") {
		return nil, client.ErrMissingParam
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CallErr != nil {
		return nil, c.CallErr
	}

	call := &client.Call{
		SID:         sid("CA"),
		AccountSID:  c.accountSID,
		Status:      "queued",
		To:          p.To,
		From:        p.From,
		Direction:   "outbound-api",
		DateCreated: time.Now().UTC().Format(time.RFC1123Z),
	}
	c.calls = append(c.calls, call)

	copied := *call
	return &copied, nil
}

// Messages returns every message created so far
func (c *Client) Messages() []client.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]client.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = *m
	}
	return out
}

// Calls returns every call created so far
func (c *Client) Calls() []client.Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]client.Call, len(c.calls))
	for i, call := range c.calls {
		out[i] = *call
	}
	return out
}

func sid(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}
