package client

import (
	"context"
	"errors"
	"net/url"

	"github.com/tidwall/gjson"
)

// ErrMissingParam is returned when a required create parameter is empty
var ErrMissingParam = errors.New("twilio: missing required parameter")

// API is the part of the REST client functions depend on. Handlers should
// assert the client handle to API rather than *Client so tests can swap in
// a fake.
type API interface {
	CreateMessage(ctx context.Context, p MessageParams) (*Message, error)
	FetchMessage(ctx context.Context, sid string) (*Message, error)
	CreateCall(ctx context.Context, p CallParams) (*Call, error)
}

var _ API = (*Client)(nil)

// MessageParams are the parameters of a new message
type MessageParams struct {
	To                  string   `json:"To" validate:"required"`
	From                string   `json:"From,omitempty"`
	MessagingServiceSID string   `json:"MessagingServiceSid,omitempty"`
	Body                string   `json:"Body,omitempty"`
	MediaURL            []string `json:"MediaUrl,omitempty"`
	StatusCallback      string   `json:"StatusCallback,omitempty"`
}

// Message is a message resource
type Message struct {
	SID         string `json:"sid"`
	AccountSID  string `json:"account_sid"`
	Status      string `json:"status"`
	To          string `json:"to"`
	From        string `json:"from"`
	Body        string `json:"body"`
	Direction   string `json:"direction"`
	DateCreated string `json:"date_created"`
}

func messageFrom(r gjson.Result) *Message {
	return &Message{
		SID:         r.Get("sid").String(),
		AccountSID:  r.Get("account_sid").String(),
		Status:      r.Get("status").String(),
		To:          r.Get("to").String(),
		From:        r.Get("from").String(),
		Body:        r.Get("body").String(),
		Direction:   r.Get("direction").String(),
		DateCreated: r.Get("date_created").String(),
	}
}

// CreateMessage sends a message
func (c *Client) CreateMessage(ctx context.Context, p MessageParams) (*Message, error) {
	if p.To == "" || (p.From == "" && p.MessagingServiceSID == "") {
		return nil, ErrMissingParam
	}

	form := url.Values{}
	form.Set("To", p.To)
	setIf(form, "From", p.From)
	setIf(form, "MessagingServiceSid", p.MessagingServiceSID)
	setIf(form, "Body", p.Body)
	setIf(form, "StatusCallback", p.StatusCallback)
	for _, m := range p.MediaURL {
		form.Add("MediaUrl", m)
	}

	r, err := c.post(ctx, "Messages.json", form)
	if err != nil {
		return nil, err
	}
	return messageFrom(r), nil
}

// FetchMessage reads a message by SID
func (c *Client) FetchMessage(ctx context.Context, sid string) (*Message, error) {
	r, err := c.get(ctx, "Messages/"+url.PathEscape(sid)+".json")
	if err != nil {
		return nil, err
	}
	return messageFrom(r), nil
}

// CallParams are the parameters of a new call. Exactly one of URL or Twiml
// tells Twilio what to do once the call connects.
type CallParams struct {
	To             string `json:"To" validate:"required"`
	From           string `json:"From" validate:"required"`
	URL            string `json:"Url,omitempty"`
	Twiml          string `json:"Twiml,omitempty"`
	StatusCallback string `json:"StatusCallback,omitempty"`
}

// Call is a call resource
type Call struct {
	SID         string `json:"sid"`
	AccountSID  string `json:"account_sid"`
	Status      string `json:"status"`
	To          string `json:"to"`
	From        string `json:"from"`
	Direction   string `json:"direction"`
	DateCreated string `json:"date_created"`
}

// CreateCall places an outbound call
func (c *Client) CreateCall(ctx context.Context, p CallParams) (*Call, error) {
	if p.To == "" || p.From == "" || (p.URL == "" && p.Twiml == "") {
		return nil, ErrMissingParam
	}

	form := url.Values{}
	form.Set("To", p.To)
	form.Set("From", p.From)
	setIf(form, "Url", p.URL)
	setIf(form, "Twiml", p.Twiml)
	setIf(form, "StatusCallback", p.StatusCallback)

	r, err := c.post(ctx, "Calls.json", form)
	if err != nil {
		return nil, err
	}
	return &Call{
		SID:         r.Get("sid").String(),
		AccountSID:  r.Get("account_sid").String(),
		Status:      r.Get("status").String(),
		To:          r.Get("to").String(),
		From:        r.Get("from").String(),
		Direction:   r.Get("direction").String(),
		DateCreated: r.Get("date_created").String(),
	}, nil
}

func setIf(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
