// Package functions holds the sample functions served by the development
// server and deployed as Lambda handlers.
package functions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twilio-functions-utils/internal/syncstore"
	"twilio-functions-utils/pkg/client"
	"twilio-functions-utils/pkg/fault"
	"twilio-functions-utils/pkg/flow"
	"twilio-functions-utils/pkg/injection"
	"twilio-functions-utils/pkg/response"
	"twilio-functions-utils/pkg/runtime"
	"twilio-functions-utils/pkg/twiml"
)

// Names of the sample functions
const (
	SMSReplyName    = "sms-reply"
	SendMessageName = "send-message"
	FlexSecureName  = "flex-secure"
	MakeCallName    = "make-call"
	CounterName     = "counter"
)

// CounterDocument is the Sync document the counter function increments
const CounterDocument = "counter"

// Registrar is the part of the container the functions are registered with
type Registrar interface {
	Handle(name string, handler injection.Handler, opts *injection.Options)
	HandleImports(name string, handler injection.ImportHandler, opts *injection.Options)
}

// Register adds every sample function. The counter is only registered when
// rt is not nil.
func Register(r Registrar, rt runtime.Runtime) {
	r.Handle(SMSReplyName, SMSReply, SMSReplyOptions())
	r.Handle(SendMessageName, SendMessage, SendMessageOptions())
	r.Handle(FlexSecureName, FlexSecure, FlexSecureOptions())
	r.HandleImports(MakeCallName, MakeCall, MakeCallOptions())
	if rt != nil {
		r.Handle(CounterName, Counter(rt), nil)
	}
}

// SMSReply answers an incoming message with TwiML
func SMSReply(_ context.Context, _ *injection.Receiver, event injection.Event) (any, error) {
	body, _ := event["Body"].(string)
	return twiml.NewMessagingResponse().
		Message("Thanks for your message: " + body).
		Response(), nil
}

// SMSReplyOptions requires the message fields a webhook always carries
func SMSReplyOptions() *injection.Options {
	return &injection.Options{
		Guards: []injection.Guard{injection.RequireFields("From", "Body")},
	}
}

// OutgoingMessage is the event accepted by SendMessage
type OutgoingMessage struct {
	To   string `json:"To" validate:"required,e164"`
	Body string `json:"Body" validate:"required,max=1600"`
}

// SendMessage sends the event's Body to To through the sendMessage provider
func SendMessage(ctx context.Context, this *injection.Receiver, event injection.Event) (any, error) {
	msg, err := injection.DecodeEvent[OutgoingMessage](event)
	if err != nil {
		return nil, err
	}

	sent, err := injection.Call[*client.Message](ctx, this.Providers, "sendMessage", msg)
	if err != nil {
		return nil, err
	}
	return response.Created(map[string]any{
		"sid":    sent.SID,
		"status": sent.Status,
	}), nil
}

// SendMessageOptions binds the sendMessage provider to the client handle
func SendMessageOptions() *injection.Options {
	return &injection.Options{
		Providers: map[string]injection.ProviderFunc{
			"sendMessage": injection.Provide(sendMessage),
		},
		Guards: []injection.Guard{
			injection.RequireEnv("FROM_NUMBER"),
			injection.ValidateEvent[OutgoingMessage](),
		},
	}
}

func sendMessage(ctx context.Context, scope injection.Scope, msg OutgoingMessage) (*client.Message, error) {
	api, err := clientAPI(scope.Client)
	if err != nil {
		return nil, err
	}
	return api.CreateMessage(ctx, client.MessageParams{
		To:   msg.To,
		From: scope.Env.Get("FROM_NUMBER"),
		Body: msg.Body,
	})
}

// FlexSecure echoes the identity of a validated Flex token
func FlexSecure(_ context.Context, this *injection.Receiver, _ injection.Event) (any, error) {
	if this.TokenResult == nil {
		return nil, fault.Reject("Unauthorized: token was not validated")
	}
	return response.API(map[string]any{
		"identity":   this.TokenResult.Identity,
		"worker_sid": this.TokenResult.WorkerSID,
		"roles":      this.TokenResult.Roles,
	}, response.APIOptions{}), nil
}

// FlexSecureOptions turns the token gate on
func FlexSecureOptions() *injection.Options {
	return &injection.Options{ValidateToken: true}
}

// MakeCall places a call that says the event's Message
func MakeCall(ctx context.Context, this *injection.ImportReceiver, event injection.Event) (any, error) {
	to, _ := event["To"].(string)
	text, _ := event["Message"].(string)

	api, err := clientAPI(this.Twilio)
	if err != nil {
		return nil, err
	}

	call, err := api.CreateCall(ctx, client.CallParams{
		To:    to,
		From:  this.Env.Get("FROM_NUMBER"),
		Twiml: twiml.NewVoiceResponse().Say(text).String(),
	})
	if err != nil {
		return nil, err
	}
	return response.Accepted(map[string]any{"sid": call.SID, "status": call.Status}), nil
}

// MakeCallOptions requires a destination and a caller id
func MakeCallOptions() *injection.Options {
	return &injection.Options{
		Guards: []injection.Guard{
			injection.RequireFields("To", "Message"),
			injection.RequireEnv("FROM_NUMBER"),
		},
	}
}

// counterRetry bounds how often Counter re-reads the document after losing
// an update race
var counterRetry = &flow.RetryConfig{
	MaxAttempts:   10,
	InitialDelay:  2 * time.Millisecond,
	MaxDelay:      50 * time.Millisecond,
	BackoffFactor: 2,
	JitterEnabled: true,
	ShouldRetry: func(err error) bool {
		return syncstore.IsConflict(err) || syncstore.IsAlreadyExists(err)
	},
}

// Counter increments a Sync document and returns its new value. Concurrent
// invocations never lose an increment.
func Counter(rt runtime.Runtime) injection.Handler {
	return func(ctx context.Context, _ *injection.Receiver, _ injection.Event) (any, error) {
		sync, err := rt.GetSync(runtime.DefaultSyncService)
		if err != nil {
			return nil, err
		}
		docs := sync.Documents()

		doc, err := flow.Do(ctx, counterRetry, func(ctx context.Context) (*syncstore.Document, error) {
			doc, err := docs.Fetch(ctx, CounterDocument)
			if errors.Is(err, syncstore.ErrNotFound) {
				return docs.Create(ctx, CounterDocument, map[string]any{"count": 1})
			}
			if err != nil {
				return nil, err
			}

			count, _ := doc.Data["count"].(float64)
			return docs.UpdateIf(ctx, doc.SID, doc.Revision, map[string]any{"count": count + 1})
		})
		if err != nil {
			return nil, err
		}
		return doc.Data, nil
	}
}

func clientAPI(handle injection.Client) (client.API, error) {
	api, ok := handle.(client.API)
	if !ok {
		return nil, fmt.Errorf("client handle %T cannot send requests", handle)
	}
	return api, nil
}
