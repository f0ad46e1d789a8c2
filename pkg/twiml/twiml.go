// Package twiml builds TwiML documents for voice and messaging functions.
package twiml

import (
	"encoding/xml"

	"twilio-functions-utils/pkg/response"
)

// Response is a TwiML document. Verbs render in the order they were added.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// NewVoiceResponse starts a voice document
func NewVoiceResponse() *Response {
	return &Response{}
}

// NewMessagingResponse starts a messaging document
func NewMessagingResponse() *Response {
	return &Response{}
}

// Say reads text aloud to the caller
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Loop     int      `xml:"loop,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Play streams an audio file from URL
type Play struct {
	XMLName xml.Name `xml:"Play"`
	Loop    int      `xml:"loop,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Pause waits silently for Length seconds
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

// Dial connects the call to Number
type Dial struct {
	XMLName  xml.Name `xml:"Dial"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	Record   string   `xml:"record,attr,omitempty"`
	Number   string   `xml:",chardata"`
}

// Redirect hands control to the TwiML at URL
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Hangup ends the call
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Reject declines an incoming call without answering it
type Reject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

// Message sends a reply SMS
type Message struct {
	XMLName xml.Name `xml:"Message"`
	To      string   `xml:"to,attr,omitempty"`
	From    string   `xml:"from,attr,omitempty"`
	Body    string   `xml:",chardata"`
}

// Add appends any verb value
func (r *Response) Add(verb any) *Response {
	r.Verbs = append(r.Verbs, verb)
	return r
}

// Say appends a Say verb
func (r *Response) Say(text string) *Response {
	return r.Add(Say{Text: text})
}

// Play appends a Play verb for url
func (r *Response) Play(url string) *Response {
	return r.Add(Play{URL: url})
}

// Pause appends a Pause of seconds
func (r *Response) Pause(seconds int) *Response {
	return r.Add(Pause{Length: seconds})
}

// Dial appends a Dial to number
func (r *Response) Dial(number string) *Response {
	return r.Add(Dial{Number: number})
}

// Redirect appends a Redirect to url
func (r *Response) Redirect(url string) *Response {
	return r.Add(Redirect{URL: url})
}

// Hangup appends a Hangup verb
func (r *Response) Hangup() *Response {
	return r.Add(Hangup{})
}

// Reject appends a Reject with an optional reason ("busy" or "rejected")
func (r *Response) Reject(reason string) *Response {
	return r.Add(Reject{Reason: reason})
}

// Message appends a reply message with body
func (r *Response) Message(body string) *Response {
	return r.Add(Message{Body: body})
}

// String renders the document with its XML prolog. Verbs that cannot be
// encoded render the empty document.
func (r *Response) String() string {
	data, err := xml.Marshal(r)
	if err != nil {
		return response.EmptyTwiML
	}
	return response.XMLProlog + string(data)
}

// Response wraps the document in a TwiML response
func (r *Response) Response() *response.Response {
	return response.NewTwiML(r)
}
