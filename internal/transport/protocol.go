// Package transport moves Joy messages between panels over a small JSON topic
// bus, and replays recorded sessions through the same interface.
package transport

import (
	"encoding/json"
	"errors"
	"time"
)

// Bus operations. Clients send subscribe, advertise, unadvertise and publish;
// the server sends topics and message.
const (
	OpSubscribe   = "subscribe"
	OpAdvertise   = "advertise"
	OpUnadvertise = "unadvertise"
	OpPublish     = "publish"
	OpTopics      = "topics"
	OpMessage     = "message"
)

var (
	ErrNotConnected = errors.New("bus not connected")
	ErrReadOnly     = errors.New("recorded session is read-only")
)

// Topic is one advertised stream.
type Topic struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// MessageEvent is one message received on a topic.
type MessageEvent struct {
	Topic       string
	Schema      string
	Message     json.RawMessage
	ReceiveTime time.Time
}

// Event is delivered by a bus: either a new topic list or one message.
type Event struct {
	Topics  []Topic
	Message *MessageEvent
}

// envelope is the wire form of every bus frame.
type envelope struct {
	Op      string          `json:"op"`
	Topics  []string        `json:"topics,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Schema  string          `json:"schema,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Listing []Topic         `json:"listing,omitempty"`
}
