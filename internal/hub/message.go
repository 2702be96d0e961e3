package hub

import (
	"time"

	"github.com/soar/joyview/internal/view"
)

// Message types.
const (
	TypeFull     = "full"
	TypeDelta    = "delta"
	TypeSettings = "settings"
	TypeRejected = "rejected"

	TypeSettingsAction = "settings_action"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string      `json:"type"`               // "full", "delta", "settings", "rejected"
	Seq       uint64      `json:"seq"`                // Sequence number for ordering
	Timestamp int64       `json:"timestamp"`          // Unix timestamp in milliseconds
	View      *view.View  `json:"view,omitempty"`     // Whole view for type "full"
	Changes   *view.Delta `json:"changes,omitempty"`  // Changed elements for type "delta"
	Settings  []any       `json:"settings,omitempty"` // Settings tree roots for type "settings"
	Error     string      `json:"error,omitempty"`    // Reason for type "rejected"
}

// NewFullMessage creates a "full" type message containing the complete view.
func NewFullMessage(seq uint64, v *view.View) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		View:      v,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed elements.
func NewDeltaMessage(seq uint64, changes *view.Delta) *WSMessage {
	return &WSMessage{
		Type:      TypeDelta,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// NewSettingsMessage wraps a settings tree in its wire form.
func NewSettingsMessage(seq uint64, roots []any) *WSMessage {
	return &WSMessage{
		Type:      TypeSettings,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Settings:  roots,
	}
}

func NewRejectedMessage(reason string) *WSMessage {
	return &WSMessage{
		Type:      TypeRejected,
		Timestamp: time.Now().UnixMilli(),
		Error:     reason,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type   string         `json:"type"`
	Action map[string]any `json:"action,omitempty"`
}
