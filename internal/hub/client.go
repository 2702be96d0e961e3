package hub

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
	"github.com/soar/joyview/internal/settings"
)

// ActionHandler receives settings edits made in a browser.
type ActionHandler interface {
	HandleAction(settings.Action)
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPump reads messages from the WebSocket and routes settings actions to
// handler.
func (c *Client) ReadPump(handler ActionHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Error parsing client message: %v", err)
			continue
		}

		switch clientMsg.Type {
		case TypeSettingsAction:
			action, err := settings.ParseAction(clientMsg.Action)
			if err != nil {
				log.Printf("Invalid settings action: %v", err)
				c.reply(NewRejectedMessage(err.Error()))
				continue
			}
			handler.HandleAction(action)
		default:
			log.Printf("Unknown client message type %q", clientMsg.Type)
		}
	}
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.sendTo(c, data)
}
