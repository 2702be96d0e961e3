package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/lxzan/gws"
)

const reconnectDelay = 2 * time.Second

// Client is a bus connection. Subscriptions and advertisements are remembered
// and sent again after a reconnect.
type Client struct {
	gws.BuiltinEventHandler

	addr   string
	events chan Event

	mu         sync.Mutex
	conn       *gws.Conn
	subscribed []string
	advertised map[string]string
}

func NewClient(addr string) *Client {
	return &Client{
		addr:       addr,
		events:     make(chan Event, 256),
		advertised: make(map[string]string),
	}
}

func (c *Client) Events() <-chan Event {
	return c.events
}

// Run keeps the connection open until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.mu.Lock()
		if c.conn != nil {
			c.conn.WriteClose(1000, nil)
		}
		c.mu.Unlock()
	}()

	for {
		conn, _, err := gws.NewClient(c, &gws.ClientOption{Addr: c.addr})
		if err != nil {
			log.Printf("Bus connect to %s failed: %v", c.addr, err)
		} else {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			if ctx.Err() != nil {
				conn.WriteClose(1000, nil)
			}

			conn.ReadLoop()

			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Client) OnOpen(socket *gws.Conn) {
	log.Printf("Bus connected: %s", c.addr)

	c.mu.Lock()
	subscribed := slices.Clone(c.subscribed)
	advertised := maps.Clone(c.advertised)
	c.mu.Unlock()

	if len(subscribed) > 0 {
		writeEnvelope(socket, envelope{Op: OpSubscribe, Topics: subscribed})
	}
	for topic, schema := range advertised {
		writeEnvelope(socket, envelope{Op: OpAdvertise, Topic: topic, Schema: schema})
	}
}

func (c *Client) OnClose(socket *gws.Conn, err error) {
	log.Printf("Bus disconnected: %v", err)
}

func (c *Client) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var env envelope
	if err := json.Unmarshal(message.Bytes(), &env); err != nil {
		log.Printf("Error parsing bus message: %v", err)
		return
	}

	switch env.Op {
	case OpTopics:
		c.events <- Event{Topics: env.Listing}
	case OpMessage:
		ev := Event{Message: &MessageEvent{
			Topic:       env.Topic,
			Schema:      env.Schema,
			Message:     env.Message,
			ReceiveTime: time.Now(),
		}}
		select {
		case c.events <- ev:
		default:
			// Consumer is behind; later messages supersede this one.
		}
	}
}

func (c *Client) Subscribe(topics []string) error {
	c.mu.Lock()
	c.subscribed = slices.Clone(topics)
	c.mu.Unlock()
	return c.write(envelope{Op: OpSubscribe, Topics: topics})
}

func (c *Client) Advertise(topic, schema string) error {
	c.mu.Lock()
	c.advertised[topic] = schema
	c.mu.Unlock()
	return c.write(envelope{Op: OpAdvertise, Topic: topic, Schema: schema})
}

func (c *Client) Unadvertise(topic string) error {
	c.mu.Lock()
	delete(c.advertised, topic)
	c.mu.Unlock()
	return c.write(envelope{Op: OpUnadvertise, Topic: topic})
}

func (c *Client) Publish(topic string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.write(envelope{Op: OpPublish, Topic: topic, Message: data})
}

func (c *Client) write(env envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return writeEnvelope(conn, env)
}

func writeEnvelope(conn *gws.Conn, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(gws.OpcodeText, data)
}
