package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/view"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster turns the panel's views and settings trees into hub messages.
// Views are sent as deltas against the previous view when their shape is
// unchanged, with a full view every deltaCountSync deltas and every
// fullSyncInterval.
type Broadcaster struct {
	hub   *Hub
	views chan view.View
	trees chan settings.Tree
	done  chan struct{}

	mu       sync.Mutex
	last     view.View
	hasView  bool
	settings []any
	seq      uint64
}

func NewBroadcaster(h *Hub) *Broadcaster {
	return &Broadcaster{
		hub:   h,
		views: make(chan view.View, 16),
		trees: make(chan settings.Tree, 4),
		done:  make(chan struct{}),
	}
}

// PublishView queues a view for broadcast. It drops the view once Run has
// returned.
func (b *Broadcaster) PublishView(v view.View) {
	select {
	case b.views <- v:
	case <-b.done:
	}
}

// PublishSettings queues a settings tree for broadcast.
func (b *Broadcaster) PublishSettings(t settings.Tree) {
	select {
	case b.trees <- t:
	case <-b.done:
	}
}

// Run starts the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int

	for {
		select {
		case <-ctx.Done():
			return

		case v := <-b.views:
			b.mu.Lock()
			old, had := b.last, b.hasView
			b.last, b.hasView = v, true
			b.mu.Unlock()

			delta, ok := view.Diff(old, v)
			if had && ok && delta.IsEmpty() {
				continue
			}

			seq := b.next()
			deltaCount++

			// Send full sync periodically, and whenever the diagram changes shape
			if !had || !ok || deltaCount >= deltaCountSync {
				b.sendFull(seq, v)
				deltaCount = 0
			} else {
				b.sendDelta(seq, delta)
			}

		case t := <-b.trees:
			roots := t.Wire()
			b.mu.Lock()
			b.settings = roots
			b.mu.Unlock()
			b.broadcast(NewSettingsMessage(b.next(), roots))

		case <-ticker.C:
			b.mu.Lock()
			v, had := b.last, b.hasView
			b.mu.Unlock()
			if had && !v.Placeholder {
				b.sendFull(b.next(), v)
			}
		}
	}
}

func (b *Broadcaster) next() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return b.seq
}

// SendInitialState queues the current settings and full view on a client
// that has not been registered yet.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	roots, v, had := b.settings, b.last, b.hasView
	b.mu.Unlock()

	if roots != nil {
		enqueue(c, NewSettingsMessage(b.next(), roots))
	}
	if had {
		enqueue(c, NewFullMessage(b.next(), &v))
	}
}

func enqueue(c *Client, msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling initial state: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (b *Broadcaster) sendFull(seq uint64, v view.View) {
	b.broadcast(NewFullMessage(seq, &v))
}

func (b *Broadcaster) sendDelta(seq uint64, delta *view.Delta) {
	b.broadcast(NewDeltaMessage(seq, delta))
}

func (b *Broadcaster) broadcast(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	b.hub.Broadcast(data)
}
