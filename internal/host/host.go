// Package host runs a panel: it persists the panel's state, feeds it bus
// topics and messages one frame at a time, and forwards what the panel
// publishes to the browser hub.
package host

import (
	"context"
	"slices"
	"time"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/panel"
	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/transport"
	"github.com/soar/joyview/internal/view"
)

// DefaultFrameInterval paces renders at roughly display refresh rate.
const DefaultFrameInterval = 16 * time.Millisecond

// maxFrameMessages bounds the messages held for a render that is still
// pending; the oldest are dropped first.
const maxFrameMessages = 256

// Bus is a topic bus connection, live or replayed.
type Bus interface {
	Events() <-chan transport.Event
	Subscribe(topics []string) error
	Advertise(topic, schema string) error
	Unadvertise(topic string) error
	Publish(topic string, msg any) error
}

// Store persists panel state.
type Store interface {
	Save(cfg config.Config) error
}

// Sink receives what the panel publishes.
type Sink interface {
	PublishSettings(t settings.Tree)
	PublishView(v view.View)
}

// Host implements panel.Host and its optional capabilities on top of a bus.
// A nil bus makes every bus operation fail with transport.ErrNotConnected.
type Host struct {
	store    Store
	sink     Sink
	bus      Bus
	interval time.Duration
}

func New(store Store, sink Sink, bus Bus, interval time.Duration) *Host {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Host{store: store, sink: sink, bus: bus, interval: interval}
}

func (h *Host) SaveState(cfg config.Config) error {
	return h.store.Save(cfg)
}

func (h *Host) UpdateSettings(t settings.Tree) {
	h.sink.PublishSettings(t)
}

func (h *Host) UpdateView(v view.View) {
	h.sink.PublishView(v)
}

func (h *Host) Subscribe(topics []string) error {
	if h.bus == nil {
		return transport.ErrNotConnected
	}
	return h.bus.Subscribe(topics)
}

func (h *Host) Advertise(topic, schema string) error {
	if h.bus == nil {
		return transport.ErrNotConnected
	}
	return h.bus.Advertise(topic, schema)
}

func (h *Host) Unadvertise(topic string) error {
	if h.bus == nil {
		return transport.ErrNotConnected
	}
	return h.bus.Unadvertise(topic)
}

func (h *Host) Publish(topic string, msg any) error {
	if h.bus == nil {
		return transport.ErrNotConnected
	}
	return h.bus.Publish(topic, msg)
}

// Drive feeds bus events to r until ctx is done. Events are collected into a
// RenderState holding only the fields r watches; Render is called at most once
// per frame, only when something changed, and never before the previous
// render's done was called.
func (h *Host) Drive(ctx context.Context, r panel.Renderer) {
	if h.bus == nil {
		<-ctx.Done()
		return
	}

	watches := r.Watches()
	watchTopics := slices.Contains(watches, panel.WatchTopics)
	watchFrame := slices.Contains(watches, panel.WatchCurrentFrame)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var (
		topics        []transport.Topic
		topicsChanged bool
		frame         []transport.MessageEvent
		busy          bool
	)
	rendered := make(chan struct{}, 1)

	events := h.bus.Events()
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch {
			case ev.Message != nil:
				if watchFrame {
					frame = append(frame, *ev.Message)
					if len(frame) > maxFrameMessages {
						frame = slices.Delete(frame, 0, len(frame)-maxFrameMessages)
					}
				}
			case watchTopics && !slices.Equal(ev.Topics, topics):
				topics = slices.Clone(ev.Topics)
				if topics == nil {
					topics = []transport.Topic{}
				}
				topicsChanged = true
			}

		case <-rendered:
			busy = false

		case <-ticker.C:
			if busy || (!topicsChanged && len(frame) == 0) {
				continue
			}
			state := panel.RenderState{CurrentFrame: frame}
			if topicsChanged {
				state.Topics = topics
			}
			frame, topicsChanged = nil, false
			busy = true
			r.Render(state, func() {
				select {
				case rendered <- struct{}{}:
				default:
				}
			})
		}
	}
}

// Compile-time checks.
var (
	_ panel.Host       = (*Host)(nil)
	_ panel.Subscriber = (*Host)(nil)
	_ panel.Advertiser = (*Host)(nil)
	_ panel.Publisher  = (*Host)(nil)
)
