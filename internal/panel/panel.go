// Package panel owns a panel's configuration and current input snapshot and
// turns host renders, settings edits and controller events into views.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"slices"
	"sync/atomic"
	"time"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/gamepad"
	"github.com/soar/joyview/internal/joy"
	"github.com/soar/joyview/internal/mapping"
	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/transport"
	"github.com/soar/joyview/internal/view"
)

type Options struct {
	// ReadOnly panels show a recorded session received through the host;
	// live panels show local controllers and publish them.
	ReadOnly bool
	// FrameID is stamped on published messages.
	FrameID string
	Debug   bool
}

// Controller is the panel state machine. Every mutation runs on the goroutine
// executing Run, in the order the events were delivered.
type Controller struct {
	host Host
	opts Options

	cfg   atomic.Pointer[config.Config]
	queue chan func()
	done  chan struct{}

	// Owned by the Run goroutine.
	sources    []settings.Source
	profileErr string
	snapshot   *joy.Snapshot
	seq        uint64
	connected  []gamepad.DeviceID
	advertised string
}

// New creates a controller from previously saved state.
func New(host Host, saved []byte, opts Options) (*Controller, error) {
	cfg, err := config.Merge(saved)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		host:  host,
		opts:  opts,
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	c.cfg.Store(&cfg)
	return c, nil
}

// Config returns a copy of the current configuration. Safe from any goroutine.
func (c *Controller) Config() config.Config {
	return c.cfg.Load().Clone()
}

// Watches declares the render-state fields this panel renders from.
func (c *Controller) Watches() []string {
	return []string{WatchTopics, WatchCurrentFrame}
}

// Run processes queued events until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)

	c.start()
	for {
		select {
		case <-ctx.Done():
			c.stop()
			return
		case fn := <-c.queue:
			fn()
		}
	}
}

// post queues fn for the Run goroutine. Events after Run has returned are
// dropped.
func (c *Controller) post(fn func()) {
	select {
	case c.queue <- fn:
	case <-c.done:
	}
}

func (c *Controller) start() {
	cfg := c.cfg.Load()
	c.retarget("", cfg.Topic)
	c.save(*cfg)
	c.publishSettings()
	c.publishView()
}

func (c *Controller) stop() {
	if c.advertised == "" {
		return
	}
	if adv, ok := c.host.(Advertiser); ok {
		if err := adv.Unadvertise(c.advertised); err != nil {
			log.Printf("Unadvertise %s failed: %v", c.advertised, err)
		}
	}
	c.advertised = ""
}

// Render incorporates new host data and calls done once the view reflects it.
func (c *Controller) Render(state RenderState, done func()) {
	c.post(func() {
		c.render(state)
		if done != nil {
			done()
		}
	})
}

func (c *Controller) render(state RenderState) {
	if state.Topics != nil {
		sources := make([]settings.Source, 0, len(state.Topics))
		for _, t := range state.Topics {
			sources = append(sources, settings.Source{Name: t.Name, Schema: t.Schema})
		}
		if !slices.Equal(sources, c.sources) {
			c.sources = sources
			c.publishSettings()
		}
	}

	if !c.opts.ReadOnly {
		return
	}

	topic := c.cfg.Load().Topic
	if state.Topics != nil && c.snapshot != nil && !c.listed(topic) {
		// The source went away.
		c.snapshot = nil
		c.publishView()
	}

	var last *transport.MessageEvent
	for i := range state.CurrentFrame {
		ev := &state.CurrentFrame[i]
		if ev.Topic == topic && joy.IsCompatible(ev.Schema) {
			last = ev
		}
	}
	if last == nil {
		return
	}

	var msg joy.Joy
	if err := json.Unmarshal(last.Message, &msg); err != nil {
		log.Printf("Error decoding %s message: %v", last.Topic, err)
		return
	}
	c.seq++
	c.snapshot = joy.FromMessage(last.Topic, c.seq, msg)
	c.publishView()
}

func (c *Controller) listed(topic string) bool {
	return slices.ContainsFunc(c.sources, func(s settings.Source) bool {
		return s.Name == topic && joy.IsCompatible(s.Schema)
	})
}

// HandleAction applies one settings edit.
func (c *Controller) HandleAction(a settings.Action) {
	c.post(func() { c.apply(a) })
}

func (c *Controller) apply(a settings.Action) {
	next, err := settings.Apply(c.Config(), a)
	if err != nil {
		if errors.Is(err, mapping.ErrUnknownProfile) {
			c.profileErr = err.Error()
			c.publishSettings()
		}
		log.Printf("Settings action %s %v rejected: %v", a.Kind, a.Path, err)
		return
	}
	c.profileErr = ""
	c.setConfig(next)
}

func (c *Controller) setConfig(next config.Config) {
	prev := c.cfg.Swap(&next)

	if prev.Topic != next.Topic {
		if c.opts.ReadOnly {
			c.snapshot = nil
		}
		c.retarget(prev.Topic, next.Topic)
	}
	c.save(next)
	c.publishSettings()
	c.publishView()
}

func (c *Controller) save(cfg config.Config) {
	if err := c.host.SaveState(cfg.Persisted()); err != nil {
		log.Printf("Error saving panel state: %v", err)
	}
}

// retarget subscribes to topic in read-only mode, or moves the advertisement
// to topic in live mode.
func (c *Controller) retarget(old, topic string) {
	if c.opts.ReadOnly {
		if sub, ok := c.host.(Subscriber); ok {
			if err := sub.Subscribe([]string{topic}); err != nil {
				log.Printf("Subscribe %s failed: %v", topic, err)
			}
		}
		return
	}

	adv, ok := c.host.(Advertiser)
	if !ok {
		return
	}
	if c.advertised != "" {
		if err := adv.Unadvertise(c.advertised); err != nil {
			log.Printf("Unadvertise %s failed: %v", c.advertised, err)
		}
		c.advertised = ""
	}
	if topic == "" {
		return
	}
	if err := adv.Advertise(topic, joy.Schema); err != nil {
		log.Printf("Advertise %s failed: %v", topic, err)
		return
	}
	c.advertised = topic
}

func (c *Controller) publishSettings() {
	c.host.UpdateSettings(settings.Build(*c.cfg.Load(), settings.BuildOptions{
		ReadOnly:     c.opts.ReadOnly,
		Sources:      c.sources,
		ProfileError: c.profileErr,
	}))
}

func (c *Controller) publishView() {
	c.host.UpdateView(view.Render(c.cfg.Load().Mapping, c.snapshot))
}

// OnConnect, OnUpdate and OnDisconnect make the controller a gamepad.Handler.
// The first connected device is shown; when it goes away the next one still
// connected takes over.

func (c *Controller) OnConnect(dev gamepad.Device) {
	c.post(func() {
		if c.opts.ReadOnly || slices.Contains(c.connected, dev.ID) {
			return
		}
		c.connected = append(c.connected, dev.ID)
		if c.connected[0] == dev.ID {
			log.Printf("Active gamepad set: %s (ID=%d)", dev.Name, dev.ID)
		}
	})
}

func (c *Controller) OnUpdate(dev gamepad.Device) {
	c.post(func() {
		if c.opts.ReadOnly || len(c.connected) == 0 || c.connected[0] != dev.ID {
			return
		}
		c.seq++
		c.snapshot = &joy.Snapshot{
			Source:  dev.Name,
			Seq:     c.seq,
			Axes:    slices.Clone(dev.Axes),
			Buttons: slices.Clone(dev.Buttons),
		}
		c.publishView()
		c.publishSnapshot()
	})
}

func (c *Controller) OnDisconnect(dev gamepad.Device) {
	c.post(func() {
		i := slices.Index(c.connected, dev.ID)
		if i < 0 {
			return
		}
		c.connected = slices.Delete(c.connected, i, i+1)
		if i != 0 {
			return
		}
		// The active device left.
		c.snapshot = nil
		if len(c.connected) > 0 {
			log.Printf("Active gamepad switched to ID=%d", c.connected[0])
		}
		c.publishView()
	})
}

func (c *Controller) publishSnapshot() {
	if c.advertised == "" {
		return
	}
	pub, ok := c.host.(Publisher)
	if !ok {
		return
	}
	msg := c.snapshot.Message(c.opts.FrameID, time.Now())
	if err := pub.Publish(c.advertised, msg); err != nil && c.opts.Debug {
		log.Printf("[DEBUG] Publish %s failed: %v", c.advertised, err)
	}
}
