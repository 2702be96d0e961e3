package gamepad

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// frame is a pending poll cycle.
type frame interface {
	C() <-chan time.Time
	Stop()
}

type tickerFrame struct {
	t *time.Ticker
}

func (f tickerFrame) C() <-chan time.Time { return f.t.C }
func (f tickerFrame) Stop()               { f.t.Stop() }

func newTickerFrame(d time.Duration) frame {
	return tickerFrame{t: time.NewTicker(d)}
}

// Listener polls a Driver at frame cadence while at least one device is
// connected and forwards the results to a Handler.
type Listener struct {
	driver   Driver
	handler  Handler
	interval time.Duration
	newFrame func(time.Duration) frame

	// frame is nil when no poll cycle is pending.
	frame   frame
	devices map[DeviceID]Device
}

func NewListener(driver Driver, handler Handler, interval time.Duration) *Listener {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Listener{
		driver:   driver,
		handler:  handler,
		interval: interval,
		newFrame: newTickerFrame,
		devices:  make(map[DeviceID]Device),
	}
}

// Run delivers events until ctx is done or the driver fails. Any pending poll
// cycle is cancelled before Run returns.
func (l *Listener) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer l.release()

	hotplug := make(chan Hotplug, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- l.driver.Watch(ctx, hotplug)
	}()

	for {
		var tick <-chan time.Time
		if l.frame != nil {
			tick = l.frame.C()
		}

		select {
		case <-ctx.Done():
			return nil

		case err := <-watchErr:
			if err != nil {
				return fmt.Errorf("watch devices: %w", err)
			}
			// The driver has no more hot-plug events; keep polling what we have.
			watchErr = nil

		case hp := <-hotplug:
			l.dispatch(hp)

		case <-tick:
			l.poll()
		}
	}
}

func (l *Listener) dispatch(hp Hotplug) {
	id := hp.Device.ID
	switch hp.Kind {
	case Connected:
		if _, ok := l.devices[id]; ok {
			return
		}
		l.devices[id] = hp.Device
		log.Printf("Gamepad connected: %s (ID=%d)", hp.Device.Name, id)
		l.handler.OnConnect(hp.Device)
		l.acquire()

	case Disconnected:
		dev, ok := l.devices[id]
		if !ok {
			return
		}
		delete(l.devices, id)
		log.Printf("Gamepad disconnected: %s (ID=%d)", dev.Name, id)
		l.handler.OnDisconnect(dev)
		if len(l.devices) == 0 {
			l.release()
		}
	}
}

func (l *Listener) poll() {
	updated := 0
	for _, dev := range l.driver.Sample() {
		known, ok := l.devices[dev.ID]
		if !ok {
			continue
		}
		if dev.Name == "" {
			dev.Name = known.Name
		}
		l.devices[dev.ID] = dev
		l.handler.OnUpdate(dev)
		updated++
	}

	// Stop polling until the next connect.
	if updated == 0 {
		l.release()
	}
}

func (l *Listener) acquire() {
	if l.frame == nil {
		l.frame = l.newFrame(l.interval)
	}
}

func (l *Listener) release() {
	if l.frame != nil {
		l.frame.Stop()
		l.frame = nil
	}
}
