// Package gamepad turns polled controller devices into connect, update and
// disconnect events.
package gamepad

import (
	"context"
	"math"
)

type DeviceID uint32

// Device is the state of one controller at the time it was sampled.
type Device struct {
	ID      DeviceID
	Name    string
	Axes    []float64 // -1.0..1.0
	Buttons []int     // 0 or 1
}

type HotplugKind int

const (
	Connected HotplugKind = iota
	Disconnected
)

func (k HotplugKind) String() string {
	if k == Connected {
		return "connected"
	}
	return "disconnected"
}

// Hotplug reports a device appearing or going away.
type Hotplug struct {
	Kind   HotplugKind
	Device Device
}

// Driver is a source of controller devices.
type Driver interface {
	// Watch reports hot-plug events on out until ctx is done. Sends must not
	// block past cancellation.
	Watch(ctx context.Context, out chan<- Hotplug) error
	// Sample returns the current state of every connected device.
	Sample() []Device
}

// Handler receives listener events. All calls come from the goroutine running
// Listener.Run.
type Handler interface {
	OnConnect(Device)
	OnDisconnect(Device)
	OnUpdate(Device)
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
