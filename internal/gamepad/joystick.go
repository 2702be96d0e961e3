package gamepad

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/0xcafed00d/joystick"
)

const (
	defaultProbeInterval = time.Second
	defaultMaxJoysticks  = 4
)

// JoystickDriver reads /dev/input/js* devices. The joystick API has no
// hot-plug notification, so Watch probes the device ids periodically.
type JoystickDriver struct {
	maxDevices    int
	probeInterval time.Duration
	open          func(int) (joystick.Joystick, error)

	mu      sync.Mutex
	devices map[int]joystick.Joystick
	lost    []int
}

func NewJoystickDriver(maxDevices int) *JoystickDriver {
	if maxDevices <= 0 {
		maxDevices = defaultMaxJoysticks
	}
	return &JoystickDriver{
		maxDevices:    maxDevices,
		probeInterval: defaultProbeInterval,
		open:          joystick.Open,
		devices:       make(map[int]joystick.Joystick),
	}
}

func (d *JoystickDriver) Watch(ctx context.Context, out chan<- Hotplug) error {
	ticker := time.NewTicker(d.probeInterval)
	defer ticker.Stop()
	defer d.closeAll()

	for {
		for _, hp := range d.probe() {
			send(ctx, out, hp)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (d *JoystickDriver) probe() []Hotplug {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []Hotplug
	for _, id := range d.lost {
		events = append(events, Hotplug{Kind: Disconnected, Device: Device{ID: DeviceID(id)}})
	}
	d.lost = nil

	for id := 0; id < d.maxDevices; id++ {
		if _, ok := d.devices[id]; ok {
			continue
		}
		js, err := d.open(id)
		if err != nil {
			continue
		}
		d.devices[id] = js
		log.Printf("Joystick opened: %s (id=%d) axes=%d buttons=%d", js.Name(), id, js.AxisCount(), js.ButtonCount())

		dev, err := readJoystick(id, js)
		if err != nil {
			dev = Device{ID: DeviceID(id), Name: js.Name()}
		}
		events = append(events, Hotplug{Kind: Connected, Device: dev})
	}
	return events
}

// Sample reads every open joystick. A device that fails to read is closed and
// reported as disconnected on the next probe.
func (d *JoystickDriver) Sample() []Device {
	d.mu.Lock()
	defer d.mu.Unlock()

	devices := make([]Device, 0, len(d.devices))
	for id, js := range d.devices {
		dev, err := readJoystick(id, js)
		if err != nil {
			log.Printf("Joystick %d read failed: %v", id, err)
			js.Close()
			delete(d.devices, id)
			d.lost = append(d.lost, id)
			continue
		}
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

func (d *JoystickDriver) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, js := range d.devices {
		js.Close()
		delete(d.devices, id)
	}
}

func readJoystick(id int, js joystick.Joystick) (Device, error) {
	state, err := js.Read()
	if err != nil {
		return Device{}, err
	}

	dev := Device{
		ID:      DeviceID(id),
		Name:    js.Name(),
		Axes:    make([]float64, 0, len(state.AxisData)),
		Buttons: make([]int, js.ButtonCount()),
	}
	for _, raw := range state.AxisData {
		dev.Axes = append(dev.Axes, NormalizeAxis(clampInt16(raw)))
	}
	for i := range dev.Buttons {
		if i < 32 && state.Buttons&(1<<uint(i)) != 0 {
			dev.Buttons[i] = 1
		}
	}
	return dev, nil
}

func clampInt16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
