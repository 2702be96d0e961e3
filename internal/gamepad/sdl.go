package gamepad

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"
)

const (
	sdlPumpInterval       = 16 * time.Millisecond
	hatUp           uint8 = 0x01
	hatRight        uint8 = 0x02
	hatDown         uint8 = 0x04
	hatLeft         uint8 = 0x08
)

type joystickInfo struct {
	joystick *sdl.Joystick
	name     string
	id       sdl.JoystickID
}

// SDLDriver reads joysticks through the SDL3 Joystick API. Every SDL call
// happens on the locked OS thread running Watch; Sample hands its request to
// that thread.
type SDLDriver struct {
	joysticks map[sdl.JoystickID]*joystickInfo
	samples   chan chan []Device
	stopped   chan struct{}
	debug     bool
}

func NewSDLDriver(debug bool) *SDLDriver {
	return &SDLDriver{
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		samples:   make(chan chan []Device),
		stopped:   make(chan struct{}),
		debug:     debug,
	}
}

// Watch initializes SDL and pumps its events until ctx is done.
func (d *SDLDriver) Watch(ctx context.Context, out chan<- Hotplug) error {
	defer close(d.stopped)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	log.Println("SDL3 Joystick subsystem initialized")

	// Check for already-connected joysticks
	for _, id := range sdl.GetJoysticks() {
		d.openJoystick(ctx, id, out)
	}

	ticker := time.NewTicker(sdlPumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.closeAll()
			return nil
		case reply := <-d.samples:
			reply <- d.sample()
		case <-ticker.C:
			d.processEvents(ctx, out)
		}
	}
}

// Sample returns the state of every open joystick, or nil once Watch has
// returned.
func (d *SDLDriver) Sample() []Device {
	reply := make(chan []Device, 1)
	select {
	case d.samples <- reply:
		return <-reply
	case <-d.stopped:
		return nil
	}
}

func (d *SDLDriver) processEvents(ctx context.Context, out chan<- Hotplug) {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			d.openJoystick(ctx, event.JDevice().Which, out)

		case sdl.EventJoystickRemoved:
			d.removeJoystick(ctx, event.JDevice().Which, out)

		case sdl.EventJoystickButtonDown:
			if d.debug {
				be := event.JButton()
				log.Printf("[DEBUG] Button DOWN: index=%d joystick=%d", be.Button, be.Which)
			}

		case sdl.EventJoystickAxisMotion:
			if d.debug {
				ae := event.JAxis()
				if ae.Value > 8000 || ae.Value < -8000 {
					log.Printf("[DEBUG] Axis: index=%d value=%d joystick=%d", ae.Axis, ae.Value, ae.Which)
				}
			}
		}
	}
}

func (d *SDLDriver) openJoystick(ctx context.Context, instanceID sdl.JoystickID, out chan<- Hotplug) {
	if _, exists := d.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		log.Printf("Failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	info := &joystickInfo{
		joystick: js,
		name:     sdl.GetJoystickName(js),
		id:       sdl.GetJoystickID(js),
	}
	d.joysticks[info.id] = info

	log.Printf("Joystick opened: %s (VID=%04X PID=%04X) axes=%d buttons=%d hats=%d",
		info.name, sdl.GetJoystickVendor(js), sdl.GetJoystickProduct(js),
		sdl.GetNumJoystickAxes(js), sdl.GetNumJoystickButtons(js), sdl.GetNumJoystickHats(js))

	send(ctx, out, Hotplug{Kind: Connected, Device: d.read(info)})
}

func (d *SDLDriver) removeJoystick(ctx context.Context, instanceID sdl.JoystickID, out chan<- Hotplug) {
	info, exists := d.joysticks[instanceID]
	if !exists {
		return
	}

	sdl.CloseJoystick(info.joystick)
	delete(d.joysticks, instanceID)

	send(ctx, out, Hotplug{Kind: Disconnected, Device: Device{ID: DeviceID(instanceID), Name: info.name}})
}

func (d *SDLDriver) closeAll() {
	for id, info := range d.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(d.joysticks, id)
	}
}

func (d *SDLDriver) sample() []Device {
	devices := make([]Device, 0, len(d.joysticks))
	for _, info := range d.joysticks {
		if !sdl.JoystickConnected(info.joystick) {
			continue
		}
		devices = append(devices, d.read(info))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// read samples one joystick. Hats follow the plain axes as x/y pairs with
// values -1, 0 or 1, the way the Linux joystick API reports them.
func (d *SDLDriver) read(info *joystickInfo) Device {
	js := info.joystick
	numAxes := sdl.GetNumJoystickAxes(js)
	numButtons := sdl.GetNumJoystickButtons(js)
	numHats := sdl.GetNumJoystickHats(js)

	dev := Device{
		ID:      DeviceID(info.id),
		Name:    info.name,
		Axes:    make([]float64, 0, numAxes+2*numHats),
		Buttons: make([]int, 0, numButtons),
	}
	for i := int32(0); i < numAxes; i++ {
		dev.Axes = append(dev.Axes, NormalizeAxis(sdl.GetJoystickAxis(js, i)))
	}
	for i := int32(0); i < numHats; i++ {
		hat := sdl.GetJoystickHat(js, i)
		x := float64(boolToInt(hat&hatRight != 0) - boolToInt(hat&hatLeft != 0))
		y := float64(boolToInt(hat&hatDown != 0) - boolToInt(hat&hatUp != 0))
		dev.Axes = append(dev.Axes, x, y)
	}
	for i := int32(0); i < numButtons; i++ {
		dev.Buttons = append(dev.Buttons, boolToInt(sdl.GetJoystickButton(js, i)))
	}
	return dev
}

func send(ctx context.Context, out chan<- Hotplug, hp Hotplug) {
	select {
	case out <- hp:
	case <-ctx.Done():
	}
}
