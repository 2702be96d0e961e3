package mapping

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
)

// Custom is the profile name used once a mapping has been edited by hand.
const Custom = "custom"

// DefaultProfile is the profile loaded for a fresh panel.
const DefaultProfile = "Sony PlayStation 3"

// ErrUnknownProfile is returned when a profile name has no definition.
var ErrUnknownProfile = errors.New("unknown mapping profile")

//go:embed profiles/*.json
var profileFiles embed.FS

// Profile names a built-in mapping stored in Open Joystick Display format.
type Profile struct {
	Name string
	file string
}

var profiles = []Profile{
	{Name: DefaultProfile, file: "profiles/sony-playstation-3.json"},
}

// Profiles returns the built-in profiles in display order.
func Profiles() []Profile {
	return append([]Profile(nil), profiles...)
}

// ojdMapping is the on-disk layout of an Open Joystick Display mapping.
type ojdMapping struct {
	Name   string `json:"name"`
	Button []struct {
		Button string `json:"button"`
		Index  int    `json:"index"`
	} `json:"button"`
	Directional []struct {
		Axes     []int   `json:"axes"`
		Deadzone float64 `json:"deadzone"`
	} `json:"directional"`
}

// LoadProfile returns a fresh copy of the canonical mapping for name.
func LoadProfile(name string) (GamepadMapping, error) {
	for _, p := range profiles {
		if p.Name == name {
			return p.load()
		}
	}
	return GamepadMapping{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

func (p Profile) load() (GamepadMapping, error) {
	data, err := profileFiles.ReadFile(p.file)
	if err != nil {
		return GamepadMapping{}, fmt.Errorf("read profile %q: %w", p.Name, err)
	}

	var raw ojdMapping
	if err := json.Unmarshal(data, &raw); err != nil {
		return GamepadMapping{}, fmt.Errorf("parse profile %q: %w", p.Name, err)
	}

	m := Empty()
	for _, b := range raw.Button {
		m.Buttons = append(m.Buttons, ButtonMapping{Name: b.Button, Index: b.Index})
	}
	for _, d := range raw.Directional {
		// Missing axes fall back to the first stick's pair.
		x, y := 0, 1
		if len(d.Axes) > 0 {
			x = d.Axes[0]
		}
		if len(d.Axes) > 1 {
			y = d.Axes[1]
		}
		m.Directionals = append(m.Directionals, DirectionalMapping{X: x, Y: y, Deadzone: d.Deadzone})
	}
	return m, nil
}
