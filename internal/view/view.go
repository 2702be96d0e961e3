// Package view binds a mapping and the latest controller snapshot to the
// elements of a themed diagram.
package view

import (
	"math"

	"github.com/soar/joyview/internal/joy"
	"github.com/soar/joyview/internal/mapping"
)

// Center is the position of a stick at rest, in percent.
const Center = 50.0

// Button is the state of the elements tagged ojd-button=Name.
type Button struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Directional is the state of the elements tagged ojd-directional=Index.
// Left and Top position the stick marker in percent of its area.
type Directional struct {
	Index  int     `json:"index"`
	Active bool    `json:"active"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// View is everything the diagram needs for one frame. With Placeholder set
// the diagram is replaced by the no-controller graphic.
type View struct {
	Placeholder  bool          `json:"placeholder"`
	Source       string        `json:"source,omitempty"`
	Seq          uint64        `json:"seq,omitempty"`
	Buttons      []Button      `json:"buttons"`
	Directionals []Directional `json:"directionals"`
}

// Render computes the view of s under m. A nil snapshot yields the
// placeholder.
//
// Every button entry is evaluated on its own, so entries sharing an index
// toggle together. When entries share a name the first one decides the state
// of that name's elements.
func Render(m mapping.GamepadMapping, s *joy.Snapshot) View {
	if s == nil {
		return View{Placeholder: true, Buttons: []Button{}, Directionals: []Directional{}}
	}

	v := View{
		Source:       s.Source,
		Seq:          s.Seq,
		Buttons:      make([]Button, 0, len(m.Buttons)),
		Directionals: make([]Directional, 0, len(m.Directionals)),
	}

	seen := make(map[string]bool, len(m.Buttons))
	for _, b := range m.Buttons {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true

		raw, ok := s.Button(b.Index)
		v.Buttons = append(v.Buttons, Button{Name: b.Name, Active: ok && raw > 0})
	}

	for i, d := range m.Directionals {
		v.Directionals = append(v.Directionals, renderDirectional(i, d, s))
	}
	return v
}

func renderDirectional(i int, d mapping.DirectionalMapping, s *joy.Snapshot) Directional {
	out := Directional{Index: i, Left: Center, Top: Center}

	x, okX := s.Axis(d.X)
	y, okY := s.Axis(d.Y)
	if !okX || !okY {
		return out
	}

	// Inside the deadzone the stick is drawn at rest.
	out.Active = math.Hypot(x, y) >= d.Deadzone
	if !out.Active {
		x, y = 0, 0
	}
	out.Left = Percent(x)
	out.Top = Percent(y)
	return out
}

// Percent maps an axis value in [-1,1] to a position in [0,100].
func Percent(v float64) float64 {
	return (v + 1) * 50
}
