// Package mapping describes how raw controller indices correspond to the
// named buttons and sticks of a gamepad diagram.
package mapping

// ButtonMapping associates one raw button index with a named button.
type ButtonMapping struct {
	Name  string `json:"name"`
	Index int    `json:"index"`

	// ShowInEditor marks entries created during the current editing session.
	ShowInEditor bool `json:"-"`
}

// DirectionalMapping associates two raw axis indices with one stick.
type DirectionalMapping struct {
	X        int     `json:"x"` // x-axis index
	Y        int     `json:"y"` // y-axis index
	Deadzone float64 `json:"deadzone"`

	ShowInEditor bool `json:"-"`
}

// GamepadMapping holds the complete mapping shown on a diagram. Slice order is
// display order.
type GamepadMapping struct {
	Buttons      []ButtonMapping      `json:"buttons"`
	Directionals []DirectionalMapping `json:"directionals"`
}

// Empty returns a mapping with no entries. Both lists are non-nil so the
// persisted form always carries arrays.
func Empty() GamepadMapping {
	return GamepadMapping{
		Buttons:      []ButtonMapping{},
		Directionals: []DirectionalMapping{},
	}
}

// Clone returns a deep copy that shares no backing arrays with m.
func (m GamepadMapping) Clone() GamepadMapping {
	out := GamepadMapping{
		Buttons:      make([]ButtonMapping, len(m.Buttons)),
		Directionals: make([]DirectionalMapping, len(m.Directionals)),
	}
	copy(out.Buttons, m.Buttons)
	copy(out.Directionals, m.Directionals)
	return out
}

// Stripped returns a copy with every ShowInEditor flag cleared.
func (m GamepadMapping) Stripped() GamepadMapping {
	out := m.Clone()
	for i := range out.Buttons {
		out.Buttons[i].ShowInEditor = false
	}
	for i := range out.Directionals {
		out.Directionals[i].ShowInEditor = false
	}
	return out
}

// Equal reports field-wise equality, ignoring ShowInEditor.
func (m GamepadMapping) Equal(o GamepadMapping) bool {
	if len(m.Buttons) != len(o.Buttons) || len(m.Directionals) != len(o.Directionals) {
		return false
	}
	for i, b := range m.Buttons {
		if b.Name != o.Buttons[i].Name || b.Index != o.Buttons[i].Index {
			return false
		}
	}
	for i, d := range m.Directionals {
		od := o.Directionals[i]
		if d.X != od.X || d.Y != od.Y || d.Deadzone != od.Deadzone {
			return false
		}
	}
	return true
}
