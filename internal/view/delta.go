package view

import "math"

// Delta carries only the elements that changed between two views.
type Delta struct {
	Seq          uint64        `json:"seq,omitempty"`
	Buttons      []Button      `json:"buttons,omitempty"`
	Directionals []Directional `json:"directionals,omitempty"`
}

func (d *Delta) IsEmpty() bool {
	return len(d.Buttons) == 0 && len(d.Directionals) == 0
}

// positionThreshold is in percent; 0.5% equals 0.01 of axis travel.
const positionThreshold = 0.5

func positionEqual(a, b float64) bool {
	return math.Abs(a-b) < positionThreshold
}

// Diff returns the changes from old to new_. It reports false when the two
// views differ in shape (placeholder, element names or counts) and a full view
// must be sent instead.
func Diff(old, new_ View) (*Delta, bool) {
	if old.Placeholder != new_.Placeholder ||
		old.Source != new_.Source ||
		len(old.Buttons) != len(new_.Buttons) ||
		len(old.Directionals) != len(new_.Directionals) {
		return nil, false
	}

	d := &Delta{Seq: new_.Seq}
	for i, b := range new_.Buttons {
		if old.Buttons[i].Name != b.Name {
			return nil, false
		}
		if old.Buttons[i].Active != b.Active {
			d.Buttons = append(d.Buttons, b)
		}
	}
	for i, dir := range new_.Directionals {
		o := old.Directionals[i]
		if o.Active != dir.Active || !positionEqual(o.Left, dir.Left) || !positionEqual(o.Top, dir.Top) {
			d.Directionals = append(d.Directionals, dir)
		}
	}
	return d, true
}
