package view

import (
	"math"
	"testing"

	"github.com/soar/joyview/internal/joy"
	"github.com/soar/joyview/internal/mapping"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func stick(deadzone float64) mapping.GamepadMapping {
	m := mapping.Empty()
	m.Directionals = []mapping.DirectionalMapping{{X: 0, Y: 1, Deadzone: deadzone}}
	return m
}

func TestDirectionalDeadzone(t *testing.T) {
	tests := []struct {
		name      string
		axes      []float64
		active    bool
		left, top float64
	}{
		{"inside deadzone", []float64{0.1, 0.1}, false, 50, 50},
		{"outside deadzone", []float64{0.5, 0.0}, true, 75, 50},
		{"full deflection", []float64{-1, 1}, true, 0, 100},
		{"on the boundary", []float64{0.25, 0}, true, 62.5, 50},
		{"missing y axis", []float64{0.9}, false, 50, 50},
		{"no axes", nil, false, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Render(stick(0.25), &joy.Snapshot{Axes: tt.axes})
			d := v.Directionals[0]
			if d.Active != tt.active || !near(d.Left, tt.left) || !near(d.Top, tt.top) {
				t.Fatalf("got active=%v at (%v,%v), want active=%v at (%v,%v)",
					d.Active, d.Left, d.Top, tt.active, tt.left, tt.top)
			}
		})
	}
}

func TestButtonActivation(t *testing.T) {
	m := mapping.Empty()
	m.Buttons = []mapping.ButtonMapping{
		{Name: "CROSS", Index: 0},
		{Name: "CIRCLE", Index: 1},
		{Name: "PS", Index: 16},
	}
	v := Render(m, &joy.Snapshot{Buttons: []int{1, 0}})

	want := map[string]bool{"CROSS": true, "CIRCLE": false, "PS": false}
	for _, b := range v.Buttons {
		if b.Active != want[b.Name] {
			t.Errorf("%s active = %v, want %v", b.Name, b.Active, want[b.Name])
		}
	}
}

func TestDuplicateButtons(t *testing.T) {
	m := mapping.Empty()
	m.Buttons = []mapping.ButtonMapping{
		{Name: "L1", Index: 4},
		{Name: "SHOULDER", Index: 4},
		{Name: "L1", Index: 5},
	}
	v := Render(m, &joy.Snapshot{Buttons: []int{0, 0, 0, 0, 1, 0}})

	if len(v.Buttons) != 2 {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
	if !v.Buttons[0].Active || !v.Buttons[1].Active {
		t.Fatalf("shared index should toggle both: %+v", v.Buttons)
	}
}

func TestRenderWithoutSnapshot(t *testing.T) {
	v := Render(stick(0.1), nil)
	if !v.Placeholder || len(v.Directionals) != 0 {
		t.Fatalf("got %+v", v)
	}
}

func TestDiff(t *testing.T) {
	m := stick(0.25)
	m.Buttons = []mapping.ButtonMapping{{Name: "A", Index: 0}, {Name: "B", Index: 1}}

	old := Render(m, &joy.Snapshot{Seq: 1, Axes: []float64{0, 0}, Buttons: []int{0, 0}})
	same := Render(m, &joy.Snapshot{Seq: 2, Axes: []float64{0.1, 0}, Buttons: []int{0, 0}})
	d, ok := Diff(old, same)
	if !ok || !d.IsEmpty() {
		t.Fatalf("expected empty delta, got %+v %v", d, ok)
	}

	moved := Render(m, &joy.Snapshot{Seq: 3, Axes: []float64{0.6, 0}, Buttons: []int{0, 1}})
	d, ok = Diff(old, moved)
	if !ok || len(d.Buttons) != 1 || d.Buttons[0].Name != "B" || len(d.Directionals) != 1 || d.Seq != 3 {
		t.Fatalf("delta = %+v %v", d, ok)
	}

	if _, ok := Diff(old, Render(m, nil)); ok {
		t.Fatal("placeholder change must need a full view")
	}
	if _, ok := Diff(old, Render(stick(0.25), &joy.Snapshot{})); ok {
		t.Fatal("layout change must need a full view")
	}
}
