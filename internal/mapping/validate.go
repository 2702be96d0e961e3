package mapping

import (
	"errors"
	"fmt"
	"math"
)

// MaxIndex is the largest raw button or axis index a mapping may reference.
const MaxIndex = math.MaxInt32

var ErrInvalidMapping = errors.New("invalid mapping")

// ValidIndex reports whether i can address a raw button or axis.
func ValidIndex(i int) bool {
	return i >= 0 && i <= MaxIndex
}

// ValidDeadzone reports whether dz is a usable stick deadzone.
func ValidDeadzone(dz float64) bool {
	return dz >= 0 && dz <= 1
}

// Validate checks the value ranges of every entry. Duplicates are not errors;
// they are reported by the conflict finders.
func (m GamepadMapping) Validate() error {
	for i, b := range m.Buttons {
		if !ValidIndex(b.Index) {
			return fmt.Errorf("%w: button %d index %d", ErrInvalidMapping, i, b.Index)
		}
	}
	for i, d := range m.Directionals {
		switch {
		case !ValidIndex(d.X):
			return fmt.Errorf("%w: directional %d x %d", ErrInvalidMapping, i, d.X)
		case !ValidIndex(d.Y):
			return fmt.Errorf("%w: directional %d y %d", ErrInvalidMapping, i, d.Y)
		case !ValidDeadzone(d.Deadzone):
			return fmt.Errorf("%w: directional %d deadzone %v", ErrInvalidMapping, i, d.Deadzone)
		}
	}
	return nil
}
