package settings

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/spf13/cast"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/mapping"
)

type Kind string

const (
	Update            Kind = "update"
	PerformNodeAction Kind = "perform-node-action"
)

// Action is one edit made through the settings tree.
type Action struct {
	Kind Kind
	// ID names the node action for PerformNodeAction.
	ID    string
	Path  []string
	Value any
}

var (
	ErrInvalidPath   = errors.New("invalid settings path")
	ErrInvalidValue  = errors.New("invalid settings value")
	ErrUnknownAction = errors.New("unknown settings action")
)

const (
	newButtonName   = "NEW_BUTTON"
	newDeadzone     = 0.25
	unallocatedAxis = -1
)

// Apply returns the configuration that results from a on cfg. cfg itself is
// never modified; on error it is returned unchanged.
func Apply(cfg config.Config, a Action) (config.Config, error) {
	next := cfg.Clone()

	var err error
	switch a.Kind {
	case PerformNodeAction:
		err = performNodeAction(&next, a)
	case Update:
		err = update(&next, a)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return cfg, err
	}
	return next, nil
}

func performNodeAction(cfg *config.Config, a Action) error {
	switch a.ID {
	case ActionAddButton:
		cfg.Mapping.Buttons = append(cfg.Mapping.Buttons, mapping.ButtonMapping{
			Name:         newButtonName,
			Index:        mapping.NextButtonIndex(cfg.Mapping),
			ShowInEditor: true,
		})

	case ActionAddDirectional:
		// x is allocated with the new entry already in place, then y against
		// the updated pool, so the pair never collides.
		cfg.Mapping.Directionals = append(cfg.Mapping.Directionals, mapping.DirectionalMapping{
			X:            unallocatedAxis,
			Y:            unallocatedAxis,
			Deadzone:     newDeadzone,
			ShowInEditor: true,
		})
		d := &cfg.Mapping.Directionals[len(cfg.Mapping.Directionals)-1]
		d.X = mapping.NextAxisIndex(cfg.Mapping)
		d.Y = mapping.NextAxisIndex(cfg.Mapping)

	case ActionDeleteMapping:
		if err := deleteEntry(&cfg.Mapping, a.Path); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.ID)
	}

	cfg.MappingName = mapping.Custom
	return nil
}

func deleteEntry(m *mapping.GamepadMapping, path []string) error {
	if len(path) != 2 {
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	switch path[0] {
	case RootButtons:
		i, err := position(path, len(m.Buttons))
		if err != nil {
			return err
		}
		m.Buttons = slices.Delete(m.Buttons, i, i+1)
	case RootDirectionals:
		i, err := position(path, len(m.Directionals))
		if err != nil {
			return err
		}
		m.Directionals = slices.Delete(m.Directionals, i, i+1)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	return nil
}

func update(cfg *config.Config, a Action) error {
	if len(a.Path) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	switch a.Path[0] {
	case RootGeneral:
		return updateGeneral(cfg, a)
	case RootButtons:
		if err := updateButton(&cfg.Mapping, a.Path, a.Value); err != nil {
			return err
		}
	case RootDirectionals:
		if err := updateDirectional(&cfg.Mapping, a.Path, a.Value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPath, a.Path)
	}

	cfg.MappingName = mapping.Custom
	return nil
}

func updateGeneral(cfg *config.Config, a Action) error {
	if len(a.Path) != 2 {
		return fmt.Errorf("%w: %v", ErrInvalidPath, a.Path)
	}
	value, err := cast.ToStringE(a.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	switch a.Path[1] {
	case FieldTopic:
		cfg.Topic = value
	case FieldTheme:
		cfg.Theme = value
	case FieldMapping:
		if value == mapping.Custom {
			cfg.MappingName = mapping.Custom
			cfg.Mapping = mapping.Empty()
			return nil
		}
		m, err := mapping.LoadProfile(value)
		if err != nil {
			return err
		}
		cfg.MappingName = value
		cfg.Mapping = m
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPath, a.Path)
	}
	return nil
}

func updateButton(m *mapping.GamepadMapping, path []string, value any) error {
	if len(path) != 3 {
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	i, err := position(path, len(m.Buttons))
	if err != nil {
		return err
	}
	b := &m.Buttons[i]

	switch path[2] {
	case "name":
		name, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		b.Name = name
	case "index":
		index, err := indexValue(value)
		if err != nil {
			return err
		}
		b.Index = index
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	return nil
}

func updateDirectional(m *mapping.GamepadMapping, path []string, value any) error {
	if len(path) != 3 {
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	i, err := position(path, len(m.Directionals))
	if err != nil {
		return err
	}
	d := &m.Directionals[i]

	switch path[2] {
	case "x":
		if d.X, err = indexValue(value); err != nil {
			return err
		}
	case "y":
		if d.Y, err = indexValue(value); err != nil {
			return err
		}
	case "deadzone":
		dz, err := cast.ToFloat64E(value)
		if err != nil || !mapping.ValidDeadzone(dz) {
			return fmt.Errorf("%w: deadzone %v", ErrInvalidValue, value)
		}
		d.Deadzone = dz
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	return nil
}

// position parses the list position in path[1] and checks it against n.
func position(path []string, n int) (int, error) {
	i, err := strconv.Atoi(path[1])
	if err != nil || i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	return i, nil
}

func indexValue(value any) (int, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil || f < 0 || f > mapping.MaxIndex || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: index %v", ErrInvalidValue, value)
	}
	return int(f), nil
}
