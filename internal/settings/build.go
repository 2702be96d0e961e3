package settings

import (
	"fmt"
	"strconv"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/joy"
	"github.com/soar/joyview/internal/mapping"
)

// Node and action identifiers shared with Apply.
const (
	RootGeneral      = "general"
	RootButtons      = "buttons"
	RootDirectionals = "directionals"

	FieldTopic   = "topic"
	FieldTheme   = "theme"
	FieldMapping = "mapping"

	ActionAddButton      = "add_button"
	ActionAddDirectional = "add_directional"
	ActionDeleteMapping  = "delete_mapping"
)

const (
	errEmptyName      = "Button name is empty"
	errDuplicateName  = "Name is used multiple times"
	errDuplicateIndex = "Index is used multiple times"
)

// Themes lists the selectable diagram themes.
var Themes = []Option{
	{Label: "Sony PlayStation – Analog Black", Value: config.DefaultTheme},
}

// Source is a topic offered by the host.
type Source struct {
	Name   string
	Schema string
}

// BuildOptions carries the host-side context of a tree.
type BuildOptions struct {
	// ReadOnly is set when the panel plays back a recorded session.
	ReadOnly bool
	// Sources are the topics currently known to the host.
	Sources []Source
	// ProfileError annotates the mapping selector after a failed selection.
	ProfileError string
}

// Build projects cfg into a settings tree.
func Build(cfg config.Config, opts BuildOptions) Tree {
	return Tree{Roots: []Node{
		generalNode(cfg, opts),
		buttonsNode(cfg.Mapping),
		directionalsNode(cfg.Mapping),
	}}
}

func generalNode(cfg config.Config, opts BuildOptions) Node {
	topic := Field{
		Key:   FieldTopic,
		Label: "Topic",
		Input: InputString,
		Value: cfg.Topic,
	}
	if opts.ReadOnly {
		topic.Input = InputSelect
		topic.Options = compatibleSources(cfg.Topic, opts.Sources)
	}

	profiles := make([]Option, 0, len(mapping.Profiles())+1)
	for _, p := range mapping.Profiles() {
		profiles = append(profiles, Option{Label: p.Name, Value: p.Name})
	}
	profiles = append(profiles, Option{Label: "Custom", Value: mapping.Custom})

	return Node{
		Key:   RootGeneral,
		Label: "General",
		Fields: []Field{
			topic,
			{
				Key:     FieldTheme,
				Label:   "Theme",
				Input:   InputSelect,
				Value:   cfg.Theme,
				Options: append([]Option(nil), Themes...),
			},
			{
				Key:     FieldMapping,
				Label:   "Mapping",
				Input:   InputSelect,
				Value:   cfg.MappingName,
				Options: profiles,
				Error:   opts.ProfileError,
			},
		},
	}
}

// compatibleSources lists the Joy topics, keeping the selected one even when
// the host does not currently report it.
func compatibleSources(selected string, sources []Source) []Option {
	var opts []Option
	found := false
	for _, s := range sources {
		if !joy.IsCompatible(s.Schema) {
			continue
		}
		if s.Name == selected {
			found = true
		}
		opts = append(opts, Option{Label: s.Name, Value: s.Name})
	}
	if !found && selected != "" {
		opts = append([]Option{{Label: selected, Value: selected}}, opts...)
	}
	return opts
}

func buttonsNode(m mapping.GamepadMapping) Node {
	indexDups := mapping.DuplicateButtonIndices(m)
	nameDups := mapping.DuplicateButtonNames(m)

	children := make([]Node, 0, len(m.Buttons))
	for i, b := range m.Buttons {
		var nameErr string
		switch {
		case b.Name == "":
			nameErr = errEmptyName
		case nameDups[b.Name]:
			nameErr = errDuplicateName
		}

		children = append(children, Node{
			Key:       strconv.Itoa(i),
			Label:     fmt.Sprintf("Button %s", b.Name),
			Expansion: expansion(b.ShowInEditor),
			Actions:   []NodeAction{{ID: ActionDeleteMapping, Label: "Delete Button"}},
			Fields: []Field{
				{Key: "name", Label: "Name", Input: InputString, Value: b.Name, Error: nameErr},
				{
					Key:   "index",
					Label: "Index",
					Input: InputNumber,
					Value: b.Index,
					Min:   bound(0),
					Step:  1,
					Error: conflict(indexDups[b.Index]),
				},
			},
		})
	}

	return Node{
		Key:       RootButtons,
		Label:     "Buttons",
		Expansion: Collapsed,
		Actions:   []NodeAction{{ID: ActionAddButton, Label: "Add Button"}},
		Children:  children,
	}
}

func directionalsNode(m mapping.GamepadMapping) Node {
	axisDups := mapping.DuplicateAxisIndices(m)

	children := make([]Node, 0, len(m.Directionals))
	for i, d := range m.Directionals {
		children = append(children, Node{
			Key:       strconv.Itoa(i),
			Label:     fmt.Sprintf("Directional %d", i+1),
			Expansion: expansion(d.ShowInEditor),
			Actions:   []NodeAction{{ID: ActionDeleteMapping, Label: "Delete Directional"}},
			Fields: []Field{
				axisField("x", "X-Axis", d.X, axisDups[d.X]),
				axisField("y", "Y-Axis", d.Y, axisDups[d.Y]),
				{
					Key:       "deadzone",
					Label:     "Deadzone",
					Input:     InputNumber,
					Value:     d.Deadzone,
					Min:       bound(0),
					Max:       bound(1),
					Step:      0.05,
					Precision: 2,
				},
			},
		})
	}

	return Node{
		Key:       RootDirectionals,
		Label:     "Directionals",
		Expansion: Collapsed,
		Actions:   []NodeAction{{ID: ActionAddDirectional, Label: "Add Directional"}},
		Children:  children,
	}
}

func axisField(key, label string, index int, dup bool) Field {
	return Field{
		Key:   key,
		Label: label,
		Input: InputNumber,
		Value: index,
		Min:   bound(0),
		Step:  1,
		Error: conflict(dup),
	}
}

func expansion(show bool) Expansion {
	if show {
		return Expanded
	}
	return Collapsed
}

func conflict(dup bool) string {
	if dup {
		return errDuplicateIndex
	}
	return ""
}
