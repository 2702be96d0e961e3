// Package config holds the panel configuration: the selected source, theme,
// mapping profile and the editable mapping itself.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/soar/joyview/internal/mapping"
)

const (
	DefaultTopic = "/joy"
	DefaultTheme = "ps3-analog-black"
)

// Config is a panel configuration. Values are treated as immutable: every
// change goes through Clone and produces a new Config.
type Config struct {
	Topic       string                 `json:"topic"`
	Theme       string                 `json:"theme"`
	MappingName string                 `json:"mapping_name"`
	Mapping     mapping.GamepadMapping `json:"mapping"`
}

// partial is the persisted layout with every field optional.
type partial struct {
	Topic       *string                 `json:"topic"`
	Theme       *string                 `json:"theme"`
	MappingName *string                 `json:"mapping_name"`
	Mapping     *mapping.GamepadMapping `json:"mapping"`
}

// Default returns the configuration of a panel with no saved state.
func Default() (Config, error) {
	return Merge(nil)
}

// Merge builds a Config from previously saved state, which may be empty or
// partial. Missing fields take their defaults; a missing mapping is loaded
// from the saved (or default) profile name.
func Merge(saved []byte) (Config, error) {
	var p partial
	if len(saved) > 0 {
		if err := json.Unmarshal(saved, &p); err != nil {
			return Config{}, fmt.Errorf("decode saved state: %w", err)
		}
	}

	cfg := Config{
		Topic:       DefaultTopic,
		Theme:       DefaultTheme,
		MappingName: mapping.DefaultProfile,
	}
	if p.Topic != nil {
		cfg.Topic = *p.Topic
	}
	if p.Theme != nil {
		cfg.Theme = *p.Theme
	}
	if p.MappingName != nil {
		cfg.MappingName = *p.MappingName
	}

	if p.Mapping != nil {
		if err := p.Mapping.Validate(); err != nil {
			return Config{}, fmt.Errorf("saved state: %w", err)
		}
		cfg.Mapping = normalize(*p.Mapping)
		return cfg, nil
	}

	if cfg.MappingName == mapping.Custom {
		cfg.Mapping = mapping.Empty()
		return cfg, nil
	}
	m, err := mapping.LoadProfile(cfg.MappingName)
	if err != nil {
		return Config{}, err
	}
	cfg.Mapping = m
	return cfg, nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Mapping = c.Mapping.Clone()
	return out
}

// Persisted returns the copy of c that is written to the host: identical
// values, no editor-only flags.
func (c Config) Persisted() Config {
	out := c
	out.Mapping = c.Mapping.Stripped()
	return out
}

// Equal reports whether two configurations describe the same panel.
func (c Config) Equal(o Config) bool {
	return c.Topic == o.Topic &&
		c.Theme == o.Theme &&
		c.MappingName == o.MappingName &&
		c.Mapping.Equal(o.Mapping)
}

// Encode serializes the persisted form of c.
func (c Config) Encode() ([]byte, error) {
	return json.MarshalIndent(c.Persisted(), "", "  ")
}

// normalize makes nil lists empty so they persist as arrays.
func normalize(m mapping.GamepadMapping) mapping.GamepadMapping {
	if m.Buttons == nil {
		m.Buttons = []mapping.ButtonMapping{}
	}
	if m.Directionals == nil {
		m.Directionals = []mapping.DirectionalMapping{}
	}
	return m
}
