package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soar/joyview/internal/mapping"
)

func TestMergeDefaults(t *testing.T) {
	cfg, err := Merge(nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if cfg.Topic != DefaultTopic || cfg.Theme != DefaultTheme || cfg.MappingName != mapping.DefaultProfile {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	want, _ := mapping.LoadProfile(mapping.DefaultProfile)
	if !cfg.Mapping.Equal(want) {
		t.Fatal("default mapping differs from profile")
	}
}

func TestMergePartial(t *testing.T) {
	cfg, err := Merge([]byte(`{"topic":"/pad","mapping_name":"custom"}`))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if cfg.Topic != "/pad" || cfg.Theme != DefaultTheme {
		t.Fatalf("unexpected merge: %+v", cfg)
	}
	if len(cfg.Mapping.Buttons) != 0 || cfg.Mapping.Buttons == nil {
		t.Fatalf("custom without mapping should be empty, got %+v", cfg.Mapping)
	}
}

func TestMergeUnknownProfileWithoutMapping(t *testing.T) {
	_, err := Merge([]byte(`{"mapping_name":"Atari CX40"}`))
	if !errors.Is(err, mapping.ErrUnknownProfile) {
		t.Fatalf("got %v, want ErrUnknownProfile", err)
	}
}

func TestMergeUnknownProfileWithMapping(t *testing.T) {
	cfg, err := Merge([]byte(`{"mapping_name":"Atari CX40","mapping":{"buttons":[{"name":"FIRE","index":0}]}}`))
	if err != nil {
		t.Fatalf("stored mapping should be used as-is: %v", err)
	}
	if len(cfg.Mapping.Buttons) != 1 || cfg.Mapping.Directionals == nil {
		t.Fatalf("unexpected mapping: %+v", cfg.Mapping)
	}
}

func TestMergeRejectsOutOfRangeMapping(t *testing.T) {
	tests := map[string]string{
		"negative button index": `{"mapping":{"buttons":[{"name":"A","index":-3}],"directionals":[]}}`,
		"negative axis":         `{"mapping":{"buttons":[],"directionals":[{"x":-1,"y":1,"deadzone":0.2}]}}`,
		"deadzone above one":    `{"mapping":{"buttons":[],"directionals":[{"x":0,"y":1,"deadzone":7}]}}`,
	}
	for name, saved := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Merge([]byte(saved)); !errors.Is(err, mapping.ErrInvalidMapping) {
				t.Fatalf("err = %v, want ErrInvalidMapping", err)
			}
		})
	}
}

func TestEncodeStripsEditorFlags(t *testing.T) {
	cfg, _ := Default()
	cfg.Mapping.Buttons[0].ShowInEditor = true
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "showineditor") {
		t.Fatalf("editor flag persisted: %s", data)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	if data, err := store.Load(); err != nil || data != nil {
		t.Fatalf("empty store: %q, %v", data, err)
	}

	cfg, _ := Default()
	cfg.MappingName = mapping.Custom
	cfg.Mapping.Buttons = append(cfg.Mapping.Buttons, mapping.ButtonMapping{Name: "NEW_BUTTON", Index: 17, ShowInEditor: true})
	cfg.Mapping.Directionals[0].ShowInEditor = true
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := Merge(data)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !got.Equal(cfg) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
	for _, b := range got.Mapping.Buttons {
		if b.ShowInEditor {
			t.Fatal("reloaded button is expanded")
		}
	}
}
