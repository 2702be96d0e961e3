package main

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFrontendScalesDiagramToFit(t *testing.T) {
	frontend := getFrontendFS()

	index, err := fs.ReadFile(frontend, "index.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), `id="stage"`) {
		t.Fatal("index.html has no stage around the diagram")
	}

	app, err := fs.ReadFile(frontend, "app.js")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ResizeObserver(fitTheme)", "scale("} {
		if !strings.Contains(string(app), want) {
			t.Errorf("app.js does not contain %q", want)
		}
	}
}

func TestLocalURL(t *testing.T) {
	for addr, want := range map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
	} {
		if got := localURL(addr); got != want {
			t.Errorf("localURL(%q) = %q, want %q", addr, got, want)
		}
	}
}
