// Package theme serves the controller diagrams. A theme is an HTML fragment
// whose elements carry ojd-button and ojd-directional attributes, styled by
// its stylesheet, over a background SVG.
package theme

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

//go:embed themes
var themeFiles embed.FS

// svgMarker is replaced by the theme's background SVG.
const svgMarker = "<!--ojd-svg-->"

var ErrUnknownTheme = errors.New("unknown theme")

// Manifest describes one theme directory.
type Manifest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	CSS   string `json:"css"`
	SVG   string `json:"svg"`
}

var (
	minifier = newMinifier()

	cacheMu sync.Mutex
	cache   = map[string]string{}
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// Minifier returns the minifier used for theme assets, for serving other
// static files the same way.
func Minifier() *minify.M {
	return minifier
}

// List returns the manifests of all embedded themes.
func List() ([]Manifest, error) {
	entries, err := fs.ReadDir(themeFiles, "themes")
	if err != nil {
		return nil, err
	}
	var out []Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := manifest(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func manifest(id string) (Manifest, error) {
	data, err := themeFiles.ReadFile(path.Join("themes", id, "theme.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("theme %s: %w", id, err)
	}
	return m, nil
}

// Load returns the minified, self-contained diagram of theme id: its
// stylesheet followed by the HTML fragment with the SVG inlined.
func Load(id string) (string, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if out, ok := cache[id]; ok {
		return out, nil
	}

	m, err := manifest(id)
	if err != nil {
		return "", err
	}
	read := func(name string) (string, error) {
		data, err := themeFiles.ReadFile(path.Join("themes", id, name))
		return string(data), err
	}
	body, err := read(m.HTML)
	if err != nil {
		return "", err
	}
	style, err := read(m.CSS)
	if err != nil {
		return "", err
	}
	image, err := read(m.SVG)
	if err != nil {
		return "", err
	}

	if image, err = minifier.String("image/svg+xml", image); err != nil {
		return "", fmt.Errorf("theme %s: %w", id, err)
	}
	if style, err = minifier.String("text/css", style); err != nil {
		return "", fmt.Errorf("theme %s: %w", id, err)
	}
	body = strings.Replace(body, svgMarker, image, 1)
	if body, err = minifier.String("text/html", body); err != nil {
		return "", fmt.Errorf("theme %s: %w", id, err)
	}

	out := "<style>" + style + "</style>" + body
	cache[id] = out
	return out, nil
}

// Placeholder returns the minified graphic shown when no controller is
// connected.
func Placeholder() (string, error) {
	data, err := themeFiles.ReadFile("themes/no-controller.svg")
	if err != nil {
		return "", err
	}
	return minifier.String("image/svg+xml", string(data))
}
