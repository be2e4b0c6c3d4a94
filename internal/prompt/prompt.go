// Package prompt holds the versioned, per-mode prompt templates. Templates are
// YAML (version + one text/template per mode) and can be reloaded at runtime.
package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Data is what a template can reference: {{.Context}} and {{.Question}}.
type Data struct {
	Context  string
	Question string
}

type file struct {
	Version   string            `yaml:"version"`
	Templates map[string]string `yaml:"templates"`
}

// Set is one parsed version of the templates, immutable once built.
type Set struct {
	version   string
	templates map[mode.Mode]*template.Template
}

// Version returns the template set version.
func (s *Set) Version() string { return s.version }

// Render executes the template of mode m.
func (s *Set) Render(m mode.Mode, d Data) (string, error) {
	t, ok := s.templates[m]
	if !ok {
		return "", fmt.Errorf("no template for mode %q", m)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s template v%s: %w", m, s.version, err)
	}
	return buf.String(), nil
}

// Parse builds a Set from YAML. Every mode needs a template.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompts yaml: %w", err)
	}
	if strings.TrimSpace(f.Version) == "" {
		return nil, errors.New("prompts: version is required")
	}

	s := &Set{version: f.Version, templates: make(map[mode.Mode]*template.Template, len(f.Templates))}
	for _, m := range mode.All() {
		text, ok := f.Templates[string(m)]
		if !ok || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompts: missing template for mode %q", m)
		}
		t, err := template.New(string(m)).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("prompts: template %q: %w", m, err)
		}
		s.templates[m] = t
	}
	return s, nil
}

// Default returns the built-in templates.
func Default() *Set {
	s, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in prompts: %v", err))
	}
	return s
}

// LoadFile parses templates from path.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	return Parse(data)
}

// Store hands out the current Set and lets a watcher swap it atomically.
type Store struct {
	cur atomic.Pointer[Set]
}

// NewStore creates a store serving s.
func NewStore(s *Set) *Store {
	st := &Store{}
	st.cur.Store(s)
	return st
}

// Current returns the active template set.
func (st *Store) Current() *Set { return st.cur.Load() }

// Replace swaps the active set.
func (st *Store) Replace(s *Set) { st.cur.Store(s) }

// Render renders with the active set.
func (st *Store) Render(m mode.Mode, d Data) (string, error) {
	return st.Current().Render(m, d)
}
