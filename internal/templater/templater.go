// Package templater wraps prompts for generation: it applies the output
// prefix and optionally renders the prompt through an editable template
// file. Templates are plain text/template files with a {{.Prompt}} slot.
package templater

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/FergusFettes/command-line-loom/internal/config"
	"github.com/FergusFettes/command-line-loom/internal/loom"
)

// DefaultTemplate seeds a fresh templates directory.
const DefaultTemplate = `The following is a conversation between a human and an assistant.
The assistant is helpful, creative, clever, and very friendly.
{{.Prompt}}`

// Templater renders prompts using the settings in config.
type Templater struct {
	cfg *config.Templater
}

// New creates a templater over the given settings.
func New(cfg *config.Templater) *Templater {
	return &Templater{cfg: cfg}
}

// InPrefix returns the prefix stamped onto human turns.
func (t *Templater) InPrefix() string {
	return t.cfg.InPrefix
}

// OutPrefix returns the prefix stamped onto generated turns.
func (t *Templater) OutPrefix() string {
	return t.cfg.OutPrefix
}

// Prompt appends the output prefix and, when templating is enabled, renders
// the configured template around the result.
func (t *Templater) Prompt(prompt string) (string, error) {
	prompt += t.cfg.OutPrefix
	if !t.cfg.Enabled {
		return prompt, nil
	}
	return t.render(t.cfg.TemplateFile, prompt)
}

// render reads a template file and substitutes the prompt into it.
func (t *Templater) render(name, prompt string) (string, error) {
	path := filepath.Join(t.cfg.TemplatePath, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("template %q: %w", name, loom.ErrNotFound)
		}
		return "", fmt.Errorf("reading template %q: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, struct{ Prompt string }{Prompt: prompt}); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return b.String(), nil
}

// EnsureDefaults creates the templates directory and seeds the default
// template if it is missing. Existing files are never overwritten.
func (t *Templater) EnsureDefaults() error {
	if err := os.MkdirAll(t.cfg.TemplatePath, 0o755); err != nil {
		return fmt.Errorf("creating templates dir: %w", err)
	}
	path := filepath.Join(t.cfg.TemplatePath, "assist.tmpl")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(DefaultTemplate), 0o644); err != nil {
		return fmt.Errorf("writing default template: %w", err)
	}
	return nil
}

// List returns the template file names in the templates directory, sorted.
func (t *Templater) List() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(t.cfg.TemplatePath), "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Show returns the raw contents of a template file.
func (t *Templater) Show(name string) (string, error) {
	if name == "" {
		name = t.cfg.TemplateFile
	}
	if !strings.Contains(name, ".") {
		name += ".tmpl"
	}
	raw, err := os.ReadFile(filepath.Join(t.cfg.TemplatePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("template %q: %w", name, loom.ErrNotFound)
		}
		return "", fmt.Errorf("reading template %q: %w", name, err)
	}
	return string(raw), nil
}

// Create writes a new template file. An existing file is a conflict.
func (t *Templater) Create(name, contents string) error {
	if name == "" {
		return fmt.Errorf("creating template: empty name: %w", loom.ErrInvalidInput)
	}
	if !strings.Contains(name, ".") {
		name += ".tmpl"
	}
	if err := os.MkdirAll(t.cfg.TemplatePath, 0o755); err != nil {
		return fmt.Errorf("creating templates dir: %w", err)
	}
	path := filepath.Join(t.cfg.TemplatePath, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("template %q exists: %w", name, loom.ErrConflict)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("writing template %q: %w", name, err)
	}
	return nil
}
