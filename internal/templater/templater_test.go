package templater

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FergusFettes/command-line-loom/internal/config"
	"github.com/FergusFettes/command-line-loom/internal/loom"
)

func newTemplater(t *testing.T) (*Templater, *config.Templater) {
	t.Helper()
	cfg := &config.Templater{
		InPrefix:     "\nHuman: ",
		OutPrefix:    "\nGPT:",
		Enabled:      true,
		TemplatePath: t.TempDir(),
		TemplateFile: "assist.tmpl",
	}
	return New(cfg), cfg
}

func TestPromptWithoutTemplating(t *testing.T) {
	tp, cfg := newTemplater(t)
	cfg.Enabled = false

	out, err := tp.Prompt("\nHuman: hello")
	require.NoError(t, err)
	assert.Equal(t, "\nHuman: hello\nGPT:", out)
}

func TestPromptRendersTemplate(t *testing.T) {
	tp, cfg := newTemplater(t)
	path := filepath.Join(cfg.TemplatePath, "assist.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("PREAMBLE{{.Prompt}}END"), 0o644))

	out, err := tp.Prompt("\nHuman: hi")
	require.NoError(t, err)
	assert.Equal(t, "PREAMBLE\nHuman: hi\nGPT:END", out)
}

func TestPromptMissingTemplate(t *testing.T) {
	tp, _ := newTemplater(t)

	_, err := tp.Prompt("x")
	assert.ErrorIs(t, err, loom.ErrNotFound)
}

func TestEnsureDefaultsSeedsOnce(t *testing.T) {
	tp, cfg := newTemplater(t)

	require.NoError(t, tp.EnsureDefaults())
	out, err := tp.Prompt("\nHuman: hi")
	require.NoError(t, err)
	assert.Contains(t, out, "\nHuman: hi\nGPT:")

	// A second call must not clobber an edited template.
	path := filepath.Join(cfg.TemplatePath, "assist.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("custom {{.Prompt}}"), 0o644))
	require.NoError(t, tp.EnsureDefaults())
	raw, err := tp.Show("")
	require.NoError(t, err)
	assert.Equal(t, "custom {{.Prompt}}", raw)
}

func TestListAndCreate(t *testing.T) {
	tp, _ := newTemplater(t)

	require.NoError(t, tp.Create("poet", "ode {{.Prompt}}"))
	require.NoError(t, tp.Create("assist", "a {{.Prompt}}"))

	names, err := tp.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"assist.tmpl", "poet.tmpl"}, names)

	raw, err := tp.Show("poet")
	require.NoError(t, err)
	assert.Equal(t, "ode {{.Prompt}}", raw)

	assert.ErrorIs(t, tp.Create("poet", "again"), loom.ErrConflict)
	assert.ErrorIs(t, tp.Create("", "x"), loom.ErrInvalidInput)

	_, err = tp.Show("ghost")
	assert.ErrorIs(t, err, loom.ErrNotFound)
}
