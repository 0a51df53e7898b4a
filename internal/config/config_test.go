package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FergusFettes/command-line-loom/internal/loom"
)

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.File)
	assert.Equal(t, "default", cfg.ChatName)
	assert.Equal(t, "\nHuman: ", cfg.Templater.InPrefix)
	assert.Equal(t, "\nGPT:", cfg.Templater.OutPrefix)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model.Model)
	assert.Equal(t, 200, cfg.Model.MaxTokens)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default(dir)
	cfg.ChatName = "project"
	cfg.Templater.Enabled = false
	cfg.Model.Model = "gpt-4"
	cfg.Model.Temperature = 0.2
	require.NoError(t, cfg.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "project", loaded.ChatName)
	assert.False(t, loaded.Templater.Enabled)
	assert.Equal(t, "gpt-4", loaded.Model.Model)
	assert.InDelta(t, 0.2, loaded.Model.Temperature, 1e-6)
}

func TestSaveWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Default(dir).Save())

	for _, name := range []string{"config.yaml", "model.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("chat_name: [unclosed"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSetCoercesValues(t *testing.T) {
	cfg := Default(t.TempDir())

	require.NoError(t, cfg.Set("file", "False"))
	assert.False(t, cfg.File)

	require.NoError(t, cfg.Set("n", "4"))
	assert.Equal(t, 4, cfg.Model.N)

	require.NoError(t, cfg.Set("temperature", "0.35"))
	assert.InDelta(t, 0.35, cfg.Model.Temperature, 1e-6)

	require.NoError(t, cfg.Set("chat_name", "other"))
	assert.Equal(t, "other", cfg.ChatName)

	require.NoError(t, cfg.Set("template_file", "poet"))
	assert.Equal(t, "poet.tmpl", cfg.Templater.TemplateFile)
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg := Default(t.TempDir())

	assert.ErrorIs(t, cfg.Set("n", "lots"), loom.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("file", "maybe"), loom.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("no_such_key", "1"), loom.ErrInvalidInput)
}

func TestSetPairs(t *testing.T) {
	cfg := Default(t.TempDir())

	require.NoError(t, cfg.SetPairs("chat_name=work,max_tokens=512"))
	assert.Equal(t, "work", cfg.ChatName)
	assert.Equal(t, 512, cfg.Model.MaxTokens)

	assert.ErrorIs(t, cfg.SetPairs("oops"), loom.ErrInvalidInput)
}
