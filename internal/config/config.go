// Package config loads and saves the tool's YAML configuration. Settings
// split across two files in the config directory: config.yaml for chat and
// templating behavior, model.yaml for generation parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FergusFettes/command-line-loom/internal/loom"
)

// Templater configures how prompts are wrapped before generation.
type Templater struct {
	InPrefix     string `yaml:"in_prefix"`
	OutPrefix    string `yaml:"out_prefix"`
	Enabled      bool   `yaml:"template"`
	TemplatePath string `yaml:"template_path"`
	TemplateFile string `yaml:"template_file"`
}

// Model holds generation parameters and API access settings.
type Model struct {
	Model            string   `yaml:"model"`
	N                int      `yaml:"n"`
	MaxTokens        int      `yaml:"max_tokens"`
	Temperature      float32  `yaml:"temperature"`
	TopP             float32  `yaml:"top_p"`
	FrequencyPenalty float32  `yaml:"frequency_penalty"`
	PresencePenalty  float32  `yaml:"presence_penalty"`
	Stop             []string `yaml:"stop"`
	Stream           bool     `yaml:"stream"`
	APIKey           string   `yaml:"api_key,omitempty"`
	APIBase          string   `yaml:"api_base,omitempty"`
}

// Config is the tool configuration backed by config.yaml and model.yaml.
type Config struct {
	File       bool      `yaml:"file"`
	ChatPath   string    `yaml:"chat_path"`
	ChatName   string    `yaml:"chat_name"`
	EchoPrompt bool      `yaml:"echo_prompt"`
	BackupPath string    `yaml:"backup_path"`
	Templater  Templater `yaml:"templater"`

	Model Model `yaml:"-"`

	dir string
}

// DefaultDir returns the per-user config directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "cll"), nil
}

// Default returns the configuration used when no files exist yet.
func Default(dir string) *Config {
	return &Config{
		File:       true,
		ChatPath:   filepath.Join(dir, "chats"),
		ChatName:   "default",
		BackupPath: filepath.Join(os.TempDir(), "cll"),
		Templater: Templater{
			InPrefix:     "\nHuman: ",
			OutPrefix:    "\nGPT:",
			Enabled:      true,
			TemplatePath: filepath.Join(dir, "templates"),
			TemplateFile: "assist.tmpl",
		},
		Model: Model{
			Model:       "gpt-3.5-turbo",
			N:           1,
			MaxTokens:   200,
			Temperature: 0.9,
			TopP:        1,
			Stop:        []string{"I'm sorry", "As an AI"},
			Stream:      true,
		},
		dir: dir,
	}
}

// Load reads the configuration from dir. Missing files fall back to
// defaults; malformed files are errors.
func Load(dir string) (*Config, error) {
	cfg := Default(dir)

	if err := readYAML(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "model.yaml"), &cfg.Model); err != nil {
		return nil, err
	}
	cfg.dir = dir
	return cfg, nil
}

// readYAML decodes a file into out, treating a missing file as a no-op.
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Dir returns the directory this configuration was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

// Save writes config.yaml and model.yaml, creating the directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := writeYAML(filepath.Join(c.dir, "config.yaml"), c); err != nil {
		return err
	}
	return writeYAML(filepath.Join(c.dir, "model.yaml"), &c.Model)
}

func writeYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// String renders both sections as YAML for display.
func (c *Config) String() string {
	main, _ := yaml.Marshal(c)
	model, _ := yaml.Marshal(&c.Model)
	return string(main) + "model:\n  " + strings.ReplaceAll(strings.TrimRight(string(model), "\n"), "\n", "\n  ") + "\n"
}

// Set updates a single setting by key from its string form, coercing
// booleans, integers and floats. Unknown keys are invalid input.
func (c *Config) Set(key, value string) error {
	switch key {
	case "file":
		return setBool(&c.File, key, value)
	case "chat_path":
		c.ChatPath = value
	case "chat_name":
		c.ChatName = value
	case "echo_prompt":
		return setBool(&c.EchoPrompt, key, value)
	case "backup_path":
		c.BackupPath = value
	case "in_prefix":
		c.Templater.InPrefix = value
	case "out_prefix":
		c.Templater.OutPrefix = value
	case "template":
		return setBool(&c.Templater.Enabled, key, value)
	case "template_path":
		c.Templater.TemplatePath = value
	case "template_file":
		if !strings.Contains(value, ".") {
			value += ".tmpl"
		}
		c.Templater.TemplateFile = value
	case "model":
		c.Model.Model = value
	case "n":
		return setInt(&c.Model.N, key, value)
	case "max_tokens":
		return setInt(&c.Model.MaxTokens, key, value)
	case "temperature":
		return setFloat(&c.Model.Temperature, key, value)
	case "top_p":
		return setFloat(&c.Model.TopP, key, value)
	case "frequency_penalty":
		return setFloat(&c.Model.FrequencyPenalty, key, value)
	case "presence_penalty":
		return setFloat(&c.Model.PresencePenalty, key, value)
	case "stream":
		return setBool(&c.Model.Stream, key, value)
	case "api_key":
		c.Model.APIKey = value
	case "api_base":
		c.Model.APIBase = value
	case "stop":
		if value == "" {
			c.Model.Stop = nil
		} else {
			c.Model.Stop = strings.Split(value, ",")
		}
	default:
		return fmt.Errorf("unknown setting %q: %w", key, loom.ErrInvalidInput)
	}
	return nil
}

// SetPairs applies comma-separated key=value assignments.
func (c *Config) SetPairs(pairs string) error {
	for _, pair := range strings.Split(pairs, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed assignment %q: %w", pair, loom.ErrInvalidInput)
		}
		if err := c.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("setting %s: %q is not a boolean: %w", key, value, loom.ErrInvalidInput)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("setting %s: %q is not an integer: %w", key, value, loom.ErrInvalidInput)
	}
	*dst = v
	return nil
}

func setFloat(dst *float32, key, value string) error {
	v, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fmt.Errorf("setting %s: %q is not a number: %w", key, value, loom.ErrInvalidInput)
	}
	*dst = float32(v)
	return nil
}
