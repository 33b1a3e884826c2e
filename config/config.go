// Package config loads the dialogue runner configuration from YAML, then
// applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// AssetsDir is the root every asset path is resolved against.
	AssetsDir string `yaml:"assets_dir" env:"YARN_ASSETS_DIR"`
	// Script is the compiled program to load, relative to AssetsDir.
	Script    string `yaml:"script" env:"YARN_SCRIPT"`
	StartNode string `yaml:"start_node" env:"YARN_START_NODE"`
	Locale    string `yaml:"locale" env:"YARN_LOCALE"`

	InputHandlers bool   `yaml:"input_handlers" env:"YARN_INPUT_HANDLERS"`
	HotReload     bool   `yaml:"hot_reload" env:"YARN_HOT_RELOAD"`
	LogLevel      string `yaml:"log_level" env:"YARN_LOG_LEVEL"`

	Window WindowConfig `yaml:"window" envPrefix:"YARN_WINDOW_"`

	// Commands maps yarn command names to tengo scripts under AssetsDir.
	Commands map[string]string `yaml:"commands"`
}

type WindowConfig struct {
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`
	Title  string `yaml:"title" env:"TITLE"`
}

func Default() Config {
	return Config{
		AssetsDir:     "content",
		StartNode:     "Start",
		Locale:        "en",
		InputHandlers: true,
		LogLevel:      "info",
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "yarn",
		},
	}
}

// Load reads path (if non-empty and present) over the defaults, then applies
// YARN_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.StartNode == "" {
		return errors.New("config: start_node must not be empty")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	for name, script := range c.Commands {
		if name == "" || script == "" {
			return fmt.Errorf("config: command %q has no script", name)
		}
	}
	return nil
}
