package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
	"github.com/fyerfyer/gate-synth/pkg/editor"
	"github.com/fyerfyer/gate-synth/pkg/utils"
)

// Config is the gatesynth configuration file
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Editor EditorConfig `yaml:"editor"`
	Server ServerConfig `yaml:"server"`
}

// LogConfig selects the log level and destination
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Empty means stderr
}

// EditorConfig tunes editing behavior
type EditorConfig struct {
	ArityPolicy  string  `yaml:"arity_policy"`  // clamp or reject
	SnapDistance float64 `yaml:"snap_distance"` // Nearest-slot tolerance
}

// ServerConfig configures the HTTP adapter
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Editor: EditorConfig{ArityPolicy: "clamp", SnapDistance: editor.DefaultSnapDistance},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config file over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields
func (c Config) Validate() error {
	if _, err := utils.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := circuit.ParseArityPolicy(c.Editor.ArityPolicy); err != nil {
		return err
	}
	if c.Editor.SnapDistance < 0 {
		return fmt.Errorf("snap_distance must not be negative, got %g", c.Editor.SnapDistance)
	}
	return nil
}

// LogLevel returns the parsed log level
func (c Config) LogLevel() slog.Level {
	level, _ := utils.ParseLogLevel(c.Log.Level)
	return level
}

// EditorOptions converts the editor section into editor options
func (c Config) EditorOptions(logger *slog.Logger) []editor.Option {
	policy, _ := circuit.ParseArityPolicy(c.Editor.ArityPolicy)
	return []editor.Option{
		editor.WithLogger(logger),
		editor.WithSnapDistance(c.Editor.SnapDistance),
		editor.WithCircuitOptions(circuit.WithArityPolicy(policy)),
	}
}
