package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileNames are the config files looked for, in order, in each
// directory from the working directory up to the root.
var FileNames = []string{"akushu.yaml", "akushu.yml", "akushu.json", "akushu.toml"}

var ErrNotFound = errors.New("config file not found")

const (
	DefaultInputPath     = "input/input.kif"
	DefaultOutputDir     = "output"
	DefaultLogLevel      = "info"
	DefaultWatchDebounce = 500 * time.Millisecond
)

type Config struct {
	InputPath     string `yaml:"input_path" toml:"input_path"`
	OutputDir     string `yaml:"output_dir" toml:"output_dir"`
	LogLevel      string `yaml:"log_level" toml:"log_level"`
	WatchDebounce string `yaml:"watch_debounce" toml:"watch_debounce"`
}

func Default() Config {
	return Config{
		InputPath:     DefaultInputPath,
		OutputDir:     DefaultOutputDir,
		LogLevel:      DefaultLogLevel,
		WatchDebounce: DefaultWatchDebounce.String(),
	}
}

// FindConfigPath walks up from start and returns the first config file
// found together with its directory.
func FindConfigPath(start string) (string, string, error) {
	dir := start
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("%w from %s", ErrNotFound, start)
}

// LoadConfig decodes one config file over the defaults. Relative paths in
// the file are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		// JSON is valid YAML.
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.InputPath = resolve(base, cfg.InputPath)
	cfg.OutputDir = resolve(base, cfg.OutputDir)
	return cfg, nil
}

// Load finds and loads the config file above start, falling back to the
// defaults when there is none, then applies the environment overrides.
func Load(start string) (Config, string, error) {
	cfg := Default()
	path, _, err := FindConfigPath(start)
	switch {
	case errors.Is(err, ErrNotFound):
		path = ""
	case err != nil:
		return Config{}, "", err
	default:
		if cfg, err = LoadConfig(path); err != nil {
			return Config{}, "", err
		}
	}
	cfg.ApplyEnv()
	return cfg, path, cfg.Validate()
}

// ApplyEnv overrides fields from AKUSHU_INPUT, AKUSHU_OUTPUT and
// AKUSHU_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("AKUSHU_INPUT"); v != "" {
		c.InputPath = v
	}
	if v := os.Getenv("AKUSHU_OUTPUT"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("AKUSHU_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input_path is empty")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if _, err := c.Debounce(); err != nil {
		return err
	}
	return nil
}

// Debounce parses watch_debounce; empty means the default.
func (c Config) Debounce() (time.Duration, error) {
	if c.WatchDebounce == "" {
		return DefaultWatchDebounce, nil
	}
	d, err := time.ParseDuration(c.WatchDebounce)
	if err != nil {
		return 0, fmt.Errorf("watch_debounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch_debounce: negative duration %s", d)
	}
	return d, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
