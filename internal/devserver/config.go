// Package devserver implements the fresco watcher daemon: it watches
// template sources, recompiles them on change and broadcasts updates
// to connected applications.
package devserver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fresco/internal/logging"
)

// Duration decodes YAML strings like "100ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the daemon configuration, loaded from YAML with defaults
// applied for everything left unset.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Roots are the directories watched for template sources.
	Roots []string `yaml:"roots"`
	// Extensions select which files count as template sources.
	Extensions []string `yaml:"extensions"`
	// Debounce coalesces rapid saves of the same file.
	Debounce Duration      `yaml:"debounce"`
	LogLevel string        `yaml:"log_level"`
	Compile  CompileConfig `yaml:"compile"`
}

// CompileConfig describes how changed sources become templates.
type CompileConfig struct {
	// Command is the compiler argv. Arguments may reference the
	// changed file as {path}; without a reference the path is
	// appended. An empty command delivers file contents as-is.
	Command []string `yaml:"command"`
	Timeout Duration `yaml:"timeout"`
	// Workers bounds concurrent compiles.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Listen:     "127.0.0.1:8737",
		Extensions: []string{".fsc"},
		Debounce:   Duration(100 * time.Millisecond),
		LogLevel:   "info",
		Compile: CompileConfig{
			Timeout: Duration(30 * time.Second),
			Workers: 4,
		},
	}
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	return DecodeConfig(data)
}

// DecodeConfig decodes YAML over the defaults and validates the
// result. Unknown keys are an error.
func DecodeConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("config: listen address is required")
	}
	if len(c.Roots) == 0 {
		return errors.New("config: at least one watch root is required")
	}
	for _, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return errors.New("config: watch roots must not be empty")
		}
	}
	if len(c.Extensions) == 0 {
		return errors.New("config: at least one extension is required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: extension %q must start with a dot", ext)
		}
	}
	if c.Debounce.Std() <= 0 {
		return errors.New("config: debounce must be positive")
	}
	if c.Compile.Timeout.Std() <= 0 {
		return errors.New("config: compile timeout must be positive")
	}
	if c.Compile.Workers <= 0 {
		return errors.New("config: compile workers must be positive")
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

func (c Config) matchesExtension(path string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
