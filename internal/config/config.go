package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"typin/internal/record"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "typin.yaml"

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Output struct {
		StubsDir string `yaml:"stubs_dir"` // relative to the project root
		Style    string `yaml:"style"`     // docstring style, google or sphinx
	} `yaml:"output"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
	Trace struct {
		// File prefixes of generated modules that are allowed to redefine class bases.
		SyntheticPrefixes []string `yaml:"synthetic_prefixes"`
	} `yaml:"trace"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Output.StubsDir = "stubs"
	cfg.Output.Style = string(record.StyleGoogle)
	cfg.Log.Level = "info"
	cfg.Storage.DB = ".typin/runs.db"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	overrides := []struct {
		env string
		dst *string
	}{
		{"TYPIN_ROOT", &cfg.Project.Root},
		{"TYPIN_STUBS_DIR", &cfg.Output.StubsDir},
		{"TYPIN_STYLE", &cfg.Output.Style},
		{"TYPIN_LOG_LEVEL", &cfg.Log.Level},
		{"TYPIN_DB", &cfg.Storage.DB},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	if _, err := record.ParseStyle(strings.ToLower(c.Output.Style)); err != nil {
		return fmt.Errorf("config: output.style: %w", err)
	}
	c.Output.Style = strings.ToLower(c.Output.Style)
	if c.Output.StubsDir == "" {
		return errors.New("config: output.stubs_dir must not be empty")
	}
	return nil
}

// DocStyle is the validated docstring style.
func (c *Config) DocStyle() record.Style {
	return record.Style(c.Output.Style)
}
