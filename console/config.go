package console

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	match "github.com/openclob/openclob"
)

// Config holds the console host settings. Values loaded from the YAML
// file can be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Book struct {
		Instrument    string `yaml:"instrument"`
		CommandBuffer int    `yaml:"command_buffer"`
		DepthLimit    uint32 `yaml:"depth_limit"`
	} `yaml:"book"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "openclob"
	cfg.App.Version = match.EngineVersion
	cfg.Book.Instrument = "DEFAULT"
	cfg.Book.CommandBuffer = 1024
	cfg.Book.DepthLimit = 20
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads and parses the configuration file, applies environment
// variable overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Book.Instrument == "" {
		return fmt.Errorf("instrument must not be empty")
	}
	if c.Book.CommandBuffer <= 0 {
		return fmt.Errorf("command buffer must be positive")
	}
	if c.Book.DepthLimit == 0 {
		return fmt.Errorf("depth limit must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	return nil
}

// overrideWithEnv lets environment variables take precedence over the
// config file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("OPENCLOB_INSTRUMENT"); v != "" {
		cfg.Book.Instrument = v
	}
	if v := os.Getenv("OPENCLOB_COMMAND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Book.CommandBuffer = n
		}
	}
	if v := os.Getenv("OPENCLOB_DEPTH_LIMIT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Book.DepthLimit = uint32(n)
		}
	}
	if v := os.Getenv("OPENCLOB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
