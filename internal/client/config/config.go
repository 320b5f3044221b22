package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the PennyPlan CLI.
//
// ServerURL is the API root including the prefix, e.g.
// "http://localhost:5000/api/v1". Token, when set, is used by commands that
// need a bearer token and none was given on the command line.
type Config struct {
	ServerURL string        `env:"PENNYPLAN_API_URL"`
	Timeout   time.Duration `env:"PENNYPLAN_TIMEOUT"`
	Token     string        `env:"PENNYPLAN_TOKEN"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000/api/v1"
	c.Timeout = 10 * time.Second
}

// LoadConfig reads configuration for the current process.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load constructs a Config from defaults, JSON, environment and args. Later
// sources take precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
