package server

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/driftaudio/driftpad/pkg/engine"
)

// Config is the serving configuration, usually loaded from a yaml file.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// PolicyFile persists the texture policy across sessions and
	// restarts. Empty disables persistence.
	PolicyFile string `yaml:"policy_file"`

	// Engine configures the generator behind every session. Zero
	// fields take engine defaults.
	Engine engine.Config `yaml:"engine"`
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8977"
	}
}

// LoadConfig reads a Config from a yaml file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("server: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("server: parse config %s: %w", path, err)
	}
	return cfg, nil
}
