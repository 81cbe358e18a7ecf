package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/sunnyysetia/patrolsim/core/metrics"
	"github.com/sunnyysetia/patrolsim/core/patrol"
	"github.com/sunnyysetia/patrolsim/infra/mqtt"
	"github.com/sunnyysetia/patrolsim/infra/store"
)

// Config is the process-wide configuration, fixed at startup.
type Config struct {
	HTTP    HTTPConfig         `json:"http"`
	Fleet   patrol.Config      `json:"fleet"`
	Store   store.Config       `json:"store"`
	MQTT    mqtt.Config        `json:"mqtt"`
	Metrics coremetrics.Config `json:"metrics"`
}

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Load reads the configuration file (yaml or json by extension) and applies
// PATROL_ environment overrides, e.g. PATROL_HTTP__ADDR=:9000.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("PATROL_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "patrol_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.HTTP.SetDefaults()
	c.Fleet.SetDefaults()
	c.Store.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Fleet.Validate(); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}
