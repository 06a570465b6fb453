// Package config loads critpath settings from an optional file and the
// environment.
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
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes environment overrides. Nested keys are joined with
// "__", so CRITPATH_VIEWER__PORT sets viewer.port.
const EnvPrefix = "CRITPATH_"

type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Logging LoggingConfig `json:"logging"`
	Viewer  ViewerConfig  `json:"viewer"`
	Gantt   GanttConfig   `json:"gantt"`
}

type EngineConfig struct {
	Tolerance float64 `json:"tolerance"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or console
}

type ViewerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type GanttConfig struct {
	Width int    `json:"width"` // text chart bar columns
	Title string `json:"title"`
}

// Load reads path (YAML or JSON, skipped when empty), applies environment
// overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Viewer.SetDefaults()
	c.Gantt.SetDefaults()
}

func (c *Config) Validate() error {
	if c.Engine.Tolerance < 0 {
		return fmt.Errorf("engine.tolerance must not be negative (got %g)", c.Engine.Tolerance)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Viewer.Port < 1 || c.Viewer.Port > 65535 {
		return fmt.Errorf("viewer.port must be between 1 and 65535 (got %d)", c.Viewer.Port)
	}
	if c.Gantt.Width < 10 {
		return fmt.Errorf("gantt.width must be at least 10 (got %d)", c.Gantt.Width)
	}
	return nil
}

func (l *LoggingConfig) SetDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
}

func (l LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch l.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("logging.format must be json or console (got %q)", l.Format)
	}
}

func (v *ViewerConfig) SetDefaults() {
	if v.Host == "" {
		v.Host = "127.0.0.1"
	}
	if v.Port == 0 {
		v.Port = 7272
	}
}

func (g *GanttConfig) SetDefaults() {
	if g.Width == 0 {
		g.Width = 60
	}
}
