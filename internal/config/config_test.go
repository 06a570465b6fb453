package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	var want Config
	want.SetDefaults()
	assert.Equal(t, &want, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 7272, cfg.Viewer.Port)
	assert.Equal(t, 60, cfg.Gantt.Width)
	assert.Zero(t, cfg.Engine.Tolerance)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "critpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  tolerance: 0.01
logging:
  level: debug
  format: console
viewer:
  port: 9000
gantt:
  width: 40
  title: Launch
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, cfg.Engine.Tolerance, 1e-12)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 9000, cfg.Viewer.Port)
	assert.Equal(t, "127.0.0.1", cfg.Viewer.Host)
	assert.Equal(t, 40, cfg.Gantt.Width)
	assert.Equal(t, "Launch", cfg.Gantt.Title)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "critpath.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"viewer":{"port":8081}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Viewer.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "critpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewer:\n  port: 9000\n"), 0o644))
	t.Setenv("CRITPATH_VIEWER__PORT", "9100")
	t.Setenv("CRITPATH_LOGGING__LEVEL", "warn")
	t.Setenv("CRITPATH_ENGINE__TOLERANCE", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Viewer.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.InDelta(t, 0.5, cfg.Engine.Tolerance, 1e-12)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("critpath.toml")
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative tolerance", func(c *Config) { c.Engine.Tolerance = -1 }, "engine.tolerance"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad port", func(c *Config) { c.Viewer.Port = 70000 }, "viewer.port"},
		{"narrow gantt", func(c *Config) { c.Gantt.Width = 3 }, "gantt.width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.SetDefaults()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
	var cfg Config
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
}
