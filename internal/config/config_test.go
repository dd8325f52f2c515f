package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"negative toast", func(c *Config) { c.UI.ToastDuration = -time.Second }, "ui.toast_duration"},
		{"unknown markdown style", func(c *Config) { c.UI.MarkdownStyle = "neon" }, "ui.markdown_style"},
		{"negative latency", func(c *Config) { c.Demo.Latency = -1 }, "demo.latency"},
		{"negative cache ttl", func(c *Config) { c.Demo.CacheTTL = -1 }, "demo.cache_ttl"},
		{"negative fail rate", func(c *Config) { c.Demo.FailRate = -2 }, "demo.fail_rate"},
		{"sample rate too high", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"file exporter without path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "file"
			c.Tracing.FilePath = ""
		}, "tracing.file_path"},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "tracing.otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalid)
			require.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestValidateTracing_DisabledSkipsPathChecks(t *testing.T) {
	err := ValidateTracing(Defaults().Tracing)
	require.NoError(t, err)

	tc := Defaults().Tracing
	tc.FilePath = ""
	require.NoError(t, ValidateTracing(tc))
}

func TestWriteDefaultConfig_RoundTripsThroughViper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# datachannel configuration")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.Contains(t, raw, "demo")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_OverridesAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
demo:
  latency: 50ms
  fail_rate: 1
ui:
  markdown_style: light
`), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 50*time.Millisecond, cfg.Demo.Latency)
	require.Equal(t, 1, cfg.Demo.FailRate)
	require.Equal(t, MarkdownLight, cfg.UI.MarkdownStyle)
	require.Equal(t, Defaults().UI.ToastDuration, cfg.UI.ToastDuration, "unset keys keep defaults")

	bad := viper.New()
	SetDefaults(bad)
	bad.Set("demo.fail_rate", -1)
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	path, found := ResolvePath("")
	require.False(t, found)
	require.Equal(t, LocalConfigPath, path)

	user := UserConfigPath()
	require.NoError(t, Save(user, Defaults()))
	path, found = ResolvePath("")
	require.True(t, found)
	require.Equal(t, user, path)

	require.NoError(t, Save(LocalConfigPath, Defaults()))
	path, found = ResolvePath("")
	require.True(t, found)
	require.Equal(t, LocalConfigPath, path, "local config wins over user config")

	path, found = ResolvePath(filepath.Join(dir, "missing.yaml"))
	require.False(t, found)
	require.Equal(t, filepath.Join(dir, "missing.yaml"), path)
}
