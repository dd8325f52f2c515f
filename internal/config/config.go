// Package config provides configuration types, defaults, and validation for
// datachannel.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/tracing"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration options for datachannel.
type Config struct {
	Debug   bool           `mapstructure:"debug" yaml:"debug"`
	LogPath string         `mapstructure:"log_path" yaml:"log_path"`
	UI      UIConfig       `mapstructure:"ui" yaml:"ui"`
	Demo    DemoConfig     `mapstructure:"demo" yaml:"demo"`
	Tracing tracing.Config `mapstructure:"tracing" yaml:"tracing"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ToastDuration time.Duration `mapstructure:"toast_duration" yaml:"toast_duration"`
	MarkdownStyle string        `mapstructure:"markdown_style" yaml:"markdown_style"` // "dark" (default), "light" or "notty"
	DebugFooter   bool          `mapstructure:"debug_footer" yaml:"debug_footer"`     // show active event names
}

// DemoConfig tunes the simulated notes backend.
type DemoConfig struct {
	Latency  time.Duration `mapstructure:"latency" yaml:"latency"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// FailRate makes every Nth save fail; 0 disables failures.
	FailRate int      `mapstructure:"fail_rate" yaml:"fail_rate"`
	Seed     []string `mapstructure:"seed" yaml:"seed"`
}

// Markdown styles accepted by ui.markdown_style.
const (
	MarkdownDark  = "dark"
	MarkdownLight = "light"
	MarkdownNoTTY = "notty"
)

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		Debug:   false,
		LogPath: "debug.log",
		UI: UIConfig{
			ToastDuration: 3 * time.Second,
			MarkdownStyle: MarkdownDark,
			DebugFooter:   true,
		},
		Demo: DemoConfig{
			Latency:  600 * time.Millisecond,
			CacheTTL: 30 * time.Second,
			FailRate: 3,
			Seed:     []string{"Buy milk", "Write design notes"},
		},
		Tracing: tc,
	}
}

// DefaultTracesFilePath returns ~/.config/datachannel/traces/traces.jsonl, or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "datachannel", "traces", "traces.jsonl")
}

// SetDefaults registers every default with v so unset keys unmarshal to
// Defaults().
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("ui.toast_duration", d.UI.ToastDuration)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.debug_footer", d.UI.DebugFooter)
	v.SetDefault("demo.latency", d.Demo.Latency)
	v.SetDefault("demo.cache_ttl", d.Demo.CacheTTL)
	v.SetDefault("demo.fail_rate", d.Demo.FailRate)
	v.SetDefault("demo.seed", d.Demo.Seed)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	log.Debug(log.CatConfig, "config loaded", "file", v.ConfigFileUsed())
	return cfg, nil
}

// Validate checks cfg and names the offending key on failure.
func Validate(cfg Config) error {
	if cfg.UI.ToastDuration < 0 {
		return fmt.Errorf("%w: ui.toast_duration must not be negative, got %v", ErrInvalid, cfg.UI.ToastDuration)
	}

	switch cfg.UI.MarkdownStyle {
	case "", MarkdownDark, MarkdownLight, MarkdownNoTTY:
	default:
		return fmt.Errorf("%w: ui.markdown_style must be %q, %q or %q, got %q",
			ErrInvalid, MarkdownDark, MarkdownLight, MarkdownNoTTY, cfg.UI.MarkdownStyle)
	}

	if cfg.Demo.Latency < 0 {
		return fmt.Errorf("%w: demo.latency must not be negative, got %v", ErrInvalid, cfg.Demo.Latency)
	}
	if cfg.Demo.CacheTTL < 0 {
		return fmt.Errorf("%w: demo.cache_ttl must not be negative, got %v", ErrInvalid, cfg.Demo.CacheTTL)
	}
	if cfg.Demo.FailRate < 0 {
		return fmt.Errorf("%w: demo.fail_rate must not be negative, got %d", ErrInvalid, cfg.Demo.FailRate)
	}

	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration. Empty values use defaults.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("%w: tracing.sample_rate must be between 0.0 and 1.0, got %v", ErrInvalid, tc.SampleRate)
	}

	switch tc.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("%w: tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", ErrInvalid, tc.Exporter)
	}

	if !tc.Enabled {
		return nil
	}
	if tc.Exporter == "file" && tc.FilePath == "" {
		return fmt.Errorf("%w: tracing.file_path is required when exporter is \"file\"", ErrInvalid)
	}
	if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
		return fmt.Errorf("%w: tracing.otlp_endpoint is required when exporter is \"otlp\"", ErrInvalid)
	}
	return nil
}
