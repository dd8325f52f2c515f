package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/datachannel/internal/log"
)

// LocalConfigPath is checked before the user config directory.
const LocalConfigPath = ".datachannel/config.yaml"

const header = `# datachannel configuration
#
# Durations use Go syntax (500ms, 3s, 1m).
# demo.fail_rate: every Nth save fails (0 never fails).
# tracing.exporter: none, file, stdout or otlp.

`

// UserConfigPath returns ~/.config/datachannel/config.yaml, or an empty string
// if the home directory is unavailable.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "datachannel", "config.yaml")
}

// ResolvePath picks the config file to read. An explicit path always wins;
// otherwise the local file, then the user file. found is false when no
// candidate exists, in which case path is where a default should be written.
func ResolvePath(explicit string) (path string, found bool) {
	if explicit != "" {
		_, err := os.Stat(explicit)
		return explicit, err == nil
	}

	if _, err := os.Stat(LocalConfigPath); err == nil {
		return LocalConfigPath, true
	}
	if user := UserConfigPath(); user != "" {
		if _, err := os.Stat(user); err == nil {
			return user, true
		}
	}
	return LocalConfigPath, false
}

// Marshal renders cfg as commented YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WriteDefaultConfig creates a config file at path with default settings.
func WriteDefaultConfig(path string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", path)
	if err := Save(path, Defaults()); err != nil {
		return err
	}
	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}
