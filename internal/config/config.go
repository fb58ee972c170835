// Package config holds the viper configuration singleton for the quarry CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var v *viper.Viper

// ConfigFileName is the per-project configuration file discovered by walking
// up from the working directory.
const ConfigFileName = "quarry.yaml"

// Initialize sets up the viper configuration singleton. Should be called
// once at application startup, before any command runs.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFile := ""
	// Walk up from CWD so commands work from project subdirectories.
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; dir = filepath.Dir(dir) {
			candidate := filepath.Join(dir, ConfigFileName)
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
			if dir == filepath.Dir(dir) {
				break
			}
		}
	}

	// Environment variables take precedence over the config file:
	// QUARRY_APP_NAME, QUARRY_DEBUG, QUARRY_DEBUG_LOG_FILE, ...
	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("app-name", "")
	v.SetDefault("output-dir", "")
	v.SetDefault("debug", false)
	v.SetDefault("debug-log-file", "")
	v.SetDefault("watch-debounce", 500*time.Millisecond)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configFile, err)
		}
	}
	return nil
}

func ensure() *viper.Viper {
	if v == nil {
		_ = Initialize()
	}
	return v
}

// GetString returns a string config value.
func GetString(key string) string { return ensure().GetString(key) }

// GetBool returns a boolean config value.
func GetBool(key string) bool { return ensure().GetBool(key) }

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration { return ensure().GetDuration(key) }

// defaults mirrors the settings written into a freshly scaffolded project.
type defaults struct {
	AppName      string `yaml:"app-name,omitempty"`
	OutputDir    string `yaml:"output-dir,omitempty"`
	Debug        bool   `yaml:"debug"`
	DebugLogFile string `yaml:"debug-log-file,omitempty"`
}

// WriteDefault writes the default project configuration file used by the
// scaffolder.
func WriteDefault(path, appName string) error {
	data, err := yaml.Marshal(defaults{AppName: appName})
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	header := []byte("# quarry project configuration. Values can be overridden with QUARRY_*\n# environment variables.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
