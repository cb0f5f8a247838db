// Package settings manages persistent user preferences for the edacore CLI,
// layered beneath per-run config-file and flag overrides (spec §6, §10.4).
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultConfigDir is the default directory edacore looks in for a
// config.yaml override when Settings.ConfigDir is empty.
const DefaultConfigDir = "/etc/edacore"

// Settings holds persistent user preferences.
type Settings struct {
	// ConfigDir overrides the default configuration directory.
	ConfigDir string `json:"config_dir,omitempty"`

	// DefaultOutDir is the directory layout/routes documents are written
	// to when -l/-r are not given a path.
	DefaultOutDir string `json:"default_out_dir,omitempty"`

	// DefaultSASteps is the default -t override (simulated-annealing steps
	// per outer iteration).
	DefaultSASteps int `json:"default_sa_steps,omitempty"`

	// DefaultInitTemp is the default -i override (starting temperature).
	DefaultInitTemp float64 `json:"default_init_temp,omitempty"`

	// DefaultMinMos is the default -n override (inlining threshold).
	DefaultMinMos int `json:"default_min_mos,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/edacore_settings.json"
	}
	return filepath.Join(home, ".edacore", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file returns
// empty settings, not an error.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigDir returns the configuration directory with a fallback.
func (s *Settings) GetConfigDir() string {
	if s.ConfigDir != "" {
		return s.ConfigDir
	}
	return DefaultConfigDir
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
