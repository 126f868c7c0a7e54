package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfig is the on-disk shape of ~/.synth/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one named connection configuration.
type Profile struct {
	Host   string `yaml:"host,omitempty"`
	APIKey string `yaml:"api-key,omitempty"`
	Token  string `yaml:"token,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// ActiveProfile returns the profile selected by the override flag, falling
// back to current-profile. Unknown names yield an empty profile.
func (c *UserConfig) ActiveProfile(override string) Profile {
	name := override
	if name == "" {
		name = c.CurrentProfile
	}
	return c.Profiles[name]
}

// ConfigDir returns the path to ~/.synth/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".synth")
}

// ConfigPath returns the path to ~/.synth/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.synth/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &UserConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

// SaveUserConfig writes ~/.synth/config.yaml. The file holds credentials,
// so both the directory and the file keep owner-only permissions.
func SaveUserConfig(cfg *UserConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

// saveToActiveProfile applies mutate to the active profile and persists the
// config, creating it when absent. It returns the mutated profile's name.
func saveToActiveProfile(mutate func(p *Profile)) (string, error) {
	cfg := loadOrInitConfig()
	name := cfg.CurrentProfile
	if name == "" {
		name = "default"
		cfg.CurrentProfile = name
	}
	p := cfg.Profiles[name]
	mutate(&p)
	cfg.Profiles[name] = p
	if err := SaveUserConfig(cfg); err != nil {
		return "", err
	}
	return name, nil
}
