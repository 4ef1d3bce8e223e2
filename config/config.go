// Package config handles the persisted capture defaults used by the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
)

const (
	appName        = "audiotap"
	configFileName = "config.json"
)

// Profile is one saved set of capture options.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Source is "system" or "microphone".
	Source string `json:"source"`

	SampleRate      float64 `json:"sample_rate,omitempty"`
	ChunkDurationMs int     `json:"chunk_duration_ms,omitempty"`
	Stereo          bool    `json:"stereo,omitempty"`

	// DeviceID selects a microphone; empty means the default input.
	DeviceID string  `json:"device_id,omitempty"`
	Gain     float64 `json:"gain,omitempty"`

	// Encode is the recording output format: "wav" or "opus".
	Encode string `json:"encode,omitempty"`
}

// Config represents the persisted CLI configuration.
type Config struct {
	ActiveProfile string    `json:"active_profile,omitempty"`
	Profiles      []Profile `json:"profiles"`
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ensureIDs()
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// AddProfile validates and adds a new profile, then saves.
func (c *Config) AddProfile(p Profile) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	applyDefaults(&p)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if slices.ContainsFunc(c.Profiles, func(x Profile) bool { return x.Name == p.Name }) {
		return fmt.Errorf("profile already exists: %s", p.Name)
	}

	c.Profiles = append(c.Profiles, p)
	if c.ActiveProfile == "" {
		c.ActiveProfile = p.Name
	}
	return c.Save()
}

// RemoveProfile removes a profile by name and saves.
func (c *Config) RemoveProfile(name string) error {
	idx := slices.IndexFunc(c.Profiles, func(p Profile) bool {
		return p.Name == name
	})
	if idx == -1 {
		return fmt.Errorf("profile not found: %s", name)
	}

	c.Profiles = slices.Delete(c.Profiles, idx, idx+1)
	if c.ActiveProfile == name {
		c.ActiveProfile = ""
		if len(c.Profiles) > 0 {
			c.ActiveProfile = c.Profiles[0].Name
		}
	}
	return c.Save()
}

// Profile returns the named profile, falling back to the active profile
// when name is empty.
func (c *Config) Profile(name string) (*Profile, bool) {
	if name == "" {
		name = c.ActiveProfile
	}
	idx := slices.IndexFunc(c.Profiles, func(p Profile) bool {
		return p.Name == name
	})
	if idx == -1 {
		return nil, false
	}
	p := c.Profiles[idx]
	return &p, true
}

// ensureIDs assigns IDs to profiles from hand-edited config files.
func (c *Config) ensureIDs() {
	for i := range c.Profiles {
		if c.Profiles[i].ID == "" {
			c.Profiles[i].ID = uuid.NewString()
		}
	}
}

func validateProfile(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	switch p.Source {
	case "system", "microphone":
	default:
		return fmt.Errorf("invalid source %q: must be %q or %q", p.Source, "system", "microphone")
	}
	switch p.Encode {
	case "", "wav", "opus":
	default:
		return fmt.Errorf("invalid encode %q: must be %q or %q", p.Encode, "wav", "opus")
	}
	return nil
}

func applyDefaults(p *Profile) {
	if p.ChunkDurationMs == 0 {
		p.ChunkDurationMs = 200
	}
	if p.Source == "microphone" && p.Gain == 0 {
		p.Gain = 1.0
	}
	if p.Encode == "" {
		p.Encode = "wav"
	}
}

func defaultConfig() *Config {
	system := Profile{
		ID:     uuid.NewString(),
		Name:   "system",
		Source: "system",
	}
	applyDefaults(&system)

	mic := Profile{
		ID:     uuid.NewString(),
		Name:   "microphone",
		Source: "microphone",
	}
	applyDefaults(&mic)

	return &Config{
		ActiveProfile: "system",
		Profiles:      []Profile{system, mic},
	}
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, configFileName), nil
}
