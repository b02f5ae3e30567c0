// Package config loads and persists tracker configuration from
// ~/.courtside/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Remote session store connection
	Remote RemoteConfig `toml:"remote"`

	// Local database and snapshot settings
	Storage StorageConfig `toml:"storage"`

	// Coaching-policy constants the aggregator applies
	Policy PolicyConfig `toml:"policy"`

	// Tracker behavior
	Tracker TrackerConfig `toml:"tracker"`

	// Metrics endpoint
	Metrics MetricsConfig `toml:"metrics"`
}

// RemoteConfig contains remote session store settings.
type RemoteConfig struct {
	BaseURL     string `toml:"base_url"`      // e.g. "https://stats.example.com/api"
	Timeout     string `toml:"timeout"`       // per-request timeout (e.g. "10s")
	RetryPerSec int    `toml:"retry_per_sec"` // outbox retry rate limit
	FeedEnabled bool   `toml:"feed_enabled"`  // subscribe to the websocket session feed
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	DBPath           string `toml:"db_path"`           // sqlite database path, defaults under the config dir
	EncryptSnapshots bool   `toml:"encrypt_snapshots"` // encrypt local snapshot payloads
	SnapshotPassEnv  string `toml:"snapshot_pass_env"` // env var holding the snapshot passphrase
}

// PolicyConfig contains the stat-policy constants that are coaching
// convention rather than rulebook. Changing these changes derived stats.
type PolicyConfig struct {
	StealPlusMinus    int `toml:"steal_plus_minus"`    // plus-minus credit on a steal
	TurnoverPlusMinus int `toml:"turnover_plus_minus"` // plus-minus credit on a turnover (negative)
}

// TrackerConfig contains engine behavior settings.
type TrackerConfig struct {
	UndoDepth          int    `toml:"undo_depth"`          // bounded action history length
	CheckpointInterval string `toml:"checkpoint_interval"` // local snapshot interval (e.g. "30s")
	SnapshotDebounce   string `toml:"snapshot_debounce"`   // debounce after recorded events (e.g. "2s")
	Quarters           int    `toml:"quarters"`            // regulation periods
	TimeoutsPerTeam    int    `toml:"timeouts_per_team"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"` // e.g. "127.0.0.1:9155"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:     "http://localhost:8787",
			Timeout:     "10s",
			RetryPerSec: 2,
			FeedEnabled: false,
		},
		Storage: StorageConfig{
			DBPath:           "",
			EncryptSnapshots: false,
			SnapshotPassEnv:  "COURTSIDE_SNAPSHOT_PASS",
		},
		Policy: PolicyConfig{
			StealPlusMinus:    2,
			TurnoverPlusMinus: -2,
		},
		Tracker: TrackerConfig{
			UndoDepth:          50,
			CheckpointInterval: "30s",
			SnapshotDebounce:   "2s",
			Quarters:           4,
			TimeoutsPerTeam:    4,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9155",
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".courtside")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return configDir, nil
}

// Path returns the path to the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns the default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Remote.Timeout); err != nil {
		return fmt.Errorf("invalid remote timeout %q: %w", c.Remote.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Tracker.CheckpointInterval); err != nil {
		return fmt.Errorf("invalid checkpoint interval %q: %w", c.Tracker.CheckpointInterval, err)
	}
	if _, err := time.ParseDuration(c.Tracker.SnapshotDebounce); err != nil {
		return fmt.Errorf("invalid snapshot debounce %q: %w", c.Tracker.SnapshotDebounce, err)
	}
	if c.Tracker.UndoDepth <= 0 {
		return fmt.Errorf("undo depth must be positive: %d", c.Tracker.UndoDepth)
	}
	if c.Tracker.Quarters < 1 {
		return fmt.Errorf("quarters must be at least 1: %d", c.Tracker.Quarters)
	}
	if c.Remote.RetryPerSec <= 0 {
		return fmt.Errorf("retry rate must be positive: %d", c.Remote.RetryPerSec)
	}
	return nil
}

// RemoteTimeout returns the remote request timeout as a duration.
func (c *Config) RemoteTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Remote.Timeout)
}

// CheckpointInterval returns the snapshot interval as a duration.
func (c *Config) CheckpointInterval() (time.Duration, error) {
	return time.ParseDuration(c.Tracker.CheckpointInterval)
}

// SnapshotDebounce returns the post-event debounce as a duration.
func (c *Config) SnapshotDebounce() (time.Duration, error) {
	return time.ParseDuration(c.Tracker.SnapshotDebounce)
}
