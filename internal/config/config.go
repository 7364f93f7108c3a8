// Package config loads and saves user settings from config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Cache      CacheConfig      `json:"cache"`
	Resolve    ResolveConfig    `json:"resolve"`
	Thumbnails ThumbnailsConfig `json:"thumbnails"`
	Watcher    WatcherConfig    `json:"watcher"`
	Logging    LoggingConfig    `json:"logging"`
}

// CacheConfig holds persistent-tier settings
type CacheConfig struct {
	Backend    string `json:"backend"`    // "none" | "memory" | "snapshot" | "sqlite"
	Dir        string `json:"dir"`        // Data directory; empty means ~/.cache/prism
	ExpireDays int    `json:"expireDays"` // Snapshots unvisited this long are swept
	SweepHours int    `json:"sweepHours"` // Hours between sweeps; 0 disables
	Persist    bool   `json:"persist"`    // Persist every visited folder by default
}

// ResolveConfig holds resolution settings
type ResolveConfig struct {
	VisitBudget int `json:"visitBudget"` // Subfolders searched per folder thumbnail
	BatchSize   int `json:"batchSize"`   // Entries resolved per batch pull
}

// ThumbnailsConfig holds thumbnail generation settings
type ThumbnailsConfig struct {
	MaxPixels    int `json:"maxPixels"`
	CacheEntries int `json:"cacheEntries"`
}

// WatcherConfig holds active-folder watch settings
type WatcherConfig struct {
	Enabled    bool `json:"enabled"`
	DebounceMs int  `json:"debounceMs"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `json:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `json:"format"` // "console" | "json"
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:    "snapshot",
			ExpireDays: 30,
			SweepHours: 12,
		},
		Resolve: ResolveConfig{
			VisitBudget: 10,
			BatchSize:   5,
		},
		Thumbnails: ThumbnailsConfig{
			MaxPixels:    400,
			CacheEntries: 200,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigPath returns the config file path: ~/.config/prism/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "prism", "config.json")
}

// DataDir returns the default data directory for snapshots and the
// sqlite database: ~/.cache/prism
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "prism")
}

// Load reads the configuration from the default config file path.
// If the file doesn't exist, creates it with defaults.
// If parsing fails, stores the error and returns defaults.
func (m *Manager) Load() error {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads the configuration from an explicit path.
func (m *Manager) LoadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.config = DefaultConfig()
		return m.saveUnlocked()
	}
	if err != nil {
		return err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Keep the error for display, run on defaults.
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}

	m.config = &cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}
