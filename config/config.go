// Package config persists the stack engine's tunable settings (minimum cell
// height, inter-cell gap, and related layout knobs) across runs.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "termstack.json"

// Config is the persisted shape named by the stack engine's external
// interfaces: the minimum cell height, the gap drawn between cells, whether
// scroll should auto-follow new content, and which client app-ids draw their
// own title bar.
type Config struct {
	MinCellHeight         float64  `json:"min_cell_height"`
	GapSize               float64  `json:"gap_size"`
	AutoScrollEnabled     bool     `json:"auto_scroll_enabled"`
	ClientDecoratedAppIDs []string `json:"client_decorated_app_ids"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		MinCellHeight:     16.0,
		GapSize:           1.0,
		AutoScrollEnabled: true,
		ClientDecoratedAppIDs: []string{
			"org.gnome.Nautilus",
			"firefox",
		},
	}
}

// IsClientDecorated reports whether appID is in the client-decorated list.
func (c Config) IsClientDecorated(appID string) bool {
	for _, id := range c.ClientDecoratedAppIDs {
		if id == appID {
			return true
		}
	}
	return false
}

var (
	mu      sync.RWMutex
	once    sync.Once
	current Config
	loadErr error
	loadDir string
)

// SetDir overrides the directory System()/Reload()/Save() use. Intended for
// tests and the CLI's --config-dir flag. The path is resolved on every load
// or save, so the override takes effect at the next first System() call,
// Reload(), or Save().
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	loadDir = dir
}

// System returns the lazily-loaded, process-wide configuration. A missing
// file is not an error: System() falls back to Defaults().
func System() Config {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Err returns the error from the most recent load, if any.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// Reload re-reads the configuration file from disk.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadLocked()
	return loadErr
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	current = Defaults()
	loadErr = loadLocked()
}

func loadLocked() error {
	path, err := configPath()
	if err != nil {
		log.Printf("config: failed to resolve config path: %v", err)
		current = Defaults()
		return err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		current = Defaults()
		return nil
	}
	if err != nil {
		log.Printf("config: failed to read %s: %v", path, err)
		current = Defaults()
		return err
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("config: malformed config at %s: %v, using defaults", path, err)
		current = Defaults()
		return err
	}
	current = cfg
	log.Printf("config: loaded %s", path)
	return nil
}

// Save persists cfg to the configured path and makes it the active config.
func Save(cfg Config) error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	current = cfg
	return nil
}

func configPath() (string, error) {
	if loadDir != "" {
		return filepath.Join(loadDir, fileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "termstack", fileName), nil
}
