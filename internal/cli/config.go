package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	TableDir      string `json:"table_dir"`
	Separator     string `json:"separator,omitempty"`
	CacheCapacity int    `json:"cache_capacity,omitempty"`
	LockFiles     bool   `json:"lock_files,omitempty"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TableDir: ".",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".danktables.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/danktables/config.json if set, otherwise
// ~/.config/danktables/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "danktables", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "danktables", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDir          string            // resolved working directory
	ConfigPath       string            // -c/--config flag value
	TableDirOverride string            // --table-dir flag value; empty means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence
// (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/danktables/config.json or
//     ~/.config/danktables/config.json)
//  3. Project config file at the default location (.danktables.json)
//  4. Explicit config file via ConfigPath (if non-empty)
//  5. CLI overrides
//
// Config files are HuJSON: standard JSON plus comments and trailing
// commas.
func LoadConfig(input LoadConfigInput) (Config, error) {
	cfg := DefaultConfig()

	globalPath := getGlobalConfigPath(input.Env)
	if globalPath != "" {
		loaded, found, err := loadConfigFile(globalPath)
		if err != nil {
			return Config{}, err
		}

		if found {
			cfg = mergeConfig(cfg, loaded)
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := filepath.Join(input.WorkDir, ConfigFileName)

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(input.WorkDir, projectPath)
		}
	}

	loaded, found, err := loadConfigFile(projectPath)
	if err != nil {
		return Config{}, err
	}

	if !found && input.ConfigPath != "" {
		return Config{}, fmt.Errorf("config file not found: %s", projectPath)
	}

	if found {
		cfg = mergeConfig(cfg, loaded)
		cfg.Sources.Project = projectPath
	}

	if input.TableDirOverride != "" {
		cfg.TableDir = input.TableDirOverride
	}

	// Resolve the table directory against the working directory.
	if !filepath.IsAbs(cfg.TableDir) {
		cfg.TableDir = filepath.Join(input.WorkDir, cfg.TableDir)
	}

	return cfg, nil
}

// loadConfigFile reads and parses one config file.
// Returns found=false (no error) if the file doesn't exist.
func loadConfigFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	standard, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	var cfg Config

	err = json.Unmarshal(standard, &cfg)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, true, nil
}

// mergeConfig overlays set fields of overlay onto base.
func mergeConfig(base, overlay Config) Config {
	if overlay.TableDir != "" {
		base.TableDir = overlay.TableDir
	}

	if overlay.Separator != "" {
		base.Separator = overlay.Separator
	}

	if overlay.CacheCapacity != 0 {
		base.CacheCapacity = overlay.CacheCapacity
	}

	if overlay.LockFiles {
		base.LockFiles = true
	}

	return base
}
