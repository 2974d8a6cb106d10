package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

const databaseFile = "kls_database.db"

type Config struct {
	// Workers bounds how many extension requests run at the same time.
	Workers int `json:"workers" yaml:"workers"`
	// StoragePath is where the workspace database lives. Empty selects a
	// per-workspace directory under $XDG_STATE_HOME.
	StoragePath string `json:"storagePath" yaml:"storagePath"`
	// OutputDirectory receives compiled classes. Empty selects a temporary
	// directory.
	OutputDirectory   string   `json:"outputDirectory" yaml:"outputDirectory"`
	ContentCacheBytes int64    `json:"contentCacheBytes" yaml:"contentCacheBytes"`
	IndexSymbols      bool     `json:"indexSymbols" yaml:"indexSymbols"`
	SourceExtensions  []string `json:"sourceExtensions" yaml:"sourceExtensions"`
}

var defaultConfig = Config{
	Workers:           4,
	ContentCacheBytes: 32 << 20,
	IndexSymbols:      true,
	SourceExtensions:  []string{".kt", ".kts"},
}

func Default() Config {
	cfg := defaultConfig
	cfg.SourceExtensions = slices.Clone(defaultConfig.SourceExtensions)
	return cfg
}

// Load overlays v (typically the client's initializationOptions) on the
// defaults.
func Load(v any) (Config, error) {
	return Merge(Default(), v)
}

// Merge overlays v on base. Only fields present in v overwrite.
func Merge(base Config, v any) (Config, error) {
	if v == nil {
		return base, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	cfg := base
	cfg.SourceExtensions = slices.Clone(base.SourceExtensions)
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg, nil
}

// LoadFile reads a YAML config file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// DatabasePath returns the workspace database file for root, creating its
// directory if needed.
func (c Config) DatabasePath(root string) (string, error) {
	dir := c.StoragePath
	if dir == "" {
		stateDir, err := StateHome("kotlinls")
		if err != nil {
			return "", err
		}
		hash := sha256.Sum256([]byte(root))
		dir = filepath.Join(stateDir, hex.EncodeToString(hash[:8]))
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	return filepath.Join(dir, databaseFile), nil
}

func StateHome(appName string) (string, error) {
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		xdgStateHome = filepath.Join(homeDir, ".local", "state")
	}

	appStateDir := filepath.Join(xdgStateHome, appName)
	if err := os.MkdirAll(appStateDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return appStateDir, nil
}
