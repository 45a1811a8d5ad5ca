// Package config loads zraster settings from YAML files and opens the store
// they describe.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	zarr "github.com/qri-io/zarr-raster"
	"github.com/qri-io/zarr-raster/raster"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreLocal  = "local"
	StoreSQLite = "sqlite"
)

// Config is the zraster configuration file
type Config struct {
	Store struct {
		// Type is one of memory, local or sqlite
		Type string `yaml:"type"`
		// Path is the directory of a local store or the database file of a
		// sqlite store
		Path string `yaml:"path"`
		// Group is the zarr group rasters are kept in
		Group string `yaml:"group"`
	} `yaml:"store"`

	Array struct {
		// ChunkSize is the edge length of the square chunks new rasters use
		ChunkSize int `yaml:"chunkSize"`
		// Compressor is "", "zst" or "gzip"
		Compressor string `yaml:"compressor"`
	} `yaml:"array"`

	Log struct {
		// Level is debug, info, warn or error
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Store.Type = StoreLocal
	cfg.Store.Path = "rasters.zarr"
	cfg.Store.Group = "image"
	cfg.Array.ChunkSize = raster.DefaultChunkSize
	cfg.Array.Compressor = "zst"
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks field values LoadConfig can't catch while parsing
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreMemory:
	case StoreLocal, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s stores", c.Store.Type)
		}
	default:
		return fmt.Errorf("unknown store.type %q", c.Store.Type)
	}
	if c.Array.ChunkSize <= 0 {
		return fmt.Errorf("array.chunkSize must be positive, got %d", c.Array.ChunkSize)
	}
	if _, err := zarr.NewCompressionMeta(c.Array.Compressor); err != nil {
		return fmt.Errorf("array.compressor: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return lvl, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// RasterOptions are the creation options new rasters get from c
func (c *Config) RasterOptions() []raster.Option {
	return []raster.Option{
		raster.WithChunkSize(c.Array.ChunkSize),
		raster.WithCompression(c.Array.Compressor),
	}
}

// OpenStore opens the configured store. The returned close func releases
// it and must be called once the store is no longer needed.
func (c *Config) OpenStore() (zarr.Store, func() error, error) {
	noop := func() error { return nil }
	switch c.Store.Type {
	case StoreMemory:
		return zarr.NewMemoryStore(), noop, nil
	case StoreLocal:
		s, err := zarr.NewLocalStore(c.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case StoreSQLite:
		s, err := zarr.NewSQLiteStore(c.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store.type %q", c.Store.Type)
}

// OpenGroup opens the configured store and the raster group in it, creating
// the group if it's missing
func (c *Config) OpenGroup() (*zarr.Group, func() error, error) {
	s, closeStore, err := c.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	g, err := zarr.OpenOrCreateGroup(s, c.Store.Group)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return g, closeStore, nil
}
