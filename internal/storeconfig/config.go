// Package storeconfig loads the store's startup settings: where the
// Metadata Index database lives, where blobs are written, and the
// metadata LRU's capacity. It follows the teacher's layered
// file+env+default viper setup (internal/config/yaml_config.go), scoped
// down to the handful of settings this store needs before it can open
// anything.
package storeconfig

import (
	"fmt"

	"github.com/spf13/viper"
)

// envPrefix namespaces every setting's environment variable form, e.g.
// DBPath becomes RSTORE_DB_PATH.
const envPrefix = "RSTORE"

// Config is the store's startup configuration.
type Config struct {
	// DBPath is the SQLite file backing the Metadata Index. ":memory:"
	// is accepted for ephemeral/test use.
	DBPath string `mapstructure:"db_path"`

	// DataDir is the root directory the Blob Driver writes under.
	DataDir string `mapstructure:"data_dir"`

	// MetadataCacheCapacity bounds the metadata LRU (§4.6.6).
	MetadataCacheCapacity int `mapstructure:"metadata_cache_capacity"`
}

func defaults() *Config {
	return &Config{
		DBPath:                "rstore.db",
		DataDir:               "rstore-data",
		MetadataCacheCapacity: 1024,
	}
}

// Load reads rstore.yaml (if present) from path, layers RSTORE_*
// environment overrides on top, and falls back to built-in defaults for
// anything unset. path may be a directory (rstore.yaml is looked up
// inside it) or empty, in which case only the working directory and
// environment are consulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("rstore")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := defaults()
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("metadata_cache_capacity", cfg.MetadataCacheCapacity)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("storeconfig: reading rstore.yaml: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("storeconfig: decoding configuration: %w", err)
	}
	if cfg.MetadataCacheCapacity <= 0 {
		cfg.MetadataCacheCapacity = 1024
	}
	return cfg, nil
}
