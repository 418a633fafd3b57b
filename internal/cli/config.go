package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the user configuration, read from
// ~/.config/reqsolve/config.toml. Every field has a working default;
// the file is optional.
type Config struct {
	// Index is the default registry index URL; empty selects PyPI.
	Index IndexConfig `toml:"index"`

	Cache CacheConfig `toml:"cache"`
}

// IndexConfig configures the default registry index.
type IndexConfig struct {
	URL string `toml:"url"`

	// FindLinks lists distribution locations consulted on every run, in
	// addition to any given with --find-links.
	FindLinks []string `toml:"find_links"`

	// PythonVersion overrides the interpreter version used for
	// requires-python checks.
	PythonVersion string `toml:"python_version"`
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	// Backend is one of "file" (default), "redis", or "null".
	Backend string `toml:"backend"`

	// Dir overrides the file cache location.
	Dir string `toml:"dir"`

	// RedisAddr is the redis address for the redis backend, e.g.
	// "localhost:6379". REDIS_ADDR in the environment takes precedence.
	RedisAddr string `toml:"redis_addr"`
}

// LoadConfig reads the configuration file and environment. A missing
// or unreadable file yields the defaults; a .env file in the working
// directory is loaded first so both sources see it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Cache: CacheConfig{Backend: "file"},
	}
	path, err := configPath()
	if err == nil {
		// Defaults stand when the file is absent or malformed.
		_, _ = toml.DecodeFile(path, cfg)
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	return cfg
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, "config.toml"), nil
}
