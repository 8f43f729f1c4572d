// Package config loads the small TOML configuration dispatchpoold needs:
// where to listen, how many workers to run, and where to expose metrics
// and logs. TOML is the format used across this corpus for small service
// configuration; CLI flags (wired in cmd/dispatchpoold) override whatever
// a config file sets.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full set of tunables for a dispatchpoold instance.
type Config struct {
	ListenAddr   string        `toml:"listen_addr"`
	PoolSize     int           `toml:"pool_size"`
	MetricsAddr  string        `toml:"metrics_addr"`
	LogLevel     string        `toml:"log_level"`
	IndexFile    string        `toml:"index_file"`
	NotFoundFile string        `toml:"not_found_file"`
	PoolTTL      time.Duration `toml:"pool_ttl"`
}

// Default returns the out-of-the-box configuration: listen on
// 127.0.0.1:7878 with 4 workers.
func Default() Config {
	return Config{
		ListenAddr:   "127.0.0.1:7878",
		PoolSize:     4,
		MetricsAddr:  "127.0.0.1:9090",
		LogLevel:     "info",
		IndexFile:    "web/index.html",
		NotFoundFile: "web/404.html",
		PoolTTL:      5 * time.Minute,
	}
}

// Load reads a TOML file at path, overlaying it onto Default so any field
// the file omits keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if cfg.PoolSize < 1 {
		return Config{}, fmt.Errorf("config: pool_size must be >= 1, got %d", cfg.PoolSize)
	}
	return cfg, nil
}
