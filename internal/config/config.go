package config

import (
	"fmt"
	"time"

	"github.com/loykin/procward/internal/logger"
	"github.com/loykin/procward/internal/registry"
	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure for the daemon.
//
//	registry_path = "/home/user/.config/procward/workspaces.json"
//	signature     = "procward-worker"
//	interval      = "5m"
//	listen        = "127.0.0.1:8172"
//	history_dsn   = "sqlite:///var/lib/procward/reap.db"
//
//	[log]
//	level = "info"
//	file  = "/var/log/procward/procward.log"
type FileConfig struct {
	RegistryPath string        `toml:"registry_path" mapstructure:"registry_path"`
	Signature    string        `toml:"signature" mapstructure:"signature"`
	Interval     time.Duration `toml:"interval" mapstructure:"interval"`
	Listen       string        `toml:"listen" mapstructure:"listen"`
	HistoryDSN   string        `toml:"history_dsn" mapstructure:"history_dsn"`
	Log          logger.Config `toml:"log" mapstructure:"log"`
}

// Default values applied by Load when the file leaves them unset.
const (
	DefaultListen   = "127.0.0.1:8172"
	DefaultInterval = 5 * time.Minute
)

// Load reads a TOML config file. A missing path yields the defaults; a
// present but unreadable file is an error.
func Load(path string) (FileConfig, error) {
	fc := FileConfig{
		Interval: DefaultInterval,
		Listen:   DefaultListen,
	}
	if path == "" {
		fc.RegistryPath = registry.DefaultPath()
		return fc, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.RegistryPath == "" {
		fc.RegistryPath = registry.DefaultPath()
	}
	if fc.Interval <= 0 {
		fc.Interval = DefaultInterval
	}
	if fc.Listen == "" {
		fc.Listen = DefaultListen
	}
	return fc, nil
}
