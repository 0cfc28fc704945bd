package config

import (
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds every tunable for the catalogue engine and its HTTP surface.
// Values are resolved in order: struct defaults, then the optional YAML config
// file, then SHELFMARK_-prefixed environment variables.
type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" default:"./tmp/catalogue.sqlite"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	Hostname                  string        `koanf:"-"`
	ServerHost                string        `koanf:"server_host" default:"127.0.0.1"`
	ServerPort                int           `koanf:"server_port" default:"3660"`
}

const (
	envPrefix     = "SHELFMARK_"
	configPathENV = "SHELFMARK_CONFIG"
	defaultConfig = "./shelfmark.yaml"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	k := koanf.New(".")

	configPath := os.Getenv(configPathENV)
	if configPath == "" {
		configPath = defaultConfig
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "failed to load config file")
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return cfg, nil
}
