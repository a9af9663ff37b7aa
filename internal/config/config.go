package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"multiput/internal/discovery"
)

const envPrefix = "MULTIPUT"

type Discovery struct {
	Service string        `mapstructure:"service"`
	Domain  string        `mapstructure:"domain"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Config struct {
	Transport string    `mapstructure:"transport"`
	Quiet     bool      `mapstructure:"quiet"`
	LogLevel  string    `mapstructure:"log_level"`
	Discovery Discovery `mapstructure:"discovery"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("transport", "tcp")
	v.SetDefault("quiet", false)
	v.SetDefault("log_level", "warning")
	v.SetDefault("discovery.service", discovery.DefaultService)
	v.SetDefault("discovery.domain", discovery.DefaultDomain)
	v.SetDefault("discovery.timeout", 5*time.Second)
}

// Load reads path when given, otherwise $HOME/.multiput.yaml if present, then
// applies MULTIPUT_* environment overrides. Flags bound to v take precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".multiput")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		logrus.Debugf("Using config file %s", filepath.Clean(v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}
