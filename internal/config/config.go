// Package config loads kubecontexts settings from defaults, an optional
// YAML file, KUBECONTEXTS_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/renato0307/kubecontexts/internal/k8s"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KUBECONTEXTS"

// Config is the complete configuration.
type Config struct {
	Kubeconfig string          `mapstructure:"kubeconfig"`
	Server     ServerConfig    `mapstructure:"server"`
	Log        LogConfig       `mapstructure:"log"`
	Dashboard  DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	MessagesPerSecond float64       `mapstructure:"messagesPerSecond"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

// DashboardConfig controls the dashboard companion extension.
type DashboardConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// ActivationDelay postpones loading the companion after startup.
	ActivationDelay time.Duration `mapstructure:"activationDelay"`
	Concurrency     int           `mapstructure:"concurrency"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"kubeconfig": "kubeconfig",
	"address":    "server.address",
	"log-file":   "log.file",
	"log-level":  "log.level",
	"dashboard":  "dashboard.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kubeconfig", k8s.DefaultKubeconfigPath())
	v.SetDefault("server.address", "127.0.0.1:7077")
	v.SetDefault("server.readTimeout", "0s")
	v.SetDefault("server.messagesPerSecond", 20)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.maxSizeMB", 10)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("dashboard.enabled", true)
	v.SetDefault("dashboard.interval", "30s")
	v.SetDefault("dashboard.timeout", "5s")
	v.SetDefault("dashboard.activationDelay", "2s")
	v.SetDefault("dashboard.concurrency", 4)
}

// Load builds the configuration. path names a YAML file; when empty,
// kubecontexts.yaml is looked up in the working directory and in
// $HOME/.config/kubecontexts, and its absence is not an error. flags may be
// nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kubecontexts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kubecontexts")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address must not be empty"))
	}
	if c.Server.MessagesPerSecond < 0 {
		errs = append(errs, errors.New("server.messagesPerSecond must not be negative"))
	}
	if c.Dashboard.Interval < 0 || c.Dashboard.Timeout < 0 || c.Dashboard.ActivationDelay < 0 {
		errs = append(errs, errors.New("dashboard durations must not be negative"))
	}
	if c.Dashboard.Concurrency < 0 {
		errs = append(errs, errors.New("dashboard.concurrency must not be negative"))
	}
	return errors.Join(errs...)
}
