// Package config loads plexus's server identity and runtime tunables
// using github.com/spf13/viper, the configuration library the
// ulucaydin-mcp-server-newrelic example in the retrieval pack depends
// on. Values come from, in increasing precedence: built-in defaults, a
// plexus.yaml in the working directory, and PLEXUS_*-prefixed
// environment variables.
package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable this hub needs at startup. There is no
// persisted, cross-restart state here — per the spec's non-goals,
// everything below is process-lifetime configuration only.
type Config struct {
	ServerName          string        `mapstructure:"server_name"`
	ServerVersion       string        `mapstructure:"server_version"`
	BidirDefaultTimeout time.Duration `mapstructure:"bidir_default_timeout"`
	SubscriptionWorkers int           `mapstructure:"subscription_workers"`
	LogLevel            string        `mapstructure:"log_level"`
}

// defaultVersion is the server_version used when neither plexus.yaml nor
// PLEXUS_SERVER_VERSION sets one. plexusd replaces this default (and an
// empty value) with its own build-time Version.
var defaultVersion = "0.1.0-dev"

// Load builds a viper instance over defaults, plexus.yaml, and the
// PLEXUS_ environment prefix, and decodes it into a Config.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server_name", "plexus")
	v.SetDefault("server_version", defaultVersion)
	v.SetDefault("bidir_default_timeout", 30*time.Second)
	v.SetDefault("subscription_workers", runtime.NumCPU()*2)
	v.SetDefault("log_level", "info")

	v.SetConfigName("plexus")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	v.SetEnvPrefix("PLEXUS")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
