package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/recstore/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type StorageConfig struct {
	Backend string   `mapstructure:"backend"` // "localfs" or "s3"
	Codec   string   `mapstructure:"codec"`   // "msgpack" or "yaml"
	S3      S3Config `mapstructure:"s3"`      // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file, on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	d := Defaults()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.codec", d.Storage.Codec)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	// Support environment variable overrides
	v.SetEnvPrefix("RECSTORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "localfs",
			Codec:   "msgpack",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Codec {
	case "msgpack", "yaml":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("codec must be msgpack or yaml, got %q", c.Storage.Codec))
	}

	switch c.Storage.Backend {
	case "localfs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when backend is s3"))
		}
		if c.Storage.S3.Region == "" && c.Storage.S3.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 region or endpoint required when backend is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backend must be localfs or s3, got %q", c.Storage.Backend))
	}

	return nil
}
