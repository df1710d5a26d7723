package main

import (
	"fmt"
	"strings"

	"github.com/Alp4ka/gosearch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "MEMBERSEARCH"

type config struct {
	Database databaseConfig `mapstructure:"database"`
	Log      logConfig      `mapstructure:"log"`
	Paging   pagingConfig   `mapstructure:"paging"`
}

type databaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type logConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type pagingConfig struct {
	MaxSize         int  `mapstructure:"max_size"`
	ConcurrentCount bool `mapstructure:"concurrent_count"`
	StrictCount     bool `mapstructure:"strict_count"`
}

// newViper returns a viper instance with defaults for every key, so that
// environment variables are picked up by Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("database.driver", driverSQLite)
	v.SetDefault("database.dsn", "membersearch.db")
	v.SetDefault("log.level", logrus.InfoLevel.String())
	v.SetDefault("log.format", "text")
	v.SetDefault("paging.max_size", gosearch.MaxLimit)
	v.SetDefault("paging.concurrent_count", false)
	v.SetDefault("paging.strict_count", false)

	// MEMBERSEARCH_DATABASE_DSN -> database.dsn
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func loadConfig(v *viper.Viper, path string) (*config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := new(config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *config) validate() error {
	switch c.Database.Driver {
	case driverSQLite, driverMySQL, driverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is empty")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format)
	}

	if c.Paging.MaxSize <= 0 {
		return fmt.Errorf("paging max size must be positive, got %d", c.Paging.MaxSize)
	}

	return nil
}

func (c *config) pagingOptions(log logrus.FieldLogger) []gosearch.Option {
	opts := []gosearch.Option{
		gosearch.WithLogger(log),
		gosearch.WithMaxSize(c.Paging.MaxSize),
	}

	if c.Paging.ConcurrentCount {
		opts = append(opts, gosearch.WithConcurrentCount())
	}
	if c.Paging.StrictCount {
		opts = append(opts, gosearch.WithStrictCount())
	}

	return opts
}
