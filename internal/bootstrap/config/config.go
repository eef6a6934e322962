package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Query    QueryConfig    `mapstructure:"query"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// QueryConfig bounds traversal and pagination.
type QueryConfig struct {
	MaxDepth        int           `mapstructure:"max_depth"`
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
	CacheAncestors  bool          `mapstructure:"cache_ancestors"`
	AncestorTTL     time.Duration `mapstructure:"ancestor_ttl"`
}

func (q QueryConfig) Validate() error {
	switch {
	case q.MaxDepth < 1:
		return fmt.Errorf("query.max_depth must be positive, got %d", q.MaxDepth)
	case q.DefaultPageSize < 1:
		return fmt.Errorf("query.default_page_size must be positive, got %d", q.DefaultPageSize)
	case q.MaxPageSize < q.DefaultPageSize:
		return fmt.Errorf("query.max_page_size %d is below default_page_size %d", q.MaxPageSize, q.DefaultPageSize)
	case q.StoreTimeout < 0:
		return fmt.Errorf("query.store_timeout must not be negative, got %s", q.StoreTimeout)
	}
	return nil
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if err := cfg.Query.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("max_depth", cfg.Query.MaxDepth),
		slog.Duration("store_timeout", cfg.Query.StoreTimeout),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ram")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".ram/state/ram.sqlite")
	v.SetDefault("query.max_depth", 256)
	v.SetDefault("query.default_page_size", 20)
	v.SetDefault("query.max_page_size", 500)
	v.SetDefault("query.store_timeout", "10s")
	v.SetDefault("query.cache_ancestors", true)
	v.SetDefault("query.ancestor_ttl", "0s")
}
