/*
Package config loads server configuration.

SOURCES (later wins):
  1. Defaults in code
  2. configs/config.yaml (or the file passed to Load)
  3. .env file, if present
  4. REBATE_* environment variables, e.g. REBATE_SERVER_PORT=9090,
     REBATE_CACHE_REDIS_ADDRESS=redis:6379
  5. Command-line flags, applied by cmd/server after Load

SEE ALSO:
  - configs/config.yaml: Annotated example
  - cmd/server/main.go: Flag overrides
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REBATE"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config is the full server configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Assumptions AssumptionsConfig `mapstructure:"assumptions"`
	Programs    ProgramsConfig    `mapstructure:"programs"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// ReloadInterval polls the store for configuration written by other
	// replicas. Zero disables polling.
	ReloadInterval  time.Duration `mapstructure:"reload_interval"`
}

type DatabaseConfig struct {
	// Path is the SQLite file; ":memory:" keeps configuration for the process lifetime only.
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Backend    string      `mapstructure:"backend"`
	MaxEntries int         `mapstructure:"max_entries"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AssumptionsConfig optionally seeds the assumption table from a file
// (.yaml, .yml, .json, or .xlsx) instead of the embedded default.
type AssumptionsConfig struct {
	File string `mapstructure:"file"`
}

// ProgramsConfig optionally seeds programs from a YAML file instead of the presets.
type ProgramsConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration. path may be empty to search ./configs and the
// working directory for config.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables still win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.reload_interval", time.Duration(0))

	v.SetDefault("database.path", "rebates.db")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("assumptions.file", "")
	v.SetDefault("programs.file", "")
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReloadInterval < 0 {
		return errors.New("server.reload_interval must not be negative")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Address == "" {
			return errors.New("cache.redis.address is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q must be memory, redis, or none", c.Cache.Backend)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}
