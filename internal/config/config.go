// Package config loads server settings from the environment.
//
// Precedence: real environment variables > .env file > defaults below.
// The .env file is optional; godotenv never overrides a variable that is
// already set, and viper reads the merged environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	AuthJWT      = "jwt"
	AuthUserInfo = "userinfo"
)

// Config is the flat set of environment keys; mapstructure tags are the
// lower-cased variable names.
type Config struct {
	Port int `mapstructure:"port"`

	StoreDriver   string `mapstructure:"store_driver"`
	DBPath        string `mapstructure:"db_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`

	AuthMode        string `mapstructure:"auth_mode"`
	AuthJWTSecret   string `mapstructure:"auth_jwt_secret"`
	AuthIssuer      string `mapstructure:"auth_issuer"`
	AuthAudience    string `mapstructure:"auth_audience"`
	AuthUserInfoURL string `mapstructure:"auth_userinfo_url"`
	AdminKeyHash    string `mapstructure:"admin_key_hash"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	// SeedFile is a catalog CSV; empty means the embedded seed.
	SeedFile    string   `mapstructure:"seed_file"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)

	v.SetDefault("store_driver", StoreSQLite)
	v.SetDefault("db_path", "data/tracker.db")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "college_tracker")

	v.SetDefault("auth_mode", AuthJWT)
	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_issuer", "")
	v.SetDefault("auth_audience", "")
	v.SetDefault("auth_userinfo_url", "")
	v.SetDefault("admin_key_hash", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "60s")

	v.SetDefault("seed_file", "")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads envFile (if it exists), then the environment. Pass "" to skip
// the file entirely.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthMode {
	case AuthJWT:
		if len(c.AuthJWTSecret) < 16 {
			return errors.New("config: AUTH_JWT_SECRET must be at least 16 characters")
		}
	case AuthUserInfo:
		if c.AuthUserInfoURL == "" {
			return errors.New("config: AUTH_USERINFO_URL is required in userinfo mode")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}

	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
