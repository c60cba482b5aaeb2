// Package config loads the service configuration.
//
// Sources, lowest priority first:
//
//  1. Defaults (Default)
//  2. An optional YAML file (path from CONFIG_FILE)
//  3. .env files: ENV_FILE if set, otherwise .env.local then .env
//  4. Environment variables, named by each field's `env` tag
//
// .env files never override variables that are already set in the real
// environment; godotenv.Load only fills in missing ones.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Images    ImageConfig     `yaml:"images"`
	Pexels    PexelsConfig    `yaml:"pexels"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver" env:"STORE_DRIVER"`
	Path          string `yaml:"path" env:"DB_PATH"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE"`
}

// RedisConfig is optional. With no address the duplicate index stays in memory.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type DedupConfig struct {
	Window time.Duration `yaml:"window" env:"DEDUP_WINDOW"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model   string `yaml:"model" env:"ANTHROPIC_MODEL"`
	BaseURL string `yaml:"base_url" env:"ANTHROPIC_BASE_URL"`
}

type ImageConfig struct {
	APIKey  string `yaml:"api_key" env:"IMAGE_API_KEY"`
	BaseURL string `yaml:"base_url" env:"IMAGE_API_URL"`
	Model   string `yaml:"model" env:"IMAGE_MODEL"`
}

type PexelsConfig struct {
	APIKey  string `yaml:"api_key" env:"PEXELS_API_KEY"`
	BaseURL string `yaml:"base_url" env:"PEXELS_API_URL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 30 * time.Second},
		Store:  StoreConfig{Driver: DriverSQLite, Path: "data/content.db", MongoDatabase: "content_studio"},
		Dedup:  DedupConfig{Window: 5 * time.Second},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty (no YAML file).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := applyEnv(reflect.ValueOf(&cfg).Elem()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// applyEnv walks the struct and overrides every `env`-tagged field whose
// variable is set. Unlike silently skipping, a malformed value is an error:
// PORT=80a should stop startup, not fall back to 8080.
func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := setField(field, strings.TrimSpace(val)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setField(field reflect.Value, val string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(val)
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, fmt.Errorf("%s: %s", field, msg))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("PORT", "must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("SHUTDOWN_TIMEOUT", "must be positive")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			add("DB_PATH", "is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			add("MONGO_URI", "is required for the mongo driver")
		}
		if c.Store.MongoDatabase == "" {
			add("MONGO_DATABASE", "is required for the mongo driver")
		}
	default:
		add("STORE_DRIVER", fmt.Sprintf("must be %q or %q", DriverSQLite, DriverMongo))
	}

	if c.Redis.DB < 0 {
		add("REDIS_DB", "must not be negative")
	}
	if c.Dedup.Window <= 0 {
		add("DEDUP_WINDOW", "must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("LOG_LEVEL", "must be one of: debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT", "must be one of: text, json")
	}

	return errors.Join(errs...)
}
