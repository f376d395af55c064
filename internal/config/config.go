package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Config - настройки сервиса ленты.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Feed     FeedConfig     `yaml:"feed"`
	Retry    RetryConfig    `yaml:"retry"`
	Session  SessionConfig  `yaml:"session"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	// Type: in-memory, postgres или mongo.
	Type string `yaml:"type"`
	// Seed заполняет in-memory хранилище тестовыми данными.
	Seed bool `yaml:"seed"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr    string        `yaml:"addr"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type FeedConfig struct {
	IDScheme     string `yaml:"id_scheme"`
	DeletePolicy string `yaml:"delete_policy"`
	Concurrency  int    `yaml:"concurrency"`
	TimeLocation string `yaml:"time_location"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type SessionConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Storage:  StorageConfig{Type: StorageInMemory, Seed: true},
		Redis:    RedisConfig{LockTTL: 5 * time.Second},
		Feed:     FeedConfig{IDScheme: "ulid", DeletePolicy: "orphan", Concurrency: 16, TimeLocation: "UTC"},
		Retry:    RetryConfig{MaxAttempts: 3},
		Postgres: PostgresConfig{LogLevel: "info"},
		Mongo:    MongoConfig{Database: "social"},
	}
}

// Load собирает конфигурацию: умолчания, затем YAML-файл (если указан), затем переменные окружения.
// .env в текущей директории подхватывается, если он есть.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Postgres.DSN, "DATABASE_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Session.JWTSecret, "JWT_SECRET")
	setString(&c.Feed.IDScheme, "ID_SCHEME")
	setString(&c.Feed.DeletePolicy, "DELETE_POLICY")
	setString(&c.Feed.TimeLocation, "TIME_LOCATION")

	if v := os.Getenv("FEED_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FEED_CONCURRENCY %q: %w", v, err)
		}
		c.Feed.Concurrency = n
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StorageInMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DATABASE_URL must be set for postgres storage")
		}
	case StorageMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI must be set for mongo storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	switch c.Feed.DeletePolicy {
	case "orphan", "cascade":
	default:
		return fmt.Errorf("unknown delete policy %q", c.Feed.DeletePolicy)
	}
	if c.Feed.Concurrency <= 0 {
		return fmt.Errorf("feed concurrency must be positive, got %d", c.Feed.Concurrency)
	}
	if c.Session.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return nil
}

// Location разбирает feed.time_location.
func (c Config) Location() (*time.Location, error) {
	if c.Feed.TimeLocation == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Feed.TimeLocation)
}
