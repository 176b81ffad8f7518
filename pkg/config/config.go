package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	Classifier ClassifierConfig
	OTEL       OTELConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// ClassifierConfig controls catalog loading and batch reclassification.
type ClassifierConfig struct {
	CatalogPath string
	NameBonus   int
	Workers     int
	BatchSize   int
	// Schedule is a standard five-field cron expression; empty runs once.
	Schedule string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

var defaults = map[string]interface{}{
	"APP_ENV":                 "development",
	"DB_HOST":                 "localhost",
	"DB_PORT":                 5432,
	"DB_USER":                 "postgres",
	"DB_PASSWORD":             "",
	"DB_NAME":                 "medicine_catalog",
	"DB_SSLMODE":              "disable",
	"DB_MAX_OPEN_CONNS":       25,
	"DB_MAX_IDLE_CONNS":       5,
	"DB_CONN_MAX_LIFETIME":    "5m",
	"REDIS_HOST":              "localhost",
	"REDIS_PORT":              6379,
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"TYPESENSE_URL":           "http://localhost:8108",
	"TYPESENSE_API_KEY":       "xyz",
	"TYPESENSE_COLLECTION":    "medicines",
	"CLASSIFIER_CATALOG_PATH": "config/medicine_categories.json",
	"CLASSIFIER_NAME_BONUS":   2,
	"CLASSIFIER_WORKERS":      4,
	"CLASSIFIER_BATCH_SIZE":   500,
	"CLASSIFIER_SCHEDULE":     "",
	"OTEL_SERVICE_NAME":       "medicine-catalog",
	"OTEL_SERVICE_VERSION":    "1.0.0",
	"OTEL_ENDPOINT":           "",
	"OTEL_ENABLED":            false,
}

// Load loads configuration from environment variables. When CONFIG_FILE is
// set, that file (.env, yaml or json) supplies values the environment does not.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", file), err)
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Typesense: TypesenseConfig{
			URL:        v.GetString("TYPESENSE_URL"),
			APIKey:     v.GetString("TYPESENSE_API_KEY"),
			Collection: v.GetString("TYPESENSE_COLLECTION"),
		},
		Classifier: ClassifierConfig{
			CatalogPath: v.GetString("CLASSIFIER_CATALOG_PATH"),
			NameBonus:   v.GetInt("CLASSIFIER_NAME_BONUS"),
			Workers:     v.GetInt("CLASSIFIER_WORKERS"),
			BatchSize:   v.GetInt("CLASSIFIER_BATCH_SIZE"),
			Schedule:    strings.TrimSpace(v.GetString("CLASSIFIER_SCHEDULE")),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the batch jobs cannot run with.
func (c *Config) Validate() error {
	if c.Classifier.CatalogPath == "" {
		return apperrors.NewConfigurationError("CLASSIFIER_CATALOG_PATH is required", nil)
	}
	if c.Classifier.NameBonus < 0 {
		return apperrors.NewConfigurationError("CLASSIFIER_NAME_BONUS must not be negative", nil)
	}
	if c.Classifier.BatchSize <= 0 {
		return apperrors.NewConfigurationError("CLASSIFIER_BATCH_SIZE must be positive", nil)
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return apperrors.NewConfigurationError("OTEL_ENDPOINT is required when OTEL_ENABLED is true", nil)
	}
	return nil
}

// IsProduction returns true when APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
