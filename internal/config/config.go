package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"duo-journal-backend/internal/timeline"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	AWS      AWSConfig      `yaml:"aws"`
	APNs     APNsConfig     `yaml:"apns"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration.
// URL takes precedence over the discrete fields when set.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Schema   string `yaml:"schema"`
}

// JournalConfig holds journaling behaviour
type JournalConfig struct {
	EntryPolicy      string        `yaml:"entry_policy"`
	DateLayout       string        `yaml:"date_layout"`
	CatalogPath      string        `yaml:"catalog_path"`
	PasswordResetTTL time.Duration `yaml:"password_reset_ttl"`
}

// AWSConfig holds configuration for timeline exports
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// APNsConfig holds push notification configuration
type APNsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file. A missing file is not an error;
// defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "duo",
			SSLMode: "disable",
		},
		Journal: JournalConfig{
			EntryPolicy:      string(timeline.PolicySingle),
			DateLayout:       timeline.DefaultDateLayout,
			PasswordResetTTL: time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("DB_SCHEMA")); v != "" {
		c.Database.Schema = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ENTRY_POLICY"); v != "" {
		c.Journal.EntryPolicy = v
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if _, err := c.Journal.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed entry policy
func (j JournalConfig) Policy() (timeline.EntryPolicy, error) {
	return timeline.ParseEntryPolicy(j.EntryPolicy)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		// hosting providers still hand out the legacy scheme
		if strings.HasPrefix(c.URL, "postgres://") {
			return "postgresql://" + strings.TrimPrefix(c.URL, "postgres://")
		}
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
