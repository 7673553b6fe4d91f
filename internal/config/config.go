package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`

	Host     string `mapstructure:"DB_HOST"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	DBPort   string `mapstructure:"DB_PORT"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	ServerPort     string `mapstructure:"SERVER_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	JWTKey      string        `mapstructure:"JWT_KEY"`
	JWTTokenTTL time.Duration `mapstructure:"JWT_TOKEN_TTL"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	MessageCacheTTL time.Duration `mapstructure:"MESSAGE_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3BucketName      string `mapstructure:"S3_BUCKET_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"STORAGE_DRIVER":       "postgres",
	"DB_HOST":              "",
	"DB_USER":              "",
	"DB_PASSWORD":          "",
	"DB_NAME":              "",
	"DB_PORT":              "",
	"DB_SSLMODE":           "disable",
	"SERVER_PORT":          "8080",
	"ALLOWED_ORIGINS":      "*",
	"JWT_KEY":              "",
	"JWT_TOKEN_TTL":        "24h",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"MESSAGE_CACHE_TTL":    "1h",
	"NATS_URL":             "",
	"S3_ENDPOINT":          "",
	"S3_REGION":            "us-east-1",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
	"S3_BUCKET_NAME":       "",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
}

// Load reads ./.env when present, then lets environment variables override it.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTKey == "" {
		return errors.New("JWT_KEY is required")
	}

	if c.ServerPort == "" {
		return errors.New("SERVER_PORT is required")
	}

	switch c.StorageDriver {
	case "memory":
		return nil
	case "postgres", "mysql":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres, mysql or memory, got %q", c.StorageDriver)
	}

	if c.User == "" {
		return errors.New("DB_USER is required")
	}

	if c.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}

	if c.Name == "" {
		return errors.New("DB_NAME is required")
	}

	if c.DBPort == "" {
		return errors.New("DB_PORT is required")
	}

	if c.Host == "" {
		return errors.New("DB_HOST is required")
	}

	return nil
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.StorageDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
			c.User, c.Password, c.Host, c.DBPort, c.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.SSLMode)
}

func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *Config) AttachmentsEnabled() bool {
	return c.S3BucketName != ""
}
