package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"eclipse/internal/logger"
)

// Buckets names the object storage buckets media is written to.
type Buckets struct {
	Videos     string
	Thumbnails string
	PostImages string
}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret  string
	SessionTTL time.Duration

	RedisURL string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2PublicURL       string
	Buckets           Buckets

	// UploadTimeout bounds the video binary upload only.
	UploadTimeout time.Duration
	// ChangeDebounce coalesces bursts of change events into one refetch.
	ChangeDebounce time.Duration

	LogLevel string
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	log := logger.For("Config")
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found or error loading it, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("BUCKET_VIDEOS", "videos")
	v.SetDefault("BUCKET_THUMBNAILS", "thumbnails")
	v.SetDefault("BUCKET_POST_IMAGES", "posts_images")
	v.SetDefault("UPLOAD_TIMEOUT", "5m")
	v.SetDefault("CHANGE_DEBOUNCE", "250ms")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		ServerPort: v.GetString("SERVER_PORT"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		SessionTTL: v.GetDuration("SESSION_TTL"),

		RedisURL: v.GetString("REDIS_URL"),

		R2AccountID:       v.GetString("R2_ACCOUNT_ID"),
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
		R2PublicURL:       strings.TrimSuffix(v.GetString("R2_PUBLIC_URL"), "/"),
		Buckets: Buckets{
			Videos:     v.GetString("BUCKET_VIDEOS"),
			Thumbnails: v.GetString("BUCKET_THUMBNAILS"),
			PostImages: v.GetString("BUCKET_POST_IMAGES"),
		},

		UploadTimeout:  v.GetDuration("UPLOAD_TIMEOUT"),
		ChangeDebounce: v.GetDuration("CHANGE_DEBOUNCE"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.UploadTimeout <= 0 {
		return nil, fmt.Errorf("invalid UPLOAD_TIMEOUT %q", v.GetString("UPLOAD_TIMEOUT"))
	}
	if cfg.ChangeDebounce < 0 {
		return nil, fmt.Errorf("invalid CHANGE_DEBOUNCE %q", v.GetString("CHANGE_DEBOUNCE"))
	}

	return cfg, nil
}

// Validate reports every required setting that is missing.
func (c *Config) Validate() error {
	var missing []string
	required := map[string]string{
		"DB_HOST":              c.DBHost,
		"DB_USER":              c.DBUser,
		"DB_NAME":              c.DBName,
		"JWT_SECRET":           c.JWTSecret,
		"R2_ACCOUNT_ID":        c.R2AccountID,
		"R2_ACCESS_KEY_ID":     c.R2AccessKeyID,
		"R2_SECRET_ACCESS_KEY": c.R2SecretAccessKey,
		"R2_PUBLIC_URL":        c.R2PublicURL,
	}
	for _, key := range []string{
		"DB_HOST", "DB_USER", "DB_NAME", "JWT_SECRET",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_PUBLIC_URL",
	} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
