// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all DiskView server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Database (optional — when empty, disks are seeded from env only)
	DatabaseURL string

	// Default local disk
	LocalDiskName string
	LocalRootPath string
	LocalBaseURL  string

	// Optional S3 disk (configured when S3_BUCKET is set)
	S3DiskName  string
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// Projection behavior
	FileAnalysis      bool
	HumanReadableSize bool
	HumanReadableTime bool

	// URL signing
	URLSigning       bool
	URLSigningUnit   string // seconds, minutes, hours or days
	URLSigningValue  int
	URLSigningSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:   envOr("METRICS_ADDR", ":9090"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		DatabaseURL:   envOr("DATABASE_URL", ""),
		LocalDiskName: envOr("LOCAL_DISK_NAME", "local"),
		LocalRootPath: envOr("LOCAL_ROOT_PATH", "/data/storage"),
		LocalBaseURL:  envOr("LOCAL_BASE_URL", "http://localhost:8080/files"),
		S3DiskName:    envOr("S3_DISK_NAME", "s3"),
		S3Endpoint:    envOr("S3_ENDPOINT", ""),
		S3Bucket:      envOr("S3_BUCKET", ""),
		S3AccessKey:   envOr("S3_ACCESS_KEY", ""),
		S3SecretKey:   envOr("S3_SECRET_KEY", ""),
		S3Region:      envOr("S3_REGION", "us-east-1"),
		S3UseSSL:      envBool("S3_USE_SSL", true),

		FileAnalysis:      envBool("FILE_ANALYSIS", false),
		HumanReadableSize: envBool("HUMAN_READABLE_SIZE", true),
		HumanReadableTime: envBool("HUMAN_READABLE_TIME", true),

		URLSigning:       envBool("URL_SIGNING", false),
		URLSigningUnit:   envOr("URL_SIGNING_UNIT", "minutes"),
		URLSigningValue:  envInt("URL_SIGNING_VALUE", 30),
		URLSigningSecret: envOr("URL_SIGNING_SECRET", ""),
	}

	if cfg.URLSigning && cfg.URLSigningSecret == "" {
		return nil, fmt.Errorf("URL_SIGNING_SECRET is required when URL_SIGNING is enabled")
	}
	if cfg.URLSigningValue <= 0 {
		return nil, fmt.Errorf("URL_SIGNING_VALUE must be positive")
	}
	switch cfg.URLSigningUnit {
	case "seconds", "minutes", "hours", "days":
	default:
		return nil, fmt.Errorf("unknown URL_SIGNING_UNIT: %s", cfg.URLSigningUnit)
	}

	return cfg, nil
}

// SigningTTL converts the configured signing unit and value into a duration.
func (c *Config) SigningTTL() time.Duration {
	v := time.Duration(c.URLSigningValue)
	switch c.URLSigningUnit {
	case "seconds":
		return v * time.Second
	case "hours":
		return v * time.Hour
	case "days":
		return v * 24 * time.Hour
	default:
		return v * time.Minute
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
