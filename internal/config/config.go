// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the webhook service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultMaxBodySize is 25 MB in bytes.
const defaultMaxBodySize = 26214400

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	TLS      TLSConfig      `yaml:"tls"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	MaxBodySize int64  `yaml:"max_body_size"`
}

// WebhookConfig holds webhook verification configuration. Key is the
// provider's webhook signing key; URL is the exact public URL the provider
// posts to, which participates in the signature.
type WebhookConfig struct {
	Key string `yaml:"key"`
	URL string `yaml:"url"`
}

// StorageConfig selects and configures the attachment-content sink.
type StorageConfig struct {
	Provider string   `yaml:"provider"`
	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config holds AWS S3 sink configuration.
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// DatabaseConfig holds metadata database configuration. An empty path
// disables persistence.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TLSConfig holds TLS settings for the HTTP listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// S3Configured returns true if the S3 sink has a region and bucket.
func (c *Config) S3Configured() bool {
	return c.Storage.S3.Region != "" && c.Storage.S3.Bucket != ""
}

// SignatureEnabled returns true if a webhook signing key is set.
func (c *Config) SignatureEnabled() bool {
	return c.Webhook.Key != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Server.Listen = ":8080"
	c.Server.MaxBodySize = defaultMaxBodySize
	c.Storage.LocalDir = "attachments"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("HOOK_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("HOOK_MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.MaxBodySize = size
		}
	}

	if v := os.Getenv("WEBHOOK_KEY"); v != "" {
		c.Webhook.Key = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}

	if v := os.Getenv("STORAGE_PROVIDER"); v != "" {
		c.Storage.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("STORAGE_LOCAL_DIR"); v != "" {
		c.Storage.LocalDir = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.Storage.S3.Region = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3.SecretAccessKey = v
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("TLS_ENABLED"); v != "" {
		c.TLS.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
