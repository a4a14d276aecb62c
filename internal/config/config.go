package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read the environment configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// Config holds every setting of one backup run. It is sourced once from the
// environment at startup and never mutated afterwards.
type Config struct {
	ProjectID string
	APIKey    string

	Languages  []string
	Namespaces []string
	Version    string

	// Remote storage. An empty BucketName means local-only mode.
	BucketName  string
	Region      string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	LocizeEndpoint string

	MaxRetries     int
	RetryDelay     time.Duration
	RateLimitDelay time.Duration
	FetchTimeout   time.Duration

	CleanupLocalFiles bool
	Compress          bool
	OutputDir         string
	LogLevel          string

	// Optional Vault sourcing of the API key and S3 credentials.
	VaultAddr       string
	VaultToken      string
	VaultSecretPath string
}

// Load reads the configuration from environment variables via Viper,
// applies defaults, and validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("project_id", "")
	v.SetDefault("api_key", "")
	v.SetDefault("languages", "en")
	v.SetDefault("namespaces", "translation")
	v.SetDefault("version", "latest")
	v.SetDefault("bucket_name", "")
	v.SetDefault("region", "us-east-1")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_endpoint", "s3.amazonaws.com")
	v.SetDefault("locize_endpoint", "https://api.locize.app")
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", 5)
	v.SetDefault("rate_limit_delay", 1)
	v.SetDefault("cli_timeout", 30)
	v.SetDefault("cleanup_local_files", true)
	v.SetDefault("compress", false)
	v.SetDefault("output_dir", "./backups")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("vault_addr", "")
	v.SetDefault("vault_token", "")
	v.SetDefault("vault_secret_path", "")

	cfg := Config{
		ProjectID:         v.GetString("project_id"),
		APIKey:            v.GetString("api_key"),
		Languages:         splitList(v.GetString("languages")),
		Namespaces:        splitList(v.GetString("namespaces")),
		Version:           v.GetString("version"),
		BucketName:        v.GetString("bucket_name"),
		Region:            v.GetString("region"),
		S3AccessKey:       v.GetString("s3_access_key"),
		S3SecretKey:       v.GetString("s3_secret_key"),
		S3Endpoint:        v.GetString("s3_endpoint"),
		LocizeEndpoint:    v.GetString("locize_endpoint"),
		MaxRetries:        v.GetInt("max_retries"),
		RetryDelay:        time.Duration(v.GetInt("retry_delay")) * time.Second,
		RateLimitDelay:    time.Duration(v.GetInt("rate_limit_delay")) * time.Second,
		FetchTimeout:      time.Duration(v.GetInt("cli_timeout")) * time.Second,
		CleanupLocalFiles: v.GetBool("cleanup_local_files"),
		Compress:          v.GetBool("compress"),
		OutputDir:         v.GetString("output_dir"),
		LogLevel:          strings.ToUpper(v.GetString("log_level")),
		VaultAddr:         v.GetString("vault_addr"),
		VaultToken:        v.GetString("vault_token"),
		VaultSecretPath:   v.GetString("vault_secret_path"),
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RemoteEnabled reports whether an object-storage bucket is configured.
func (c *Config) RemoteEnabled() bool {
	return c.BucketName != ""
}

func (c *Config) normalize() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: PROJECT_ID is required", ErrValidateConfig)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("%w: LANGUAGES must name at least one language", ErrValidateConfig)
	}
	if len(c.Namespaces) == 0 {
		return fmt.Errorf("%w: NAMESPACES must name at least one namespace", ErrValidateConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: MAX_RETRIES must be at least 1", ErrValidateConfig)
	}
	// Cleanup only makes sense once the artifacts live somewhere else.
	if !c.RemoteEnabled() {
		c.CleanupLocalFiles = false
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
