package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSS3Endpoint      string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	CORSOrigin         string
	LogLevel           string

	// Media relocation batch settings
	MediaRoot              string
	MediaRelocationWorkers int
	MediaRelocationTimeout time.Duration
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	workers, err := strconv.Atoi(getEnv("MEDIA_RELOCATION_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("MEDIA_RELOCATION_WORKERS must be an integer: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("MEDIA_RELOCATION_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("MEDIA_RELOCATION_TIMEOUT must be a duration: %w", err)
	}

	config := &Config{
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		Port:                   getEnv("PORT", "8080"),
		GoEnv:                  getEnv("GO_ENV", "development"),
		Auth0Domain:            getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:          getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:            getEnv("AWS_S3_BUCKET", ""),
		AWSS3Endpoint:          getEnv("AWS_S3_ENDPOINT", ""),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CORSOrigin:             getEnv("CORS_ORIGIN", "*"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MediaRoot:              getEnv("MEDIA_ROOT", "./media"),
		MediaRelocationWorkers: workers,
		MediaRelocationTimeout: timeout,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsTest() && !IsTestDatabaseURL(c.DatabaseURL) {
		return fmt.Errorf("GO_ENV=test requires DATABASE_URL to name a *_test database")
	}
	if c.MediaRelocationWorkers < 1 {
		return fmt.Errorf("MEDIA_RELOCATION_WORKERS must be at least 1")
	}
	if c.MediaRelocationTimeout <= 0 {
		return fmt.Errorf("MEDIA_RELOCATION_TIMEOUT must be positive")
	}
	return nil
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the process-wide configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// HasS3 reports whether an object store bucket is configured
func (c *Config) HasS3() bool {
	return c.AWSS3Bucket != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
