// Copyright 2025 Certen Protocol

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the platform execution core service.
type Config struct {
	// Server Configuration
	ListenAddr  string
	MetricsAddr string
	HealthAddr  string

	// Database Configuration (URL-based, used by pkg/database.NewClient)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int // seconds
	DatabaseMaxLifetime int // seconds
	DatabaseRequired    bool // if true, startup fails if the read-index is unreachable

	// Database Configuration (individual fields, used when assembling a DSN)
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Node identity
	Ed25519KeyPath    string // path to this node's ABCI signing key
	BLSPrivateKeyPath string // path to this node's masternode quorum BLS key
	DataDir           string // base directory for pkg/store persistence and key material

	// Service Configuration
	ValidatorID string
	LogLevel    string

	// CometBFT Network Configuration
	P2PPort int
	RPCPort int
	ChainID string // CometBFT chain ID for the platform network (e.g., "driveplatform-1")

	// Protocol Version Registry (PVR) bootstrap
	InitialProtocolVersion   uint32
	EpochLengthBlocks        int64
	UpgradePercentageRequired float64 // validated but not read by pkg/blockdriver, which activates at a fixed 2/3 of validators

	// Security Configuration
	JWTSecret   string
	CORSOrigins []string
	TLSEnabled  bool

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
}

// Load reads configuration from environment variables.
//
// SECURITY: required variables have no defaults and must be explicitly
// set. Call Validate() after Load() to ensure all required configuration
// is present.
func Load() (*Config, error) {
	cfg := &Config{
		// Server Configuration - safe defaults
		ListenAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),
		MetricsAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),
		HealthAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("HEALTH_CHECK_PORT", "8081"),

		// Database Configuration - REQUIRED, no default for security
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),  // 5 minutes
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600), // 1 hour
		DatabaseRequired:    getEnvBool("DATABASE_REQUIRED", false),

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "platformd"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "platform_readindex"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "require"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		Ed25519KeyPath:    getEnv("ED25519_KEY_PATH", ""),
		BLSPrivateKeyPath: getEnv("BLS_PRIVATE_KEY_PATH", ""),
		DataDir:           getEnv("DATA_DIR", "./data"),

		ValidatorID: getEnv("VALIDATOR_ID", "validator-default"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		P2PPort: getEnvInt("COMETBFT_P2P_PORT", 26656),
		RPCPort: getEnvInt("COMETBFT_RPC_PORT", 26657),
		ChainID: getEnv("COMETBFT_CHAIN_ID", "driveplatform-1"),

		InitialProtocolVersion:    uint32(getEnvInt("INITIAL_PROTOCOL_VERSION", 1)),
		EpochLengthBlocks:         int64(getEnvInt("EPOCH_LENGTH_BLOCKS", 28800)),
		UpgradePercentageRequired: getEnvFloat("UPGRADE_PERCENTAGE_REQUIRED", 0.75),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		TLSEnabled:  getEnvBool("TLS_ENABLED", true),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and secure.
// This must be called after Load() before starting the service.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	} else if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		errs = append(errs, "DATABASE_URL must use sslmode=require for production security")
	}

	if c.ChainID == "" {
		errs = append(errs, "COMETBFT_CHAIN_ID is required but not set")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required but not set")
	} else {
		lowerSecret := strings.ToLower(c.JWTSecret)
		for _, weak := range []string{"development", "secret", "password", "change-me", "changeme", "default", "test"} {
			if strings.Contains(lowerSecret, weak) {
				errs = append(errs, "JWT_SECRET contains weak/default value - generate a secure random secret")
				break
			}
		}
		if len(c.JWTSecret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 characters for security")
		}
	}

	if c.UpgradePercentageRequired <= 0 || c.UpgradePercentageRequired > 1 {
		errs = append(errs, "UPGRADE_PERCENTAGE_REQUIRED must be in (0, 1]")
	}

	if !c.TLSEnabled {
		fmt.Println("WARNING: TLS_ENABLED is false - enable TLS for production security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateForDevelopment performs relaxed validation suitable for local development.
// WARNING: do not use this in production - use Validate() instead.
func (c *Config) ValidateForDevelopment() error {
	if c.ChainID == "" {
		return fmt.Errorf("development configuration validation failed:\n  - COMETBFT_CHAIN_ID is required")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
